// File: reactor/idle.go
// Author: momentics <momentics@gmail.com>
//
// The idle scanner runs once per coarse timer tick and reaps SERVER
// connections that have sat idle longer than the configured keepalive.
// Client-side connections are deliberately never reaped here: a client
// that stops sending traffic is usually just waiting on a slow peer, and
// closing its socket out from under in-flight calls would surprise
// callers far more than an idle server-side accept ever would. The
// keepalive knob therefore only ever governs SERVER connections, an
// asymmetry carried over unapologetically rather than "fixed" with a
// second timer nobody asked for.

package reactor

import (
	"time"

	"github.com/momentics/reactorcore/status"
)

// scanIdleConnections reaps idle SERVER connections. Reactor-thread only.
func (r *Reactor) scanIdleConnections() {
	if r.cfg.Keepalive <= 0 {
		return
	}
	now := time.Now()
	var kept int
	for i := 0; i < len(r.serverConns); i++ {
		c := r.serverConns[i]
		if !c.Idle() {
			r.serverConns[kept] = c
			kept++
			continue
		}
		idleFor := now.Sub(c.LastActivityTime())
		if idleFor > r.cfg.Keepalive {
			c.Shutdown(status.Newf(status.NetworkError, "connection timed out after %s", idleFor))
			continue
		}
		r.serverConns[kept] = c
		kept++
	}
	r.serverConns = r.serverConns[:kept]
}
