// File: reactor/outbound.go
// Author: momentics <momentics@gmail.com>
//
// Outbound calls arrive from many producer goroutines through a single
// FIFO; the reactor thread drains it in one batch per wake, assigning each
// call to a connection (dialing a new one if none exists yet) and kicking
// each distinct connection's writer exactly once regardless of how many
// calls it just received.

package reactor

import (
	"github.com/momentics/reactorcore/rpc"
	"github.com/momentics/reactorcore/status"
)

// QueueOutboundCall enqueues call for assignment on the reactor thread.
// Safe from any thread. If the reactor is already shutting down, the call
// is failed synchronously with a ShuttingDown status instead of queued.
func (r *Reactor) QueueOutboundCall(call rpc.OutboundCall) {
	if r.outbound.push(call) {
		r.wake()
		return
	}
	call.SetFailed(status.ShuttingDown(false))
}

// flushOutboundQueue drains every call queued since the last flush,
// assigns each to a connection, and calls OutboundQueued once per distinct
// connection touched. Reactor-thread only.
func (r *Reactor) flushOutboundQueue() {
	calls := r.outbound.drain()
	if len(calls) == 0 {
		return
	}
	// Describe() is a stable, comparable string for the lifetime of a
	// flush, unlike the Connection interface value itself, which may wrap
	// a non-comparable concrete type and panic on map insert.
	touched := make(map[string]struct{}, len(calls))
	for _, call := range calls {
		r.assignOutboundCall(call, touched)
	}
}

// assignOutboundCall finds (or dials) the exact connection call.ConnID()
// names. Which index a call targets, and therefore how many parallel
// sockets exist to a given remote, is decided by whatever built the call
// (the messenger's client-facing proxy) before it ever reaches the
// reactor; the reactor itself only ever keys client_conns_ by the id it is
// handed.
func (r *Reactor) assignOutboundCall(call rpc.OutboundCall, touched map[string]struct{}) {
	id := call.ConnID()
	conn := r.findConnection(id)
	if conn == nil {
		newConn, s := r.messenger.NewOutboundConnection(id)
		if !s.OK() {
			call.SetFailed(s)
			return
		}
		r.registerClientConnection(id, newConn)
		conn = newConn
	}
	conn.QueueOutboundCall(call)
	key := conn.Describe()
	if _, seen := touched[key]; !seen {
		touched[key] = struct{}{}
		conn.OutboundQueued()
	}
}
