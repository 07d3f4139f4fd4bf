// File: reactor/connections.go
// Author: momentics <momentics@gmail.com>
//
// The three connection tables and the operations that mutate them. Every
// function in this file assumes it is running on the reactor thread; the
// exported entry points that other goroutines call (AcceptConnection,
// DestroyConnection, DropWithRemoteAddress, QueueEventOnAllConnections)
// schedule a task instead of touching the tables directly.

package reactor

import (
	"github.com/momentics/reactorcore/rpc"
	"github.com/momentics/reactorcore/status"
)

// acceptTask registers a freshly accepted socket and, unlike a bare
// Functor, shuts the connection down if the reactor is already closing
// instead of leaking it.
type acceptTask struct {
	conn rpc.Connection
}

func (t *acceptTask) Run(r *Reactor) {
	r.serverConns = append(r.serverConns, t.conn)
	r.startConnectionNegotiation(t.conn)
}

func (t *acceptTask) Abort(s status.Status) {
	t.conn.Shutdown(s)
}

// AcceptConnection hands a freshly accepted socket to the reactor. Safe
// from any thread; typically called by the messenger's listener goroutine.
func (r *Reactor) AcceptConnection(conn rpc.Connection) {
	r.ScheduleReactorTask(&acceptTask{conn: conn})
}

// findConnection returns the existing connection for id, or nil if
// none exists yet. Reactor-thread only.
func (r *Reactor) findConnection(id rpc.ConnectionId) rpc.Connection {
	return r.clientConns[id]
}

// registerClientConnection inserts a freshly dialed connection into
// client_conns_ under id and starts its negotiation. Reactor-thread only.
// Callers must have already confirmed no live entry exists for id.
func (r *Reactor) registerClientConnection(id rpc.ConnectionId, conn rpc.Connection) {
	r.clientConns[id] = conn
	r.startConnectionNegotiation(conn)
}

// destroyTask removes a connection from whichever table it lives in and
// shuts it down. Used both for explicit teardown (a readiness callback
// reporting a dead socket) and for negotiation failure.
type destroyTask struct {
	conn   rpc.Connection
	reason status.Status
}

func (t *destroyTask) Run(r *Reactor) {
	r.destroyConnection(t.conn, t.reason)
}

func (t *destroyTask) Abort(status.Status) {}

// DestroyConnection removes and shuts down conn, from any thread. Lookup is
// by connection identity, never by re-deriving a ConnectionId: the reactor
// never probes other index slots for the same remote to find a stand-in,
// since doing so risks tearing down an unrelated live connection at a
// different index (see forgetConnection).
func (r *Reactor) DestroyConnection(conn rpc.Connection, reason status.Status) {
	r.ScheduleReactorTask(&destroyTask{conn: conn, reason: reason})
}

func (r *Reactor) destroyConnection(conn rpc.Connection, reason status.Status) {
	r.forgetConnection(conn)
	conn.Shutdown(reason)
}

// DropWithRemoteAddress tears down every connection, server or client,
// whose remote endpoint matches addr. Used when a lower layer reports the
// peer as unreachable and every socket to it should be considered dead.
func (r *Reactor) DropWithRemoteAddress(addr string, reason status.Status) {
	r.ScheduleReactorTask(Functor(func(rr *Reactor) {
		kept := rr.serverConns[:0]
		for _, c := range rr.serverConns {
			if c.Remote() == addr {
				c.Shutdown(reason)
				continue
			}
			kept = append(kept, c)
		}
		rr.serverConns = kept
		for id, c := range rr.clientConns {
			if id.Remote == addr {
				delete(rr.clientConns, id)
				c.Shutdown(reason)
			}
		}
	}))
}

// QueueEventOnAllConnections runs fn once per connection currently known to
// the reactor, server and client alike. Used for broadcast-style
// housekeeping such as sending a drain notice before shutdown.
func (r *Reactor) QueueEventOnAllConnections(fn func(rpc.Connection)) {
	r.ScheduleReactorTask(Functor(func(rr *Reactor) {
		for _, c := range rr.serverConns {
			fn(c)
		}
		for _, c := range rr.clientConns {
			fn(c)
		}
	}))
}

func (r *Reactor) removeServerConn(c rpc.Connection) {
	for i, existing := range r.serverConns {
		if existing == c {
			r.serverConns = append(r.serverConns[:i], r.serverConns[i+1:]...)
			return
		}
	}
}

func (r *Reactor) removeWaitingConn(c rpc.Connection) {
	for i, existing := range r.waitingConns {
		if existing == c {
			r.waitingConns = append(r.waitingConns[:i], r.waitingConns[i+1:]...)
			return
		}
	}
}
