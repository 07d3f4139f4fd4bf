// File: reactor/negotiate.go
// Author: momentics <momentics@gmail.com>
//
// A connection is admitted to the tables the moment it is accepted or
// dialed, but stays invisible to the poller until its handshake finishes:
// startConnectionNegotiation hands the (possibly blocking) exchange to the
// messenger's negotiation pool and completeConnectionNegotiation, running
// back on the reactor thread, either wires the connection into the poller
// or tears it down.

package reactor

import (
	"github.com/momentics/reactorcore/rpc"
	"github.com/momentics/reactorcore/status"
)

// startConnectionNegotiation submits conn's handshake to the negotiation
// pool. Reactor-thread only: called from acceptTask.Run and
// registerClientConnection.
func (r *Reactor) startConnectionNegotiation(conn rpc.Connection) {
	pool := r.messenger.NegotiationPool()
	if pool == nil {
		r.completeConnectionNegotiation(conn, status.New(status.Internal, "messenger has no negotiation pool"))
		return
	}
	s := pool.SubmitClosure(func() {
		result := conn.Negotiate()
		r.ScheduleReactorTask(Functor(func(rr *Reactor) {
			rr.completeConnectionNegotiation(conn, result)
		}))
	})
	if !s.OK() {
		r.completeConnectionNegotiation(conn, s)
	}
}

// completeConnectionNegotiation runs on the reactor thread once a
// handshake finishes, successfully or not.
func (r *Reactor) completeConnectionNegotiation(conn rpc.Connection, s status.Status) {
	if !s.OK() {
		r.destroyConnection(conn, s)
		return
	}
	if err := conn.SetNonBlocking(true); err != nil {
		r.destroyConnection(conn, status.Newf(status.NetworkError, "set non-blocking after negotiation: %v", err))
		return
	}
	conn.MarkNegotiationComplete()
	if err := conn.RegisterForReadiness(); err != nil {
		r.destroyConnection(conn, status.Newf(status.NetworkError, "register for readiness: %v", err))
		return
	}
}

// forgetConnection removes conn from whichever table currently holds it,
// without shutting it down; the caller shuts it down itself so it controls
// the reported status.
func (r *Reactor) forgetConnection(conn rpc.Connection) {
	r.removeServerConn(conn)
	r.removeWaitingConn(conn)
	for id, c := range r.clientConns {
		if c == conn {
			delete(r.clientConns, id)
			return
		}
	}
}
