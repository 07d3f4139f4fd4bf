// File: reactor/controller.go
// Author: momentics <momentics@gmail.com>
//
// Shutdown orchestration: shut down every known connection, move whichever
// ones are not already drained onto the waiting list, abort whatever is
// still queued, then poll until every waiting connection's protocol
// context reports it has drained in-flight work.

package reactor

import (
	"github.com/momentics/reactorcore/rpc"
	"github.com/momentics/reactorcore/status"
)

// Shutdown stops the reactor, tearing down every connection with reason and
// aborting every task and outbound call still queued. It blocks until every
// connection has finished draining and both reactor goroutines have exited.
// Safe from any thread and safe to call more than once; later callers just
// wait for the first call to finish.
func (r *Reactor) Shutdown(reason status.Status) {
	if !r.closing.CompareAndSwap(false, true) {
		<-r.stoppedCh
		<-r.pollDone
		return
	}

	r.ScheduleReactorTask(Functor(func(rr *Reactor) {
		rr.shutdownInternal(reason)
	}))

	<-r.stoppedCh
	<-r.pollDone
	if r.poller != nil {
		_ = r.poller.Close()
	}
}

// shutdownInternal shuts down every known connection and moves it onto
// waiting_conns_ only if its context is not already reporting ReadyToStop,
// aborts every scheduled timer and every task or outbound call still
// enqueued. Reactor-thread only.
func (r *Reactor) shutdownInternal(reason status.Status) {
	r.startedClosing = true
	for _, c := range r.serverConns {
		c.Shutdown(reason)
		if c.Context() == nil || !c.Context().ReadyToStop() {
			r.waitingConns = append(r.waitingConns, c)
		}
	}
	r.serverConns = nil

	for _, c := range r.clientConns {
		c.Shutdown(reason)
		if c.Context() == nil || !c.Context().ReadyToStop() {
			r.waitingConns = append(r.waitingConns, c)
		}
	}
	r.clientConns = make(map[rpc.ConnectionId]rpc.Connection)

	for dt := range r.scheduledTasks {
		dt.Abort(status.ShuttingDown(true))
	}
	r.scheduledTasks = make(map[*DelayedTask]struct{})

	for _, task := range r.tasks.closeAndDrain() {
		task.Abort(status.ShuttingDown(true))
	}
	for _, call := range r.outbound.closeAndDrain() {
		call.SetFailed(status.ShuttingDown(true))
	}
}

// checkReadyToStop drops every waiting connection whose context reports it
// has drained, and reports whether any remain. Reactor-thread only.
func (r *Reactor) checkReadyToStop() bool {
	kept := r.waitingConns[:0]
	for _, c := range r.waitingConns {
		if c.Context() != nil && c.Context().ReadyToStop() {
			continue
		}
		kept = append(kept, c)
	}
	r.waitingConns = kept
	return len(r.waitingConns) == 0
}

// GetMetrics reports a snapshot of reactor counters. Safe from any thread.
func (r *Reactor) GetMetrics() Metrics {
	var m Metrics
	r.RunOnReactorThread(func(rr *Reactor) status.Status {
		m = Metrics{
			ServerConnections: len(rr.serverConns),
			ClientConnections: len(rr.clientConns),
			ScheduledTasks:    len(rr.scheduledTasks),
		}
		return status.Ok()
	})
	return m
}

// DumpRunningConnections returns a short description of every connection
// currently known to the reactor, in the manner of the upstream reactor's
// DumpRunningRpcs debug endpoint.
func (r *Reactor) DumpRunningConnections() []string {
	var out []string
	r.RunOnReactorThread(func(rr *Reactor) status.Status {
		for _, c := range rr.serverConns {
			out = append(out, c.Describe())
		}
		for _, c := range rr.clientConns {
			out = append(out, c.Describe())
		}
		return status.Ok()
	})
	return out
}
