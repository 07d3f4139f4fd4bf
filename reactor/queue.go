// File: reactor/queue.go
// Author: momentics <momentics@gmail.com>
//
// taskQueue is the single doorway from any goroutine into the reactor
// thread: a lock-guarded FIFO plus a closing flag, so a submission after
// shutdown begins is aborted immediately instead of queued forever.

package reactor

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/momentics/reactorcore/rpc"
	"github.com/momentics/reactorcore/status"
)

type taskQueue struct {
	mu      sync.Mutex
	q       *queue.Queue
	closing bool
}

func newTaskQueue() *taskQueue {
	return &taskQueue{q: queue.New()}
}

// push enqueues task unless the queue is closing, in which case task is
// aborted synchronously on the caller's goroutine and false is returned.
func (tq *taskQueue) push(task ReactorTask) bool {
	tq.mu.Lock()
	if tq.closing {
		tq.mu.Unlock()
		task.Abort(status.ShuttingDown(false))
		return false
	}
	tq.q.Add(task)
	tq.mu.Unlock()
	return true
}

// drain removes and returns every task currently queued, in FIFO order.
func (tq *taskQueue) drain() []ReactorTask {
	tq.mu.Lock()
	defer tq.mu.Unlock()
	n := tq.q.Length()
	if n == 0 {
		return nil
	}
	out := make([]ReactorTask, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, tq.q.Remove().(ReactorTask))
	}
	return out
}

// closeAndDrain marks the queue closing and returns whatever was still
// queued, so the caller can Abort each of them.
func (tq *taskQueue) closeAndDrain() []ReactorTask {
	tq.mu.Lock()
	defer tq.mu.Unlock()
	tq.closing = true
	n := tq.q.Length()
	if n == 0 {
		return nil
	}
	out := make([]ReactorTask, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, tq.q.Remove().(ReactorTask))
	}
	return out
}

// outboundQueue is the multi-producer FIFO of calls awaiting assignment to
// a connection, drained in a single batch by the outbound flush task.
type outboundQueue struct {
	mu      sync.Mutex
	q       *queue.Queue
	closing bool
}

func newOutboundQueue() *outboundQueue {
	return &outboundQueue{q: queue.New()}
}

func (oq *outboundQueue) push(call rpc.OutboundCall) bool {
	oq.mu.Lock()
	defer oq.mu.Unlock()
	if oq.closing {
		return false
	}
	oq.q.Add(call)
	return true
}

func (oq *outboundQueue) drain() []rpc.OutboundCall {
	oq.mu.Lock()
	defer oq.mu.Unlock()
	n := oq.q.Length()
	if n == 0 {
		return nil
	}
	out := make([]rpc.OutboundCall, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, oq.q.Remove().(rpc.OutboundCall))
	}
	return out
}

func (oq *outboundQueue) closeAndDrain() []rpc.OutboundCall {
	oq.mu.Lock()
	defer oq.mu.Unlock()
	oq.closing = true
	n := oq.q.Length()
	if n == 0 {
		return nil
	}
	out := make([]rpc.OutboundCall, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, oq.q.Remove().(rpc.OutboundCall))
	}
	return out
}
