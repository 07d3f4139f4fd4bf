// File: reactor/delayed_task.go
// Author: momentics <momentics@gmail.com>
//
// DelayedTask is a single-shot, cancellable timer bound to a closure. It
// must invoke that closure exactly once no matter how Abort and the timer
// firing race against each other, and no matter which goroutine wins.
//
// The upstream C++ reactor runs its timer callback on the same cooperative
// event-loop thread that owns scheduled_tasks_, so erasing an entry from
// that set needs no lock beyond the loop's own single-threading. Go's
// time.AfterFunc instead fires on an arbitrary runtime goroutine, so here
// the firing goroutine only ever submits a small ReactorTask back onto the
// reactor's own pending-task queue; the actual scheduled_tasks_ erase and
// the closure invocation both happen inside that task's Run, back on the
// reactor thread, reusing the pending-task lock instead of adding a fourth
// one just for this set.
package reactor

import (
	"sync"
	"time"

	"github.com/momentics/reactorcore/rpc"
	"github.com/momentics/reactorcore/status"
)

// DelayedTaskFunc receives status.Ok() on normal expiry, or the status the
// task was aborted with otherwise.
type DelayedTaskFunc func(status.Status)

// DelayedTask implements ReactorTask so it can be scheduled the same way as
// any other unit of reactor work; Run starts its timer, the timer's fire
// (or an external Abort) both funnel into complete exactly once.
type DelayedTask struct {
	mu    sync.Mutex
	fn    DelayedTaskFunc
	when  time.Duration
	id    int64
	msgr  rpc.Messenger
	done  bool
	timer *time.Timer
}

// NewDelayedTask builds a task that fires fn after when unless aborted
// first. id and msgr let the reactor forget the task from the owning
// messenger's bookkeeping once it completes; msgr may be nil.
func NewDelayedTask(fn DelayedTaskFunc, when time.Duration, id int64, msgr rpc.Messenger) *DelayedTask {
	return &DelayedTask{fn: fn, when: when, id: id, msgr: msgr}
}

// ID returns the identifier the task was created with.
func (t *DelayedTask) ID() int64 { return t.id }

// Run starts the timer and registers the task in the reactor's scheduled
// set. Called on the reactor thread via ScheduleReactorTask.
func (t *DelayedTask) Run(r *Reactor) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.timer = time.AfterFunc(t.when, func() { t.fire(r) })
	r.scheduledTasks[t] = struct{}{}
}

// Abort cancels the task from any thread. If it wins the race against a
// concurrent fire, fn observes s; otherwise fn has already run (or is
// about to, with status.Ok()) and this call is a no-op.
func (t *DelayedTask) Abort(s status.Status) {
	if !t.markDone() {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.fn(s)
}

func (t *DelayedTask) markDone() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// fire runs on the Go runtime's timer goroutine, not the reactor thread. It
// only ever enqueues; scheduledTasks and fn are touched in complete.
func (t *DelayedTask) fire(r *Reactor) {
	r.ScheduleReactorTask(&delayedTaskFireNotice{task: t})
}

// delayedTaskFireNotice is the ReactorTask that actually completes a
// DelayedTask on the reactor thread, whether the timer really fired (Run)
// or the reactor was already shutting down when it was submitted (Abort).
type delayedTaskFireNotice struct {
	task *DelayedTask
}

func (n *delayedTaskFireNotice) Run(r *Reactor) {
	n.task.complete(r, status.Ok())
}

func (n *delayedTaskFireNotice) Abort(s status.Status) {
	n.task.complete(nil, s)
}

func (t *DelayedTask) complete(r *Reactor, s status.Status) {
	if !t.markDone() {
		return
	}
	if r != nil {
		delete(r.scheduledTasks, t)
	}
	if t.msgr != nil {
		t.msgr.RemoveScheduledTask(t.id)
	}
	t.fn(s)
}
