// File: reactor/task.go
// Author: momentics <momentics@gmail.com>

package reactor

import "github.com/momentics/reactorcore/status"

// ReactorTask is a unit of work that runs exactly once: either Run, on the
// reactor thread, or Abort, if the reactor is already shutting down when
// the task is submitted or drained. Implementations must not block Run for
// long; the whole event loop stalls while a task runs.
type ReactorTask interface {
	Run(r *Reactor)
	Abort(s status.Status)
}

// functorTask adapts a plain closure into a ReactorTask that has no
// meaningful abort behavior of its own; callers that need to observe
// cancellation should use runFunctionTask or DelayedTask instead.
type functorTask struct {
	fn func(*Reactor)
}

// Functor wraps fn as a fire-and-forget ReactorTask. If the reactor is
// closing when the task is submitted, fn simply never runs.
func Functor(fn func(*Reactor)) ReactorTask {
	return &functorTask{fn: fn}
}

func (t *functorTask) Run(r *Reactor)         { t.fn(r) }
func (t *functorTask) Abort(s status.Status)  {}

// runFunctionTask is used for synchronous round trips onto the reactor
// thread: submit, then Wait for the result.
type runFunctionTask struct {
	fn     func(*Reactor) status.Status
	done   chan struct{}
	result status.Status
}

func newRunFunctionTask(fn func(*Reactor) status.Status) *runFunctionTask {
	return &runFunctionTask{fn: fn, done: make(chan struct{})}
}

func (t *runFunctionTask) Run(r *Reactor) {
	t.result = t.fn(r)
	close(t.done)
}

func (t *runFunctionTask) Abort(s status.Status) {
	t.result = s
	close(t.done)
}

// Wait blocks until the task has run or been aborted and returns its result.
func (t *runFunctionTask) Wait() status.Status {
	<-t.done
	return t.result
}
