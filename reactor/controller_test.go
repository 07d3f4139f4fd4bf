// File: reactor/controller_test.go
// Author: momentics <momentics@gmail.com>

package reactor

import (
	"testing"
	"time"

	"github.com/momentics/reactorcore/status"
)

func TestShutdownWaitsForConnectionsToDrain(t *testing.T) {
	r := New("test", newFakeMessenger(), nil, Config{CoarseTimerGranularity: 10 * time.Millisecond})
	r.Init()

	c := newFakeConn("10.0.0.9:1", 0)
	r.RunOnReactorThread(func(rr *Reactor) status.Status {
		rr.serverConns = append(rr.serverConns, c)
		return status.Ok()
	})

	done := make(chan struct{})
	go func() {
		r.Shutdown(status.New(status.Aborted, "test shutdown"))
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Shutdown returned before the connection's context reported ReadyToStop")
	case <-time.After(80 * time.Millisecond):
	}

	c.ctx.ready.Store(true)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown never returned after the connection became ready to stop")
	}

	if len(c.shutdownWith) != 1 || c.shutdownWith[0].Code() != status.Aborted {
		t.Fatalf("connection shutdown statuses = %v, want one Aborted", c.shutdownWith)
	}
}

func TestScheduleReactorTaskAfterShutdownIsAborted(t *testing.T) {
	r := newTestReactor(newFakeMessenger())
	r.Shutdown(status.ShuttingDown(false))

	task := &recordingTask{}
	r.ScheduleReactorTask(task)
	if task.wasRun {
		t.Fatal("task submitted after shutdown must not run")
	}
	if !task.wasAborted {
		t.Fatal("task submitted after shutdown must be aborted")
	}
	if task.abortedWith.Code() != status.ServiceUnavailable {
		t.Fatalf("abort status = %v, want ServiceUnavailable", task.abortedWith)
	}
}

type recordingTask struct {
	wasAborted  bool
	abortedWith status.Status
	wasRun      bool
}

func (t *recordingTask) Run(r *Reactor)         { t.wasRun = true }
func (t *recordingTask) Abort(s status.Status) { t.wasAborted = true; t.abortedWith = s }
