// File: reactor/delayed_task_test.go
// Author: momentics <momentics@gmail.com>

package reactor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/momentics/reactorcore/status"
)

func TestDelayedTaskFiresOnce(t *testing.T) {
	r := newTestReactor(newFakeMessenger())
	defer r.Shutdown(status.ShuttingDown(false))

	var calls int32
	var got status.Status
	done := make(chan struct{})
	r.ScheduleDelayedTask(func(s status.Status) {
		if atomic.AddInt32(&calls, 1) == 1 {
			got = s
			close(done)
		}
	}, 10*time.Millisecond, 1)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("delayed task never fired")
	}
	if !got.OK() {
		t.Fatalf("fn status = %v, want OK", got)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("fn called %d times, want 1", calls)
	}
}

func TestDelayedTaskAbortBeforeFire(t *testing.T) {
	r := newTestReactor(newFakeMessenger())
	defer r.Shutdown(status.ShuttingDown(false))

	var calls int32
	var got status.Status
	dt := r.ScheduleDelayedTask(func(s status.Status) {
		atomic.AddInt32(&calls, 1)
		got = s
	}, time.Hour, 2)

	// Give Run a moment to actually start the timer before aborting.
	time.Sleep(20 * time.Millisecond)
	dt.Abort(status.New(status.Aborted, "cancelled"))

	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("fn called %d times, want 1", calls)
	}
	if got.Code() != status.Aborted {
		t.Fatalf("fn status = %v, want Aborted", got)
	}
}

func TestDelayedTaskAbortRaceIsExactlyOnce(t *testing.T) {
	// A very short delay racing an immediate Abort call exercises both
	// completion paths; whichever wins, fn must run exactly once.
	for i := 0; i < 200; i++ {
		r := newTestReactor(newFakeMessenger())

		var calls int32
		dt := r.ScheduleDelayedTask(func(status.Status) {
			atomic.AddInt32(&calls, 1)
		}, time.Millisecond, int64(i))

		dt.Abort(status.New(status.Aborted, "race"))
		time.Sleep(5 * time.Millisecond)

		r.Shutdown(status.ShuttingDown(false))

		if got := atomic.LoadInt32(&calls); got != 1 {
			t.Fatalf("iteration %d: fn called %d times, want exactly 1", i, got)
		}
	}
}
