// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Reactor is one single-threaded event loop: one goroutine (runLoop) owns
// every field below the "reactor-thread-confined state" marker, and the
// only way in from anywhere else is ScheduleReactorTask. A second goroutine
// (pollLoop) drives the OS readiness multiplexer; the connection callbacks
// it runs reach reactor-local state only by pushing tasks through that
// same door.

package reactor

import (
	"sync/atomic"
	"time"

	"github.com/momentics/reactorcore/poll"
	"github.com/momentics/reactorcore/rpc"
	"github.com/momentics/reactorcore/status"
)

// Config carries the tunables a Messenger hands each of its reactors.
type Config struct {
	// Keepalive is how long a SERVER connection may sit idle before the
	// idle scanner reaps it; zero or negative disables the scanner.
	// Client-side idle reaping is intentionally not enforced; see idle.go.
	Keepalive time.Duration
	// CoarseTimerGranularity is how often the idle scanner runs.
	CoarseTimerGranularity time.Duration
	// PollTimeout bounds how long a single Poll call may block, so the
	// poll goroutine periodically notices reactor shutdown even with no
	// descriptors ready.
	PollTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.CoarseTimerGranularity <= 0 {
		c.CoarseTimerGranularity = time.Second
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 250 * time.Millisecond
	}
	return c
}

// Reactor owns one poller, one set of connection tables and one pending
// task queue. A Messenger typically owns several, hashing connections
// across them.
type Reactor struct {
	name      string
	messenger rpc.Messenger
	poller    poll.Poller
	cfg       Config

	wakeCh    chan struct{}
	stopCh    chan struct{}
	stoppedCh chan struct{}
	pollDone  chan struct{}

	tasks    *taskQueue
	outbound *outboundQueue

	closing        atomic.Bool
	startedClosing bool

	// reactor-thread-confined state: read and written only from runLoop or
	// from a ReactorTask's Run, both of which execute on the reactor
	// goroutine.
	serverConns    []rpc.Connection
	clientConns    map[rpc.ConnectionId]rpc.Connection
	waitingConns   []rpc.Connection
	scheduledTasks map[*DelayedTask]struct{}
}

// Metrics is the small set of counters GetMetrics reports, in the manner of
// the library's control.MetricsRegistry gauges.
type Metrics struct {
	QueueTimeMicros   int64
	ServerConnections int
	ClientConnections int
	ScheduledTasks    int
}

// New builds a Reactor. It does not start any goroutines; call Init.
func New(name string, messenger rpc.Messenger, poller poll.Poller, cfg Config) *Reactor {
	return &Reactor{
		name:           name,
		messenger:      messenger,
		poller:         poller,
		cfg:            cfg.withDefaults(),
		wakeCh:         make(chan struct{}, 1),
		stopCh:         make(chan struct{}),
		stoppedCh:      make(chan struct{}),
		pollDone:       make(chan struct{}),
		tasks:          newTaskQueue(),
		outbound:       newOutboundQueue(),
		clientConns:    make(map[rpc.ConnectionId]rpc.Connection),
		scheduledTasks: make(map[*DelayedTask]struct{}),
	}
}

// Name returns the reactor's log-friendly identifier.
func (r *Reactor) Name() string { return r.name }

// Messenger returns the owning messenger.
func (r *Reactor) Messenger() rpc.Messenger { return r.messenger }

// Poller exposes the readiness multiplexer so conn.Connection implementations
// can register their own file descriptor once negotiation completes.
func (r *Reactor) Poller() poll.Poller { return r.poller }

// Init starts the reactor thread and the poll goroutine.
func (r *Reactor) Init() {
	go r.runLoop()
	go r.pollLoop()
}

// wake nudges the reactor thread awake without blocking the caller.
func (r *Reactor) wake() {
	select {
	case r.wakeCh <- struct{}{}:
	default:
	}
}

// ScheduleReactorTask is the single entry point from any goroutine into
// reactor-local state. If the reactor has started shutting down, task.Abort
// runs synchronously on the caller's goroutine instead.
func (r *Reactor) ScheduleReactorTask(task ReactorTask) {
	if r.tasks.push(task) {
		r.wake()
	}
}

// ScheduleDelayedTask arranges for fn to run after when, unless aborted
// first, and returns the task so the caller may Abort it. id and the
// reactor's messenger let the caller forget it from external bookkeeping
// once it completes.
func (r *Reactor) ScheduleDelayedTask(fn DelayedTaskFunc, when time.Duration, id int64) *DelayedTask {
	dt := NewDelayedTask(fn, when, id, r.messenger)
	r.ScheduleReactorTask(dt)
	return dt
}

// RunOnReactorThread submits fn and blocks until it has run (or the
// reactor aborted it), returning its result. Useful for tests and for
// synchronous control-plane calls like GetMetrics and
// DumpRunningConnections.
func (r *Reactor) RunOnReactorThread(fn func(*Reactor) status.Status) status.Status {
	t := newRunFunctionTask(fn)
	r.ScheduleReactorTask(t)
	return t.Wait()
}

// runLoop is the reactor thread: it drains submitted tasks, runs the
// coarse idle-scan timer, and flushes the outbound queue, waking whenever
// wakeCh fires or the timer ticks. Once shutdownInternal has run and every
// waiting connection has drained, it closes stopCh itself and returns,
// waking pollLoop in turn.
func (r *Reactor) runLoop() {
	defer close(r.stoppedCh)
	ticker := time.NewTicker(r.cfg.CoarseTimerGranularity)
	defer ticker.Stop()

	for {
		r.drainTasks()
		if r.startedClosing && r.checkReadyToStop() {
			close(r.stopCh)
			return
		}
		select {
		case <-r.wakeCh:
			r.flushOutboundQueue()
		case <-ticker.C:
			r.scanIdleConnections()
			r.flushOutboundQueue()
		}
	}
}

func (r *Reactor) drainTasks() {
	for _, t := range r.tasks.drain() {
		t.Run(r)
	}
}

// pollLoop drives the OS-level readiness multiplexer on its own goroutine
// so a blocked Poll call never stalls task draining. It never touches
// reactor-local state; readiness callbacks registered by connections do
// that indirectly by scheduling their own reactor tasks.
func (r *Reactor) pollLoop() {
	defer close(r.pollDone)
	for {
		select {
		case <-r.stopCh:
			return
		default:
		}
		if r.poller == nil {
			select {
			case <-r.stopCh:
				return
			case <-time.After(r.cfg.PollTimeout):
			}
			continue
		}
		if err := r.poller.Poll(int(r.cfg.PollTimeout / time.Millisecond)); err != nil {
			select {
			case <-r.stopCh:
				return
			default:
			}
		}
	}
}
