// File: negotiation/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pool dispatches negotiation closures across a fixed set of worker
// goroutines, using lock-free local queues per worker and a buffered
// global queue as fallback when a local queue is full. Negotiation is
// deliberately run off the reactor thread: it may block on the wire.

package negotiation

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/reactorcore/status"
)

// Closure is a unit of negotiation work.
type Closure func()

// Pool implements rpc.NegotiationPool.
type Pool struct {
	globalQueue chan Closure
	localQueues []*lockFreeQueue[Closure]
	workers     []*worker
	closeCh     chan struct{}
	closed      atomic.Bool
	numWorkers  int32
	mu          sync.Mutex
	wg          sync.WaitGroup

	totalTasks     int64
	completedTasks int64
}

// New creates a Pool with numWorkers goroutines. If numWorkers <= 0, it
// defaults to runtime.NumCPU().
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	p := &Pool{
		globalQueue: make(chan Closure, numWorkers*4),
		closeCh:     make(chan struct{}),
		numWorkers:  int32(numWorkers),
	}
	p.localQueues = make([]*lockFreeQueue[Closure], numWorkers)
	p.workers = make([]*worker, numWorkers)
	for i := 0; i < numWorkers; i++ {
		p.localQueues[i] = newLockFreeQueue[Closure](256)
	}
	for i := 0; i < numWorkers; i++ {
		w := &worker{id: i, pool: p, localQueue: p.localQueues[i], stopCh: make(chan struct{})}
		p.workers[i] = w
		p.wg.Add(1)
		go w.run(&p.wg)
	}
	return p
}

// SubmitClosure implements rpc.NegotiationPool.
func (p *Pool) SubmitClosure(fn func()) status.Status {
	if p.closed.Load() {
		return status.New(status.IllegalState, "negotiation pool is shutting down")
	}
	n := atomic.AddInt64(&p.totalTasks, 1)
	idx := int(uint64(n) % uint64(len(p.localQueues)))
	if p.localQueues[idx].enqueue(Closure(fn)) {
		return status.Ok()
	}
	select {
	case p.globalQueue <- Closure(fn):
		return status.Ok()
	case <-p.closeCh:
		return status.New(status.IllegalState, "negotiation pool is shutting down")
	default:
		return status.New(status.IllegalState, "negotiation pool queue is full")
	}
}

// NumWorkers returns the configured worker count.
func (p *Pool) NumWorkers() int {
	return int(atomic.LoadInt32(&p.numWorkers))
}

// Stats reports simple task counters, exposed through reactord's
// "negotiation.stats" debug probe.
func (p *Pool) Stats() map[string]int64 {
	return map[string]int64{
		"total_tasks":     atomic.LoadInt64(&p.totalTasks),
		"completed_tasks": atomic.LoadInt64(&p.completedTasks),
		"num_workers":     int64(p.NumWorkers()),
	}
}

// Close stops accepting work and waits for in-flight closures to finish.
func (p *Pool) Close() {
	if p.closed.CompareAndSwap(false, true) {
		close(p.closeCh)
		p.mu.Lock()
		for _, w := range p.workers {
			close(w.stopCh)
		}
		p.mu.Unlock()
		p.wg.Wait()
	}
}

type worker struct {
	id         int
	pool       *Pool
	localQueue *lockFreeQueue[Closure]
	stopCh     chan struct{}
}

func (w *worker) run(wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-w.stopCh:
			return
		default:
		}
		if task, ok := w.localQueue.dequeue(); ok {
			w.execute(task)
			continue
		}
		select {
		case task := <-w.pool.globalQueue:
			w.execute(task)
		case <-w.stopCh:
			return
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func (w *worker) execute(task Closure) {
	defer func() {
		_ = recover()
		atomic.AddInt64(&w.pool.completedTasks, 1)
	}()
	task()
}
