// File: negotiation/queue.go
// Package negotiation implements the off-reactor-thread worker pool that
// runs the (possibly blocking) per-protocol handshake.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// lockFreeQueue is a bounded MPMC ring buffer using per-cell sequence
// numbers (the Vyukov pattern), since SubmitClosure is called concurrently
// by every reactor's own goroutine in a multi-reactor Messenger and each
// worker's local queue is therefore a genuine multi-producer target, not a
// single-producer one.

package negotiation

import "sync/atomic"

type cell[T any] struct {
	sequence atomic.Uint64
	data     T
}

type lockFreeQueue[T any] struct {
	head  uint64
	_     [56]byte
	tail  uint64
	_     [56]byte
	mask  uint64
	cells []cell[T]
}

// newLockFreeQueue creates a queue with capacity rounded up to a power of two.
func newLockFreeQueue[T any](capacity int) *lockFreeQueue[T] {
	if capacity < 2 {
		capacity = 2
	}
	size := 1
	for size < capacity {
		size <<= 1
	}
	q := &lockFreeQueue[T]{mask: uint64(size - 1), cells: make([]cell[T], size)}
	for i := range q.cells {
		q.cells[i].sequence.Store(uint64(i))
	}
	return q
}

// enqueue adds val; returns false if full. Safe for any number of
// concurrent producers.
func (q *lockFreeQueue[T]) enqueue(val T) bool {
	for {
		tail := atomic.LoadUint64(&q.tail)
		c := &q.cells[tail&q.mask]
		seq := c.sequence.Load()
		switch diff := int64(seq) - int64(tail); {
		case diff == 0:
			if atomic.CompareAndSwapUint64(&q.tail, tail, tail+1) {
				c.data = val
				c.sequence.Store(tail + 1)
				return true
			}
		case diff < 0:
			return false // full
		default:
			// another producer already advanced tail; retry
		}
	}
}

// dequeue removes and returns an item; ok is false if empty. Safe for any
// number of concurrent consumers.
func (q *lockFreeQueue[T]) dequeue() (item T, ok bool) {
	for {
		head := atomic.LoadUint64(&q.head)
		c := &q.cells[head&q.mask]
		seq := c.sequence.Load()
		switch diff := int64(seq) - int64(head+1); {
		case diff == 0:
			if atomic.CompareAndSwapUint64(&q.head, head, head+1) {
				item = c.data
				c.sequence.Store(head + q.mask + 1)
				return item, true
			}
		case diff < 0:
			var zero T
			return zero, false // empty
		default:
			// another consumer already advanced head; retry
		}
	}
}
