// File: poll/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral polling contract shared by the epoll and IOCP backends.

package poll

// FDEventType is a bitmask of readiness conditions reported for a descriptor.
type FDEventType uint8

const (
	EventRead FDEventType = 1 << iota
	EventWrite
	EventError
)

// FDCallback is invoked from within Poll, on the goroutine that called
// Poll and never concurrently with another callback for the same
// descriptor, when a registered descriptor becomes ready. It must not
// block.
type FDCallback func(fd uintptr, events FDEventType)

// Poller multiplexes readiness across many descriptors using whatever
// facility the host OS provides (epoll, IOCP, ...).
type Poller interface {
	// Register starts watching fd for the given event mask, invoking cb
	// from within Poll whenever it becomes ready.
	Register(fd uintptr, events FDEventType, cb FDCallback) error

	// Unregister stops watching fd. Safe to call more than once.
	Unregister(fd uintptr) error

	// Poll blocks until at least one registered descriptor is ready, an
	// error occurs, or timeoutMs elapses (negative blocks indefinitely),
	// dispatching callbacks for anything ready before returning.
	Poll(timeoutMs int) error

	// Close releases the underlying OS handle. Any blocked Poll returns.
	Close() error
}
