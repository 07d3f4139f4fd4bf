// File: reactor/doc.go
// Author: momentics <momentics@gmail.com>
//
// Package reactor is the single-threaded event-loop core of the transport:
// one goroutine owns every connection table, every scheduled timer, and the
// pending-task queue that is the sole doorway into that state from anyone
// else. Producers on other goroutines never touch reactor-local state
// directly; they hand a ReactorTask to ScheduleReactorTask and the reactor
// thread runs it (or, if the reactor is already shutting down, aborts it
// with a ShuttingDown status) the next time it wakes.
//
// The OS-level readiness multiplexer (package poll) runs on its own
// goroutine so a blocked epoll_wait/GetQueuedCompletionStatus never stalls
// task draining or timer bookkeeping. The connection callbacks it runs
// never mutate reactor state themselves; they reach it only by posting
// tasks onto the reactor's queue.
package reactor
