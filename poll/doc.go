// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package poll provides the low-level, per-platform readiness multiplexer
// used by the reactor package to learn when a registered file descriptor
// becomes readable, writable, or errored. It has no notion of connections,
// tasks, or protocols: it only turns OS readiness notifications into
// callback invocations on a caller-owned goroutine.
package poll
