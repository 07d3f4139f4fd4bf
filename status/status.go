// File: status/status.go
// Author: momentics <momentics@gmail.com>
//
// Structured status codes for the reactor core, in the manner of the
// library's api.Error: a small closed set of kinds plus a human message,
// so callers can branch on Code() without parsing strings.

package status

import "fmt"

// Code identifies the semantic category of a Status.
type Code int

const (
	// OK indicates success. The zero Status is always OK.
	OK Code = iota
	// Aborted marks work that was accepted but cancelled before completion,
	// e.g. a task or call cancelled by reactor shutdown.
	Aborted
	// ServiceUnavailable marks work that was refused outright, e.g. a task
	// submitted after the reactor started closing.
	ServiceUnavailable
	// NetworkError marks a socket or connection-level failure.
	NetworkError
	// IllegalState marks a collaborator refusing an operation because of
	// its own lifecycle (e.g. a worker pool that is shutting down).
	IllegalState
	// Internal marks a bug: an invariant the reactor believed it enforced
	// did not hold.
	Internal
)

func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case Aborted:
		return "Aborted"
	case ServiceUnavailable:
		return "ServiceUnavailable"
	case NetworkError:
		return "NetworkError"
	case IllegalState:
		return "IllegalState"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Status is a small, comparable-by-value error type. The zero value is OK.
type Status struct {
	code    Code
	message string
	errno   int
}

// New builds a non-OK Status with the given code and message.
func New(code Code, message string) Status {
	return Status{code: code, message: message}
}

// Newf builds a non-OK Status with a formatted message.
func Newf(code Code, format string, args ...any) Status {
	return Status{code: code, message: fmt.Sprintf(format, args...)}
}

// WithErrno attaches a unix errno-like value for diagnostics; it does not
// change Code() or Ok().
func (s Status) WithErrno(errno int) Status {
	s.errno = errno
	return s
}

// OK reports whether the Status represents success.
func (s Status) OK() bool {
	return s.code == OK
}

// Code returns the status's category.
func (s Status) Code() Code {
	return s.code
}

// Errno returns the attached errno, or 0 if none was set.
func (s Status) Errno() int {
	return s.errno
}

// Error implements the error interface so Status can be returned as an
// ordinary Go error and compared with errors.As/Is by callers that only
// care about "did this fail".
func (s Status) Error() string {
	if s.OK() {
		return "OK"
	}
	if s.errno != 0 {
		return fmt.Sprintf("%s: %s (errno %d)", s.code, s.message, s.errno)
	}
	return fmt.Sprintf("%s: %s", s.code, s.message)
}

// Ok is a convenience constructor for the zero (success) Status.
func Ok() Status {
	return Status{}
}

// ShuttingDown reports the two ShuttingDown-kind statuses used throughout
// the reactor: refusing new work is a ServiceUnavailable, cancelling work
// already accepted is an Aborted, both carrying ESHUTDOWN by convention.
func ShuttingDown(aborted bool) Status {
	const eshutdown = 108 // Linux ESHUTDOWN; kept for parity with the errno the reactor historically reported.
	msg := "reactor is shutting down"
	if aborted {
		return New(Aborted, msg).WithErrno(eshutdown)
	}
	return New(ServiceUnavailable, msg).WithErrno(eshutdown)
}
