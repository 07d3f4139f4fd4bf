//go:build !linux && !windows
// +build !linux,!windows

// File: poll/reactor_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package poll

import "errors"

// NewPoller returns an error for unsupported platforms.
func NewPoller() (Poller, error) {
	return nil, errors.New("poll: this platform is not supported")
}
