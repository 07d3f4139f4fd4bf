//go:build linux
// +build linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package poll - Linux epoll implementation.

package poll

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// epollReactor implements Poller using Linux epoll.
type epollReactor struct {
	epfd      int
	callbacks sync.Map // map[uintptr]FDCallback
}

// NewPoller constructs the Linux epoll-backed Poller.
func NewPoller() (Poller, error) {
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	return &epollReactor{epfd: epfd}, nil
}

// Register adds a file descriptor to the epoll watch list.
func (r *epollReactor) Register(fd uintptr, events FDEventType, cb FDCallback) error {
	var ev unix.EpollEvent
	if events&EventRead != 0 {
		ev.Events |= unix.EPOLLIN
	}
	if events&EventWrite != 0 {
		ev.Events |= unix.EPOLLOUT
	}
	ev.Fd = int32(fd)

	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, int(fd), &ev); err != nil {
		return fmt.Errorf("epoll ctl add: %w", err)
	}

	r.callbacks.Store(fd, cb)
	return nil
}

// Unregister removes a file descriptor from the epoll watch list.
func (r *epollReactor) Unregister(fd uintptr) error {
	_ = unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, int(fd), nil)
	r.callbacks.Delete(fd)
	return nil
}

// Poll blocks and waits for events on registered file descriptors.
// timeoutMs < 0 means block indefinitely.
func (r *epollReactor) Poll(timeoutMs int) error {
	const maxEvents = 128
	var events [maxEvents]unix.EpollEvent
	timeout := timeoutMs
	if timeout < 0 {
		timeout = -1
	}

	n, err := unix.EpollWait(r.epfd, events[:], timeout)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return fmt.Errorf("epoll wait: %w", err)
	}

	for i := 0; i < n; i++ {
		ev := events[i]
		fd := uintptr(ev.Fd)

		val, ok := r.callbacks.Load(fd)
		if !ok {
			continue
		}

		var eventType FDEventType
		if ev.Events&unix.EPOLLIN != 0 {
			eventType |= EventRead
		}
		if ev.Events&unix.EPOLLOUT != 0 {
			eventType |= EventWrite
		}
		if ev.Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
			eventType |= EventError
		}

		cb, _ := val.(FDCallback)
		func() {
			defer func() { _ = recover() }()
			cb(fd, eventType)
		}()
	}

	return nil
}

// Close releases the epoll file descriptor.
func (r *epollReactor) Close() error {
	return unix.Close(r.epfd)
}
