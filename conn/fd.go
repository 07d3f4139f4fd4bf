// File: conn/fd.go
// Author: momentics <momentics@gmail.com>

package conn

import (
	"fmt"
	"net"
	"syscall"
)

// extractFD pulls the raw descriptor out of a net.Conn so it can be handed
// to the reactor's own poller. Every concrete type net.Dial/net.Listen
// ever return implements syscall.Conn.
func extractFD(nc net.Conn) (uintptr, error) {
	sc, ok := nc.(syscall.Conn)
	if !ok {
		return 0, fmt.Errorf("conn: %T does not expose a raw file descriptor", nc)
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return 0, err
	}
	var fd uintptr
	if err := raw.Control(func(f uintptr) { fd = f }); err != nil {
		return 0, err
	}
	return fd, nil
}
