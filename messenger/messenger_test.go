// File: messenger/messenger_test.go
// Author: momentics <momentics@gmail.com>

package messenger_test

import (
	"net"
	"testing"
	"time"

	"github.com/momentics/reactorcore/conn"
	"github.com/momentics/reactorcore/messenger"
	"github.com/momentics/reactorcore/status"
)

func TestMessengerAcceptsAndDrainsInboundConnection(t *testing.T) {
	m := messenger.New(messenger.Config{
		Name:                   "test",
		NumReactors:            2,
		NumNegotiationWorkers:  2,
		CoarseTimerGranularity: 20 * time.Millisecond,
		ConnectionKind:         conn.KindRedis,
	})
	if err := m.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer m.Shutdown(status.ShuttingDown(false))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	serveErr := make(chan error, 1)
	go func() { serveErr <- m.ListenAndServe(addr) }()
	time.Sleep(30 * time.Millisecond)

	c, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	time.Sleep(50 * time.Millisecond)
}
