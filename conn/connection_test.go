// File: conn/connection_test.go
// Author: momentics <momentics@gmail.com>

package conn_test

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/momentics/reactorcore/conn"
	"github.com/momentics/reactorcore/rpc"
	"github.com/momentics/reactorcore/status"
)

type fakeCall struct {
	mu      sync.Mutex
	id      rpc.ConnectionId
	done    chan struct{}
	outcome status.Status
}

func newFakeCall() *fakeCall { return &fakeCall{done: make(chan struct{})} }

func (c *fakeCall) ConnID() rpc.ConnectionId       { return c.id }
func (c *fakeCall) Timeout() (time.Duration, bool) { return 0, false }
func (c *fakeCall) SetFailed(s status.Status)      { c.finish(s) }
func (c *fakeCall) Transferred(s status.Status)    { c.finish(s) }

func (c *fakeCall) finish(s status.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.done:
		return
	default:
	}
	c.outcome = s
	close(c.done)
}

func (c *fakeCall) wait(t *testing.T) status.Status {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatal("call never completed")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

func TestInboundConnectionQueuesAndDrainsOutboundCalls(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	c := conn.NewInbound(server, conn.KindRedis, nil)
	if c.Direction() != rpc.Server {
		t.Fatalf("Direction() = %v, want Server", c.Direction())
	}
	if !c.Idle() {
		t.Fatal("freshly built connection should be idle")
	}

	call := newFakeCall()
	c.QueueOutboundCall(call)
	if c.Idle() {
		t.Fatal("connection with a queued call must not report idle")
	}
	c.OutboundQueued()

	if s := call.wait(t); !s.OK() {
		t.Fatalf("call outcome = %v, want OK", s)
	}
	if !c.Idle() {
		t.Fatal("connection should be idle again once the queue drains")
	}
}

func TestShutdownFailsQueuedCallsExactlyOnce(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	c := conn.NewInbound(server, conn.KindRedis, nil)
	call := newFakeCall()
	c.QueueOutboundCall(call)
	c.Shutdown(status.New(status.Aborted, "shutting down"))

	s := call.wait(t)
	if s.Code() != status.Aborted {
		t.Fatalf("call outcome = %v, want Aborted", s)
	}

	// A second Shutdown must not panic or double-close.
	c.Shutdown(status.New(status.Aborted, "second call"))
}

func TestShutdownMakesContextReadyToStop(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	c := conn.NewInbound(server, conn.KindRedis, nil)
	if c.Context().ReadyToStop() {
		t.Fatal("a fresh connection's context must not report ReadyToStop")
	}

	c.Shutdown(status.ShuttingDown(false))

	if !c.Context().ReadyToStop() {
		t.Fatal("Shutdown must leave the context reporting ReadyToStop once nothing is in flight")
	}
}

func TestShutdownWaitsForInFlightCallBeforeReadyToStop(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	c := conn.NewInbound(server, conn.KindRedis, nil)
	call := newFakeCall()
	c.QueueOutboundCall(call)

	if c.Context().ReadyToStop() {
		t.Fatal("a connection with an in-flight call must not report ReadyToStop before Shutdown")
	}

	c.Shutdown(status.ShuttingDown(false))

	if !c.Context().ReadyToStop() {
		t.Fatal("Shutdown must fail the queued call and leave the context ReadyToStop")
	}
	if s := call.wait(t); s.OK() {
		t.Fatalf("queued call outcome = %v, want failure from Shutdown", s)
	}
}

func TestDescribeIncludesDirectionAndRemote(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	defer server.Close()

	c := conn.NewInbound(server, conn.KindYB, nil)
	if got := c.Describe(); got == "" {
		t.Fatal("Describe() must not be empty")
	}
}
