// File: reactor/testing_test.go
// Author: momentics <momentics@gmail.com>
//
// Shared fakes for the reactor package's own test files.

package reactor

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/reactorcore/rpc"
	"github.com/momentics/reactorcore/status"
)

type fakeContext struct {
	ready atomic.Bool
}

func (c *fakeContext) ReadyToStop() bool { return c.ready.Load() }

type fakeConn struct {
	mu           sync.Mutex
	remote       string
	direction    rpc.Direction
	ctx          *fakeContext
	shutdownWith []status.Status
	lastActivity time.Time
	idle         bool
	nonBlocking  bool
	negotiated   bool
	registered   int
	queued       []rpc.OutboundCall
	queuedKicks  int
	negotiateErr status.Status
}

func newFakeConn(remote string, dir rpc.Direction) *fakeConn {
	return &fakeConn{remote: remote, direction: dir, ctx: &fakeContext{}, lastActivity: time.Now(), idle: true}
}

func (c *fakeConn) Remote() string               { return c.remote }
func (c *fakeConn) Direction() rpc.Direction      { return c.direction }
func (c *fakeConn) Context() rpc.ConnectionContext { return c.ctx }

func (c *fakeConn) Shutdown(s status.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shutdownWith = append(c.shutdownWith, s)
}

func (c *fakeConn) Idle() bool { return c.idle }

func (c *fakeConn) LastActivityTime() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

func (c *fakeConn) SetNonBlocking(nb bool) error {
	c.nonBlocking = nb
	return nil
}

func (c *fakeConn) Negotiate() status.Status {
	c.negotiated = true
	return c.negotiateErr
}

func (c *fakeConn) MarkNegotiationComplete() {}

func (c *fakeConn) RegisterForReadiness() error {
	c.registered++
	return nil
}

func (c *fakeConn) QueueOutboundCall(call rpc.OutboundCall) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queued = append(c.queued, call)
}

func (c *fakeConn) OutboundQueued() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queuedKicks++
}

func (c *fakeConn) Describe() string { return c.remote }

type fakeCall struct {
	id       rpc.ConnectionId
	mu       sync.Mutex
	failed   *status.Status
	transferredWith *status.Status
}

func (c *fakeCall) ConnID() rpc.ConnectionId { return c.id }
func (c *fakeCall) Timeout() (time.Duration, bool) { return 0, false }

func (c *fakeCall) SetFailed(s status.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed = &s
}

func (c *fakeCall) Transferred(s status.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transferredWith = &s
}

func (c *fakeCall) failedStatus() (status.Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failed == nil {
		return status.Ok(), false
	}
	return *c.failed, true
}

type fakePool struct {
	closed atomic.Bool
}

func (p *fakePool) SubmitClosure(fn func()) status.Status {
	if p.closed.Load() {
		return status.New(status.IllegalState, "pool closed")
	}
	go fn()
	return status.Ok()
}

type fakeMessenger struct {
	pool         *fakePool
	nextConnFn   func(id rpc.ConnectionId) (rpc.Connection, status.Status)
	removedTasks []int64
	mu           sync.Mutex
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{pool: &fakePool{}}
}

func (m *fakeMessenger) Name() string                       { return "test-messenger" }
func (m *fakeMessenger) NegotiationPool() rpc.NegotiationPool { return m.pool }
func (m *fakeMessenger) OutboundBindAddress(ipv6 bool) string { return "" }

func (m *fakeMessenger) RemoveScheduledTask(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removedTasks = append(m.removedTasks, id)
}

func (m *fakeMessenger) NewOutboundConnection(id rpc.ConnectionId) (rpc.Connection, status.Status) {
	if m.nextConnFn != nil {
		return m.nextConnFn(id)
	}
	return newFakeConn(id.Remote, rpc.Client), status.Ok()
}

func newTestReactor(msgr rpc.Messenger) *Reactor {
	r := New("test", msgr, nil, Config{CoarseTimerGranularity: 20 * time.Millisecond})
	r.Init()
	return r
}
