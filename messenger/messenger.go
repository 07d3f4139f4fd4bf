// File: messenger/messenger.go
// Author: momentics <momentics@gmail.com>
//
// Messenger owns a fixed pool of reactors, a shared negotiation pool, and
// the TCP listener that feeds accepted sockets to them. It hashes each new
// connection's remote address (host and port) across the pool so a given
// remote address always lands on the same reactor, in the manner of the
// library's facade.HioloadWS
// wiring a fixed worker pool behind one Config-driven entry point.

package messenger

import (
	"fmt"
	"hash/fnv"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/momentics/reactorcore/conn"
	"github.com/momentics/reactorcore/negotiation"
	"github.com/momentics/reactorcore/poll"
	"github.com/momentics/reactorcore/reactor"
	"github.com/momentics/reactorcore/rpc"
	"github.com/momentics/reactorcore/status"
)

// Config carries every knob a Messenger and the reactors it owns need.
type Config struct {
	Name string
	// NumReactors is the size of the fixed reactor pool. Defaults to 1.
	NumReactors int
	// NumNegotiationWorkers sizes the shared negotiation pool. Defaults to
	// runtime.NumCPU() inside negotiation.New when <= 0.
	NumNegotiationWorkers int
	// Keepalive bounds SERVER connection idle time; see reactor.Config.
	Keepalive time.Duration
	// CoarseTimerGranularity is how often each reactor's idle scan and
	// shutdown-readiness check run.
	CoarseTimerGranularity time.Duration
	// ConnectionKind selects the wire protocol new connections speak.
	ConnectionKind conn.Kind
	// DialTimeout bounds how long an outbound connect() may take.
	DialTimeout time.Duration
	// LocalIPForOutboundSockets is the address new outbound sockets bind
	// to, or "" to let the kernel choose.
	LocalIPForOutboundSockets string
}

func (c Config) withDefaults() Config {
	if c.NumReactors <= 0 {
		c.NumReactors = 1
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.Name == "" {
		c.Name = "messenger"
	}
	return c
}

// Messenger implements rpc.Messenger and owns the resources every reactor
// in its pool shares.
type Messenger struct {
	cfg      Config
	pool     []*reactor.Reactor
	negPool  *negotiation.Pool
	listener net.Listener

	tasksMu      sync.Mutex
	scheduledIDs map[int64]*reactor.DelayedTask
	nextTaskID   int64
}

// New builds a Messenger and its reactor pool but does not start listening.
func New(cfg Config) *Messenger {
	cfg = cfg.withDefaults()
	m := &Messenger{
		cfg:          cfg,
		negPool:      negotiation.New(cfg.NumNegotiationWorkers),
		scheduledIDs: make(map[int64]*reactor.DelayedTask),
	}
	m.pool = make([]*reactor.Reactor, cfg.NumReactors)
	for i := range m.pool {
		p, err := poll.NewPoller()
		if err != nil {
			// Platforms without a native poller (the reactor_stub.go
			// build) still run: connections simply never see readiness
			// callbacks fire, which is fine for tests that drive I/O
			// directly instead of through the event loop.
			p = nil
		}
		m.pool[i] = reactor.New(fmt.Sprintf("%s-reactor-%d", cfg.Name, i), m, p, reactor.Config{
			Keepalive:              cfg.Keepalive,
			CoarseTimerGranularity: cfg.CoarseTimerGranularity,
		})
	}
	return m
}

// Init starts every reactor in the pool concurrently.
func (m *Messenger) Init() error {
	var g errgroup.Group
	for _, r := range m.pool {
		r := r
		g.Go(func() error {
			r.Init()
			return nil
		})
	}
	return g.Wait()
}

// ListenAndServe starts accepting inbound connections on addr, dispatching
// each to a pool reactor chosen by hashing its remote address. Blocks
// until the listener is closed.
func (m *Messenger) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("messenger: listen %s: %w", addr, err)
	}
	m.listener = ln
	for {
		nc, err := ln.Accept()
		if err != nil {
			return err
		}
		r := m.pickReactor(nc.RemoteAddr().String())
		c := conn.NewInbound(nc, m.cfg.ConnectionKind, r)
		r.AcceptConnection(c)
	}
}

// pickReactor hashes remote across the pool so the same host:port string
// always lands on the same reactor. Inbound connections from one host
// usually differ in source port and so may land on different reactors.
func (m *Messenger) pickReactor(remote string) *reactor.Reactor {
	h := fnv.New32a()
	_, _ = h.Write([]byte(remote))
	return m.pool[h.Sum32()%uint32(len(m.pool))]
}

// Name implements rpc.Messenger.
func (m *Messenger) Name() string { return m.cfg.Name }

// NegotiationPool implements rpc.Messenger.
func (m *Messenger) NegotiationPool() rpc.NegotiationPool { return m.negPool }

// NegotiationStats reports the negotiation pool's task counters, exposed
// through control.DebugProbes for operational visibility
// into a component the rpc.NegotiationPool interface otherwise hides.
func (m *Messenger) NegotiationStats() map[string]int64 {
	return m.negPool.Stats()
}

// OutboundBindAddress implements rpc.Messenger.
func (m *Messenger) OutboundBindAddress(ipv6 bool) string {
	return m.cfg.LocalIPForOutboundSockets
}

// RemoveScheduledTask implements rpc.Messenger.
func (m *Messenger) RemoveScheduledTask(id int64) {
	m.tasksMu.Lock()
	defer m.tasksMu.Unlock()
	delete(m.scheduledIDs, id)
}

// ScheduleOnReactor delegates a delayed task to reactor index idx modulo
// pool size, tracking it under a fresh id for RemoveScheduledTask.
func (m *Messenger) ScheduleOnReactor(idx int, fn reactor.DelayedTaskFunc, when time.Duration) *reactor.DelayedTask {
	m.tasksMu.Lock()
	m.nextTaskID++
	id := m.nextTaskID
	m.tasksMu.Unlock()

	r := m.pool[idx%len(m.pool)]
	dt := r.ScheduleDelayedTask(fn, when, id)

	m.tasksMu.Lock()
	m.scheduledIDs[id] = dt
	m.tasksMu.Unlock()
	return dt
}

// NewOutboundConnection implements rpc.Messenger.
func (m *Messenger) NewOutboundConnection(id rpc.ConnectionId) (rpc.Connection, status.Status) {
	r := m.pickReactor(id.Remote)
	return conn.NewOutbound(id, m.cfg.ConnectionKind, r, m.cfg.DialTimeout), status.Ok()
}

// Shutdown tears down every reactor and closes the listener. Blocks until
// every reactor has fully drained.
func (m *Messenger) Shutdown(reason status.Status) {
	if m.listener != nil {
		_ = m.listener.Close()
	}
	var wg sync.WaitGroup
	wg.Add(len(m.pool))
	for _, r := range m.pool {
		r := r
		go func() {
			defer wg.Done()
			r.Shutdown(reason)
		}()
	}
	wg.Wait()
	m.negPool.Close()
}
