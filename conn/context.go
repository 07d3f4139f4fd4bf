// File: conn/context.go
// Author: momentics <momentics@gmail.com>
//
// ConnectionContext variants: the reactor only ever calls ReadyToStop on
// these, but each protocol needs its own handshake and in-flight-request
// bookkeeping, so the reactor treats them as an opaque rpc.ConnectionContext
// and this package fills in the concrete behavior per protocol.

package conn

import (
	"bufio"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/momentics/reactorcore/rpc"
	"github.com/momentics/reactorcore/status"
)

// Handshaker is implemented by contexts whose protocol requires an
// initial exchange before steady-state framing begins. Connection.Negotiate
// type-asserts for this and skips straight to ready if a context doesn't
// need one.
type Handshaker interface {
	Handshake(conn net.Conn, dir rpc.Direction) status.Status
}

// Kind names the wire protocol a connection speaks, mirroring the
// upstream reactor's per-service MakeNewConnectionContext switch.
type Kind int

const (
	// KindYB is a length-prefixed protobuf framing with a fixed magic
	// preamble, the connection type this transport was originally built
	// around.
	KindYB Kind = iota
	// KindRedis speaks RESP inline commands; no separate handshake.
	KindRedis
	// KindCQL speaks the Cassandra native protocol's STARTUP/READY
	// exchange before any query may be sent.
	KindCQL
)

func (k Kind) String() string {
	switch k {
	case KindYB:
		return "yb"
	case KindRedis:
		return "redis"
	case KindCQL:
		return "cql"
	default:
		return "unknown"
	}
}

// NewConnectionContext builds the protocol context for kind, in the manner
// of the upstream reactor's per-service context factory.
func NewConnectionContext(kind Kind) rpc.ConnectionContext {
	switch kind {
	case KindYB:
		return &ybContext{}
	case KindCQL:
		return &cqlContext{}
	default:
		return &redisContext{}
	}
}

// drainState is the shared in-flight/shutdown bookkeeping behind every
// context's ReadyToStop. Connection.Shutdown calls markShuttingDown once,
// and Connection bumps/drops the in-flight count around each queued call
// through the trackInFlight/untrackInFlight interfaces below, so
// ReadyToStop only reports true once shutdown has actually begun and the
// last call queued before it has finished draining.
type drainState struct {
	inFlight   atomic.Int64
	shutdownAt atomic.Bool
}

// ReadyToStop implements rpc.ConnectionContext.
func (d *drainState) ReadyToStop() bool {
	return d.shutdownAt.Load() && d.inFlight.Load() == 0
}

// markShuttingDown implements the contextShutdowner interface that
// Connection.Shutdown type-asserts for.
func (d *drainState) markShuttingDown() { d.shutdownAt.Store(true) }

func (d *drainState) trackInFlight()   { d.inFlight.Add(1) }
func (d *drainState) untrackInFlight() { d.inFlight.Add(-1) }

// contextShutdowner is implemented by every context in this package;
// Connection.Shutdown type-asserts for it so it can tell the context
// draining has begun.
type contextShutdowner interface {
	markShuttingDown()
}

// contextTracker is implemented by every context in this package;
// Connection bumps and drops the count as calls are queued and drained so
// ReadyToStop can wait for the last one.
type contextTracker interface {
	trackInFlight()
	untrackInFlight()
}

var ybPreamble = [4]byte{'Y', 'B', 0x01, 0x00}

// ybContext implements the length-prefixed handshake: each side writes a
// 4-byte magic preamble before any framed message may follow.
type ybContext struct {
	drainState
}

func (c *ybContext) Handshake(nc net.Conn, dir rpc.Direction) status.Status {
	if dir == rpc.Client {
		if _, err := nc.Write(ybPreamble[:]); err != nil {
			return status.Newf(status.NetworkError, "write yb preamble: %v", err)
		}
		var reply [4]byte
		if _, err := readFull(nc, reply[:]); err != nil {
			return status.Newf(status.NetworkError, "read yb preamble reply: %v", err)
		}
		if reply != ybPreamble {
			return status.New(status.NetworkError, "unexpected yb preamble from server")
		}
		return status.Ok()
	}
	var hello [4]byte
	if _, err := readFull(nc, hello[:]); err != nil {
		return status.Newf(status.NetworkError, "read yb preamble: %v", err)
	}
	if hello != ybPreamble {
		return status.New(status.NetworkError, "unrecognized yb preamble from client")
	}
	if _, err := nc.Write(ybPreamble[:]); err != nil {
		return status.Newf(status.NetworkError, "write yb preamble reply: %v", err)
	}
	return status.Ok()
}

func readFull(nc net.Conn, buf []byte) (int, error) {
	r := bufio.NewReader(nc)
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// redisContext speaks RESP with no handshake; every accepted socket is
// immediately ready to serve commands.
type redisContext struct {
	drainState
}

// cqlContext models the STARTUP/READY exchange; ReadyToStop additionally
// requires the STARTUP round trip to have completed at least once, since a
// socket stuck mid-handshake at shutdown time has nothing in flight to
// drain but also never became usable.
type cqlContext struct {
	drainState
	started atomic.Bool
}

func (c *cqlContext) ReadyToStop() bool {
	return c.drainState.ReadyToStop() && c.started.Load()
}

func (c *cqlContext) Handshake(nc net.Conn, dir rpc.Direction) status.Status {
	if dir == rpc.Client {
		if _, err := fmt.Fprint(nc, "STARTUP\n"); err != nil {
			return status.Newf(status.NetworkError, "cql STARTUP: %v", err)
		}
		line, err := bufio.NewReader(nc).ReadString('\n')
		if err != nil {
			return status.Newf(status.NetworkError, "cql READY: %v", err)
		}
		if line != "READY\n" {
			return status.Newf(status.NetworkError, "cql handshake: unexpected reply %q", line)
		}
		c.started.Store(true)
		return status.Ok()
	}
	line, err := bufio.NewReader(nc).ReadString('\n')
	if err != nil {
		return status.Newf(status.NetworkError, "cql STARTUP: %v", err)
	}
	if line != "STARTUP\n" {
		return status.Newf(status.NetworkError, "cql handshake: unexpected request %q", line)
	}
	if _, err := fmt.Fprint(nc, "READY\n"); err != nil {
		return status.Newf(status.NetworkError, "cql READY: %v", err)
	}
	c.started.Store(true)
	return status.Ok()
}
