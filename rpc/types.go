// File: rpc/types.go
// Author: momentics <momentics@gmail.com>
//
// Collaborator interfaces the reactor core depends on but does not
// implement: connections, their protocol contexts, outbound calls, the
// negotiation pool, and the thin slice of the messenger the reactor needs.
// Concrete implementations live in the conn and messenger packages; keeping
// the contracts here lets reactor depend on shapes, not concretions.

package rpc

import (
	"time"

	"github.com/momentics/reactorcore/status"
)

// Direction records which side opened a Connection.
type Direction int

const (
	// Server connections were accepted from a listening socket.
	Server Direction = iota
	// Client connections were dialed by this process.
	Client
)

func (d Direction) String() string {
	if d == Client {
		return "CLIENT"
	}
	return "SERVER"
}

// ConnectionContext is the protocol-specific handshake and framing state
// plugged into a generic Connection. The reactor only ever calls
// ReadyToStop on it; everything else is between the context and its wire
// codec.
type ConnectionContext interface {
	// ReadyToStop reports whether the context has finished draining
	// in-flight work after Shutdown, so the reactor may forget the
	// connection for good.
	ReadyToStop() bool
}

// OutboundCall is a single RPC awaiting assignment to a connection. The
// reactor never inspects the call's payload; it only routes it and reports
// terminal outcomes.
type OutboundCall interface {
	// ConnID identifies which outbound connection this call belongs on.
	ConnID() ConnectionId
	// Timeout returns the call's deadline budget and whether one was set
	// at all; an unset timeout means "no deadline" to the caller. The
	// reactor does not read it, and sets no negotiation deadline of its
	// own.
	Timeout() (d time.Duration, set bool)
	// SetFailed finalizes the call before it ever reached a connection.
	SetFailed(s status.Status)
	// Transferred finalizes the call after a connection accepted or
	// rejected it. Delivery success is reported as status.Ok().
	Transferred(s status.Status)
}

// Connection is a single non-blocking socket wrapped in reactor lifecycle
// bookkeeping. Everything on this interface may only be called from the
// owning reactor's thread, except QueueOutboundCall/OutboundQueued which
// producers use to hand off work and Idle/LastActivity which the idle
// scanner reads.
type Connection interface {
	Remote() string
	Direction() Direction
	Context() ConnectionContext

	// Shutdown tears down the socket. Idempotent from the connection's own
	// point of view: a second call must not panic or double-close.
	Shutdown(s status.Status)

	// Idle reports whether the connection currently has no in-flight
	// activity and is therefore a keepalive-reaping candidate.
	Idle() bool
	LastActivityTime() time.Time

	// SetNonBlocking restores non-blocking mode after a (possibly
	// blocking) negotiation exchange.
	SetNonBlocking(nonBlocking bool) error
	// Negotiate runs the (possibly blocking) protocol handshake. Called
	// from a negotiation pool worker, never the reactor thread.
	Negotiate() status.Status
	// MarkNegotiationComplete flips the connection into steady-state.
	MarkNegotiationComplete()
	// RegisterForReadiness admits the connection to the event loop's
	// poller once negotiation has completed.
	RegisterForReadiness() error

	// QueueOutboundCall appends a call to this connection's write queue.
	// Producer-side; safe from any thread.
	QueueOutboundCall(call OutboundCall)
	// OutboundQueued is the single per-flush kick telling the connection
	// to notice its queue grew and start writing.
	OutboundQueued()

	// Describe returns a short human-readable identity for logging.
	Describe() string
}

// NegotiationPool runs the (possibly blocking) per-protocol handshake off
// the reactor thread.
type NegotiationPool interface {
	// SubmitClosure schedules fn for execution on a pool worker. It
	// returns IllegalState if the pool is shutting down.
	SubmitClosure(fn func()) status.Status
}

// Messenger is the thin slice of the owning messenger the reactor needs:
// enough to build new connections and clean up after cancelled timers. The
// messenger, not the reactor, owns configuration and the reactor pool.
type Messenger interface {
	Name() string
	NegotiationPool() NegotiationPool
	// OutboundBindAddress returns the local address new outbound sockets
	// of the given family should bind to, or "" to skip binding.
	OutboundBindAddress(ipv6 bool) string
	// RemoveScheduledTask forgets a delayed task the messenger was
	// tracking by id, called once the task's timer has fired. A direct
	// DelayedTask.Abort does not call it.
	RemoveScheduledTask(id int64)
	// NewOutboundConnection constructs (but does not yet dial) a client
	// Connection for id. The reactor calls Negotiate on it later, off its
	// own thread, which is where the actual connect() and handshake
	// happen; construction here must be cheap and non-blocking so it can
	// run directly on the reactor thread. Which slot index id names is
	// decided by the caller, typically a round-robin proxy in front of
	// num_connections_to_server sockets to the same destination.
	NewOutboundConnection(id ConnectionId) (Connection, status.Status)
}
