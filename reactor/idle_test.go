// File: reactor/idle_test.go
// Author: momentics <momentics@gmail.com>

package reactor

import (
	"testing"
	"time"

	"github.com/momentics/reactorcore/status"
)

func TestScanIdleConnectionsStrictlyGreaterThanKeepalive(t *testing.T) {
	r := New("test", newFakeMessenger(), nil, Config{Keepalive: 100 * time.Millisecond, CoarseTimerGranularity: time.Hour})
	r.Init()
	defer r.Shutdown(status.ShuttingDown(false))

	exactly := newFakeConn("10.0.0.1:1", 0)
	exactly.lastActivity = time.Now().Add(-100 * time.Millisecond)
	over := newFakeConn("10.0.0.1:2", 0)
	over.lastActivity = time.Now().Add(-150 * time.Millisecond)
	under := newFakeConn("10.0.0.1:3", 0)
	under.lastActivity = time.Now().Add(-50 * time.Millisecond)
	busy := newFakeConn("10.0.0.1:4", 0)
	busy.lastActivity = time.Now().Add(-time.Hour)
	busy.idle = false

	r.RunOnReactorThread(func(rr *Reactor) status.Status {
		rr.serverConns = append(rr.serverConns, exactly, over, under, busy)
		rr.scanIdleConnections()
		return status.Ok()
	})

	if len(exactly.shutdownWith) != 0 {
		t.Error("connection idle for exactly the keepalive duration must not be reaped (strict >)")
	}
	if len(over.shutdownWith) != 1 {
		t.Error("connection idle beyond the keepalive duration must be reaped")
	}
	if len(under.shutdownWith) != 0 {
		t.Error("connection idle less than the keepalive duration must not be reaped")
	}
	if len(busy.shutdownWith) != 0 {
		t.Error("a non-idle connection must never be reaped regardless of LastActivityTime")
	}
}

func TestScanIdleConnectionsDisabledWhenKeepaliveZero(t *testing.T) {
	r := New("test", newFakeMessenger(), nil, Config{Keepalive: 0, CoarseTimerGranularity: time.Hour})
	r.Init()
	defer r.Shutdown(status.ShuttingDown(false))

	stale := newFakeConn("10.0.0.5:1", 0)
	stale.lastActivity = time.Now().Add(-24 * time.Hour)

	r.RunOnReactorThread(func(rr *Reactor) status.Status {
		rr.serverConns = append(rr.serverConns, stale)
		rr.scanIdleConnections()
		return status.Ok()
	})

	if len(stale.shutdownWith) != 0 {
		t.Error("keepalive of zero must disable idle reaping entirely")
	}
}
