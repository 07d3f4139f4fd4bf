// File: control/config_test.go
// Author: momentics <momentics@gmail.com>

package control_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/momentics/reactorcore/control"
)

func TestConfigStoreSetConfigMergesAndSnapshots(t *testing.T) {
	cs := control.NewConfigStore()
	cs.SetConfig(map[string]any{"a": 1})
	cs.SetConfig(map[string]any{"b": 2})

	snap := cs.GetSnapshot()
	if snap["a"] != 1 || snap["b"] != 2 {
		t.Fatalf("snapshot = %+v, want a=1 b=2", snap)
	}
}

func TestConfigStoreOnReloadFiresOnEverySetConfig(t *testing.T) {
	cs := control.NewConfigStore()
	var calls atomic.Int32
	cs.OnReload(func() { calls.Add(1) })

	cs.SetConfig(map[string]any{"x": "y"})
	cs.SetConfig(map[string]any{"x": "y"})

	deadline := time.Now().Add(time.Second)
	for calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("reload listener fired %d times, want 2", got)
	}
}

func TestTriggerHotReloadSyncRunsHooksBeforeReturning(t *testing.T) {
	var ran bool
	control.RegisterReloadHook(func() { ran = true })
	control.TriggerHotReloadSync()
	if !ran {
		t.Fatal("TriggerHotReloadSync returned before its hook ran")
	}
}

func TestConfigStoreAcceptsKnownReactorConfigKeys(t *testing.T) {
	cs := control.NewConfigStore()
	cs.SetConfig(map[string]any{
		control.ConfigKeyListenAddress:  "127.0.0.1:9100",
		control.ConfigKeyConnectionKind: "yb",
		control.ConfigKeyNumReactors:    4,
	})

	snap := cs.GetSnapshot()
	if snap[control.ConfigKeyListenAddress] != "127.0.0.1:9100" {
		t.Fatalf("snapshot[%s] = %v, want 127.0.0.1:9100", control.ConfigKeyListenAddress, snap[control.ConfigKeyListenAddress])
	}
	if snap[control.ConfigKeyConnectionKind] != "yb" {
		t.Fatalf("snapshot[%s] = %v, want yb", control.ConfigKeyConnectionKind, snap[control.ConfigKeyConnectionKind])
	}
	if snap[control.ConfigKeyNumReactors] != 4 {
		t.Fatalf("snapshot[%s] = %v, want 4", control.ConfigKeyNumReactors, snap[control.ConfigKeyNumReactors])
	}
}

func TestMetricsRegistryIncrementAccumulates(t *testing.T) {
	mr := control.NewMetricsRegistry()
	if got := mr.Increment("config.reloads", 1); got != 1 {
		t.Fatalf("first Increment = %d, want 1", got)
	}
	if got := mr.Increment("config.reloads", 1); got != 2 {
		t.Fatalf("second Increment = %d, want 2", got)
	}
	snap := mr.GetSnapshot()
	if snap["config.reloads"] != int64(2) {
		t.Fatalf("snapshot[config.reloads] = %v, want 2", snap["config.reloads"])
	}
}
