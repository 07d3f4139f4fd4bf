// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Live snapshot of the running ReactorConfig, published under these known
// keys so debug probes and log lines don't have to know about
// ReactorConfig's TOML field names directly.

package control

import (
	"sync"
)

// Well-known keys reactord publishes into a ConfigStore on load and on
// every SIGHUP reload. SetConfig accepts any key, but these are the ones
// GetSnapshot's callers (debug probes, reload log lines) can rely on.
const (
	ConfigKeyListenAddress  = "listen_address"
	ConfigKeyConnectionKind = "connection_kind"
	ConfigKeyNumReactors    = "num_reactors"
)

// ConfigStore is a dynamic key/value map with atomic snapshot and listener
// support, holding the reactor config values reactord republishes on
// every hot-reload.
type ConfigStore struct {
	mu        sync.RWMutex
	config    map[string]any
	listeners []func()
}

// NewConfigStore initializes a new config store with empty data.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		config:    make(map[string]any),
		listeners: make([]func(), 0),
	}
}

// GetSnapshot returns a copy of the published config values (see the
// ConfigKey* constants above for the keys reactord always sets).
func (cs *ConfigStore) GetSnapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	snapshot := make(map[string]any, len(cs.config))
	for k, v := range cs.config {
		snapshot[k] = v
	}
	return snapshot
}

// SetConfig merges newCfg into the store and fires every registered
// reload listener. Called once at startup with the loaded ReactorConfig's
// values and again on every SIGHUP that successfully reloads the file.
func (cs *ConfigStore) SetConfig(newCfg map[string]any) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for k, v := range newCfg {
		cs.config[k] = v
	}
	cs.dispatchReload()
}

// OnReload registers fn to run every time SetConfig publishes a new
// snapshot, e.g. reactord's metrics.Set("config.snapshot_at", ...) hook.
func (cs *ConfigStore) OnReload(fn func()) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}

// dispatchReload runs every OnReload listener on its own goroutine so a
// slow listener never blocks the SIGHUP handler that called SetConfig.
func (cs *ConfigStore) dispatchReload() {
	for _, fn := range cs.listeners {
		go fn()
	}
}
