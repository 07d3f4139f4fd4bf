// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics collector for reactord: the config-reload counter
// reactord's reload hook bumps, the latest config snapshot, and the
// listener's stop error, all published under one snapshot map. Reactor
// and negotiation-pool counters are not recorded here; the pool's stats
// are reachable through the "negotiation.stats" debug probe instead.

package control

import (
	"sync"
	"time"
)

// MetricsRegistry holds mutable and read-only metrics keyed by dotted
// names ("config.reloads", "listener.error", ...).
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]any
	updated time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		metrics: make(map[string]any),
	}
}

// Set sets or updates a metric key.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// Increment adds delta to key's current int64 value (0 if unset or not an
// int64) and stores the result, returning it. Used for counters like
// "config.reloads" that accumulate across the process lifetime instead of
// replacing on every call.
func (mr *MetricsRegistry) Increment(key string, delta int64) int64 {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	n, _ := mr.metrics[key].(int64)
	n += delta
	mr.metrics[key] = n
	mr.updated = time.Now()
	return n
}

// GetSnapshot returns the latest metrics.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.metrics))
	for k, v := range mr.metrics {
		out[k] = v
	}
	return out
}
