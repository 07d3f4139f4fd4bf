// Package control
// Author: momentics <momentics@gmail.com>
//
// Reactor configuration, hot-reload, runtime metrics, and debug
// introspection for reactord. Sits above the reactor/messenger/negotiation
// packages, never on their hot path: config reload, metric snapshots, and
// probe dumps all run off the reactor thread, driven by reactord's signal
// loop rather than by anything inside a Reactor.
//
// Provides concurrent-safe state handling primitives including:
//   - ReactorConfig loading/defaults and a live ConfigStore snapshot of it
//   - SIGHUP-driven hot-reload hooks components register against
//   - A MetricsRegistry for reactord's config-reload and listener counters
//   - DebugProbes for a DumpRunningConnections-style state dump
//
// This package is cross-platform and build-tag-partitioned as needed.
package control
