// File: control/reactorconfig.go
// Author: momentics <momentics@gmail.com>
//
// ReactorConfig is the on-disk TOML shape for a messenger's tunables, in
// the manner of the upstream reactor's gflags (rpc_negotiation_timeout_ms,
// connection_keepalive_time, coarse_timer_granularity,
// num_connections_to_server, local_ip_for_outbound_sockets) but loaded as
// a single struct instead of scattered global flags.

package control

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// ReactorConfig mirrors the tunables a Messenger and its reactor pool need.
type ReactorConfig struct {
	Name                      string `toml:"name"`
	ListenAddress             string `toml:"listen_address"`
	NumReactors               int    `toml:"num_reactors"`
	NumNegotiationWorkers     int    `toml:"num_negotiation_workers"`
	NumConnectionsToServer    int    `toml:"num_connections_to_server"`
	RPCNegotiationTimeoutMs   int    `toml:"rpc_negotiation_timeout_ms"`
	ConnectionKeepaliveTimeMs int    `toml:"connection_keepalive_time_ms"`
	CoarseTimerGranularityMs  int    `toml:"coarse_timer_granularity_ms"`
	LocalIPForOutboundSockets string `toml:"local_ip_for_outbound_sockets"`
	ConnectionKind            string `toml:"connection_kind"`
}

// DefaultReactorConfig mirrors the upstream reactor's gflag defaults.
func DefaultReactorConfig() ReactorConfig {
	return ReactorConfig{
		Name:                      "reactorcore",
		ListenAddress:             "127.0.0.1:9100",
		NumReactors:               4,
		NumNegotiationWorkers:     0,
		NumConnectionsToServer:    8,
		RPCNegotiationTimeoutMs:   3000,
		ConnectionKeepaliveTimeMs: 65000,
		CoarseTimerGranularityMs:  1000,
		ConnectionKind:            "yb",
	}
}

// LoadReactorConfig decodes a TOML file at path over DefaultReactorConfig,
// so a config file only needs to name the values it wants to override.
func LoadReactorConfig(path string) (ReactorConfig, error) {
	cfg := DefaultReactorConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("control: decode reactor config %s: %w", path, err)
	}
	return cfg, nil
}

// Keepalive returns the configured keepalive as a time.Duration.
func (c ReactorConfig) Keepalive() time.Duration {
	return time.Duration(c.ConnectionKeepaliveTimeMs) * time.Millisecond
}

// CoarseTimerGranularity returns the configured scan interval as a
// time.Duration.
func (c ReactorConfig) CoarseTimerGranularity() time.Duration {
	return time.Duration(c.CoarseTimerGranularityMs) * time.Millisecond
}

// NegotiationTimeout returns the configured handshake budget as a
// time.Duration.
func (c ReactorConfig) NegotiationTimeout() time.Duration {
	return time.Duration(c.RPCNegotiationTimeoutMs) * time.Millisecond
}
