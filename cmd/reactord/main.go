// File: cmd/reactord/main.go
// Author: momentics <momentics@gmail.com>
//
// reactord loads a ReactorConfig, starts a Messenger's reactor pool, and
// serves inbound connections until a signal asks it to drain and stop.

package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "go.uber.org/automaxprocs"

	"github.com/momentics/reactorcore/conn"
	"github.com/momentics/reactorcore/control"
	"github.com/momentics/reactorcore/messenger"
	"github.com/momentics/reactorcore/status"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML reactor config file; defaults are used if omitted")
	flag.Parse()

	cfg := control.DefaultReactorConfig()
	if *configPath != "" {
		loaded, err := control.LoadReactorConfig(*configPath)
		if err != nil {
			log.Fatalf("reactord: %v", err)
		}
		cfg = loaded
	}

	kind := conn.KindYB
	switch cfg.ConnectionKind {
	case "redis":
		kind = conn.KindRedis
	case "cql":
		kind = conn.KindCQL
	}

	debug := control.NewDebugProbes()
	control.RegisterPlatformProbes(debug)
	metrics := control.NewMetricsRegistry()

	store := control.NewConfigStore()
	store.OnReload(func() { metrics.Set("config.snapshot_at", store.GetSnapshot()) })
	store.SetConfig(map[string]any{
		control.ConfigKeyListenAddress:  cfg.ListenAddress,
		control.ConfigKeyConnectionKind: cfg.ConnectionKind,
		control.ConfigKeyNumReactors:    cfg.NumReactors,
	})
	debug.RegisterProbe("config.snapshot", func() any { return store.GetSnapshot() })
	control.RegisterReloadHook(func() {
		metrics.Increment("config.reloads", 1)
		log.Printf("reactord: config reloaded: %v", store.GetSnapshot())
	})

	m := messenger.New(messenger.Config{
		Name:                      cfg.Name,
		NumReactors:               cfg.NumReactors,
		NumNegotiationWorkers:     cfg.NumNegotiationWorkers,
		Keepalive:                 cfg.Keepalive(),
		CoarseTimerGranularity:    cfg.CoarseTimerGranularity(),
		ConnectionKind:            kind,
		LocalIPForOutboundSockets: cfg.LocalIPForOutboundSockets,
	})
	debug.RegisterProbe("messenger.name", func() any { return m.Name() })
	debug.RegisterProbe("negotiation.stats", func() any { return m.NegotiationStats() })

	if err := m.Init(); err != nil {
		log.Fatalf("reactord: init: %v", err)
	}

	go func() {
		if err := m.ListenAndServe(cfg.ListenAddress); err != nil {
			metrics.Set("listener.error", err.Error())
			log.Printf("reactord: listener stopped: %v", err)
		}
	}()
	log.Printf("reactord: %s listening on %s (%s, %d reactors)", cfg.Name, cfg.ListenAddress, cfg.ConnectionKind, cfg.NumReactors)

	reloadCh := make(chan os.Signal, 1)
	signal.Notify(reloadCh, syscall.SIGHUP)
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-reloadCh:
			if *configPath == "" {
				log.Printf("reactord: SIGHUP received but no -config was given, nothing to reload")
				continue
			}
			reloaded, err := control.LoadReactorConfig(*configPath)
			if err != nil {
				log.Printf("reactord: reload failed: %v", err)
				continue
			}
			store.SetConfig(map[string]any{
				control.ConfigKeyListenAddress:  reloaded.ListenAddress,
				control.ConfigKeyConnectionKind: reloaded.ConnectionKind,
				control.ConfigKeyNumReactors:    reloaded.NumReactors,
			})
			control.TriggerHotReloadSync()
		case <-stopCh:
			log.Printf("reactord: draining connections")
			m.Shutdown(status.ShuttingDown(false))
			log.Printf("reactord: stopped")
			return
		}
	}
}
