// File: control/reactorconfig_test.go
// Author: momentics <momentics@gmail.com>

package control_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/momentics/reactorcore/control"
)

func TestLoadReactorConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reactor.toml")
	body := `
num_reactors = 8
connection_keepalive_time_ms = 5000
connection_kind = "redis"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := control.LoadReactorConfig(path)
	if err != nil {
		t.Fatalf("LoadReactorConfig: %v", err)
	}
	if cfg.NumReactors != 8 {
		t.Errorf("NumReactors = %d, want 8", cfg.NumReactors)
	}
	if cfg.Keepalive() != 5*time.Second {
		t.Errorf("Keepalive() = %v, want 5s", cfg.Keepalive())
	}
	if cfg.ConnectionKind != "redis" {
		t.Errorf("ConnectionKind = %q, want redis", cfg.ConnectionKind)
	}
	// Values not present in the file fall back to defaults.
	if cfg.ListenAddress != control.DefaultReactorConfig().ListenAddress {
		t.Errorf("ListenAddress = %q, want default preserved", cfg.ListenAddress)
	}
}

func TestLoadReactorConfigMissingFile(t *testing.T) {
	if _, err := control.LoadReactorConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected an error loading a nonexistent config file")
	}
}
