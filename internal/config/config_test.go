package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Store.Driver != "memory" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Confirm.TTL != 5*time.Minute {
		t.Errorf("Confirm.TTL = %v", cfg.Confirm.TTL)
	}
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "config.yaml")
	if err := WriteDefault(path, false); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}
	if err := WriteDefault(path, false); err == nil {
		t.Error("expected error when file exists")
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := DefaultConfig()
	if cfg.Auth.SessionTTL != want.Auth.SessionTTL || cfg.Auth.RetryBaseDelay != want.Auth.RetryBaseDelay {
		t.Errorf("durations not preserved: %+v", cfg.Auth)
	}
	if len(cfg.Server.AllowedOrigins) != len(want.Server.AllowedOrigins) {
		t.Errorf("AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TASKHUB_SERVER_PORT", "9090")
	t.Setenv("TASKHUB_STORE_DRIVER", "sqlite")
	t.Setenv("TASKHUB_STORE_DSN", "data/taskhub.db")
	t.Setenv("TASKHUB_CONFIRM_TTL", "30s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.DSN != "data/taskhub.db" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Confirm.TTL != 30*time.Second {
		t.Errorf("Confirm.TTL = %v", cfg.Confirm.TTL)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Driver = "postgres"
	if err := cfg.Validate(); err == nil {
		t.Error("postgres without dsn must fail")
	}

	cfg = DefaultConfig()
	cfg.Store.Driver = "mongo"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown driver must fail")
	}
}
