package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Store: StoreConfig{
			Driver:    "memory",
			Namespace: "default",
			Migrate:   true,
		},
		Auth: AuthConfig{
			SessionSecret:  "dev-session-secret",
			SessionTTL:     24 * time.Hour,
			RetryAttempts:  3,
			RetryBaseDelay: 200 * time.Millisecond,
		},
		Confirm: ConfirmConfig{
			TTL: 5 * time.Minute,
		},
		Telegram: TelegramConfig{
			ChatIDs: map[string]int64{},
		},
	}
}

// WriteDefault writes the default configuration to path. An existing file is
// left untouched unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	out, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	header := []byte("# taskhub configuration; every key can be overridden with TASKHUB_<SECTION>_<KEY>\n")
	return os.WriteFile(path, append(header, out...), 0o644)
}
