package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultPath = "config/config.yaml"
	envPrefix   = "TASKHUB"
)

type ServerConfig struct {
	Port           int      `mapstructure:"port" yaml:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

type StoreConfig struct {
	Driver    string `mapstructure:"driver" yaml:"driver"` // memory | postgres | sqlite
	DSN       string `mapstructure:"dsn" yaml:"dsn"`
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
	Migrate   bool   `mapstructure:"migrate" yaml:"migrate"`
}

type AuthConfig struct {
	SessionSecret     string        `mapstructure:"session_secret" yaml:"session_secret"`
	CustomTokenSecret string        `mapstructure:"custom_token_secret" yaml:"custom_token_secret"`
	SessionTTL        time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`
	RetryAttempts     int           `mapstructure:"retry_attempts" yaml:"retry_attempts"`
	RetryBaseDelay    time.Duration `mapstructure:"retry_base_delay" yaml:"retry_base_delay"`
}

type ConfirmConfig struct {
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token" yaml:"bot_token"`
	// identity -> telegram chat id
	ChatIDs map[string]int64 `mapstructure:"chat_ids" yaml:"chat_ids"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
	Auth     AuthConfig     `mapstructure:"auth" yaml:"auth"`
	Confirm  ConfirmConfig  `mapstructure:"confirm" yaml:"confirm"`
	Telegram TelegramConfig `mapstructure:"telegram" yaml:"telegram"`
}

// Load reads .env, the YAML file at path and TASKHUB_* environment variables,
// in increasing order of precedence, on top of DefaultConfig. A missing file
// is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("[config][dotenv][err] %v", err)
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
			log.Printf("[config] loaded %s", path)
		} else if errors.Is(err, fs.ErrNotExist) {
			log.Printf("[config] %s not found, using defaults", path)
		} else {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "postgres", "sqlite":
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	if c.Store.Driver != "memory" && c.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required for driver %q", c.Store.Driver)
	}
	if c.Auth.SessionSecret == "" {
		return errors.New("auth.session_secret is required")
	}
	if c.Auth.SessionTTL <= 0 {
		return errors.New("auth.session_ttl must be positive")
	}
	if c.Confirm.TTL <= 0 {
		return errors.New("confirm.ttl must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.dsn", d.Store.DSN)
	v.SetDefault("store.namespace", d.Store.Namespace)
	v.SetDefault("store.migrate", d.Store.Migrate)
	v.SetDefault("auth.session_secret", d.Auth.SessionSecret)
	v.SetDefault("auth.custom_token_secret", d.Auth.CustomTokenSecret)
	v.SetDefault("auth.session_ttl", d.Auth.SessionTTL)
	v.SetDefault("auth.retry_attempts", d.Auth.RetryAttempts)
	v.SetDefault("auth.retry_base_delay", d.Auth.RetryBaseDelay)
	v.SetDefault("confirm.ttl", d.Confirm.TTL)
	v.SetDefault("telegram.bot_token", d.Telegram.BotToken)
	v.SetDefault("telegram.chat_ids", d.Telegram.ChatIDs)
}
