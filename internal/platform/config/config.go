// Package config loads server configuration.
// Precedence: built-in defaults, then an optional YAML file, then
// LOCKERS_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "LOCKERS_"

// Config holds the full server configuration.
type Config struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
	LogJSON  bool   `yaml:"log_json" env:"LOG_JSON"`

	Store  StoreConfig `yaml:"store" envPrefix:"STORE_"`
	Tuning Tuning      `yaml:"tuning" envPrefix:"TUNING_"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Driver is one of sqlite, bolt, gdata or memory.
	Driver string `yaml:"driver" env:"DRIVER"`
	// Path is the database file for sqlite and bolt.
	Path string `yaml:"path" env:"PATH"`
	// AppName namespaces the gdata data directory.
	AppName string `yaml:"app_name" env:"APP_NAME"`
	// Key is the fixed key the grid snapshot is stored under.
	Key string `yaml:"key" env:"KEY"`
	// History enables the sqlite-backed event history.
	History bool `yaml:"history" env:"HISTORY"`
}

// Tuning holds channel buffers and connection limits. EventRetention is
// how many recent events stay in memory; 0 keeps all of them.
type Tuning struct {
	BroadcastBuffer   int           `yaml:"broadcast_buffer" env:"BROADCAST_BUFFER"`
	ClientSendBuffer  int           `yaml:"client_send_buffer" env:"CLIENT_SEND_BUFFER"`
	MaxMessageSize    int64         `yaml:"max_message_size" env:"MAX_MESSAGE_SIZE"`
	MaxClients        int           `yaml:"max_clients" env:"MAX_CLIENTS"`
	EventPollInterval time.Duration `yaml:"event_poll_interval" env:"EVENT_POLL_INTERVAL"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	EventRetention    int           `yaml:"event_retention" env:"EVENT_RETENTION"`
}

// Default returns sensible defaults for a single-site deployment.
func Default() *Config {
	return &Config{
		Addr:     ":8080",
		LogLevel: "info",
		Store: StoreConfig{
			Driver:  "sqlite",
			Path:    "data/lockers.db",
			AppName: "locker_grid",
			Key:     "locker_grid",
			History: true,
		},
		Tuning: DefaultTuning(),
	}
}

// DefaultTuning returns buffer sizes for normal load.
func DefaultTuning() Tuning {
	return Tuning{
		BroadcastBuffer:   256,
		ClientSendBuffer:  64,
		MaxMessageSize:    4096,
		MaxClients:        200,
		EventPollInterval: 200 * time.Millisecond,
		ShutdownTimeout:   5 * time.Second,
		EventRetention:    10_000,
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "bolt":
		if c.Store.Path == "" {
			return fmt.Errorf("config: store.path is required for driver %q", c.Store.Driver)
		}
	case "gdata":
		if c.Store.AppName == "" {
			return fmt.Errorf("config: store.app_name is required for driver gdata")
		}
	case "memory":
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Key == "" {
		return fmt.Errorf("config: store.key must not be empty")
	}
	if c.Tuning.ClientSendBuffer <= 0 || c.Tuning.BroadcastBuffer <= 0 {
		return fmt.Errorf("config: tuning buffers must be positive")
	}
	if c.Tuning.EventRetention < 0 {
		return fmt.Errorf("config: tuning.event_retention must not be negative")
	}
	if c.Tuning.EventPollInterval <= 0 {
		return fmt.Errorf("config: tuning.event_poll_interval must be positive")
	}
	return nil
}
