// Package server provides configuration helpers that define runtime
// defaults and validation for the chat relay service.
package server

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the server configuration settings.
type Config struct {
	// ListenAddr is the TCP address the relay binds.
	ListenAddr string `envconfig:"LISTEN_ADDR" default:":12345"`

	// DatabaseURL is the Postgres connection string for the credential
	// store. When empty the server falls back to an in-memory store.
	DatabaseURL string `envconfig:"DATABASE_URL" default:""`

	// WorkerCapacity bounds how many connection handlers run at once.
	// Connections beyond the capacity wait in the kernel accept backlog.
	WorkerCapacity int `envconfig:"WORKER_CAPACITY" default:"10"`

	// SendBufferSize is the per-session outbound queue length.
	SendBufferSize int `envconfig:"SEND_BUFFER_SIZE" default:"256"`

	// MaxLineBytes caps the length of a single protocol line.
	MaxLineBytes int `envconfig:"MAX_LINE_BYTES" default:"65536"`

	// IdleTimeout bounds how long a read may block waiting for a line.
	// Zero disables the deadline, matching the original system's behavior
	// of letting a stalled peer pin its own handler.
	IdleTimeout time.Duration `envconfig:"IDLE_TIMEOUT" default:"0s"`

	// WriteTimeout bounds a single outbound write.
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"10s"`

	// ShutdownTimeout bounds how long Shutdown waits for handlers to drain.
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// NewConfig creates a Config populated with default values.
func NewConfig() *Config {
	cfg := sanitizeConfig(Config{})
	return &cfg
}

// NewConfigFromEnv creates a Config from environment variables, falling
// back to defaults for anything unset.
func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	cfg = sanitizeConfig(cfg)
	return &cfg, nil
}

func sanitizeConfig(cfg Config) Config {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":12345"
	}
	if cfg.WorkerCapacity <= 0 {
		cfg.WorkerCapacity = 10
	}
	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = 256
	}
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = 65536
	}
	if cfg.IdleTimeout < 0 {
		cfg.IdleTimeout = 0
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	return cfg
}
