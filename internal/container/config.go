// Package container wires the donation coordinator together: it opens the
// store, builds services and channels, and starts and stops them in order.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container
type Config struct {
	Database    DatabaseConfig
	Coordinator CoordinatorConfig
	Relay       RelayConfig
	Redis       RedisConfig
	Lark        LarkConfig
	Telegram    TelegramConfig
	Server      ServerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// BusyTimeout is how long a writer waits for the SQLite write lock
	BusyTimeout time.Duration

	// AutoMigrate applies embedded migrations on start
	AutoMigrate bool
}

// CoordinatorConfig holds lifecycle service settings
type CoordinatorConfig struct {
	// MaxCommitAttempts bounds retries after a version conflict
	MaxCommitAttempts int
}

// RelayConfig holds notification relay settings
type RelayConfig struct {
	Enabled     bool
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
}

// RedisConfig enables the Redis list channel when Addr is set
type RedisConfig struct {
	Addr string
	Key  string
}

// LarkConfig enables the Lark IM channel when credentials are set
type LarkConfig struct {
	AppID     string
	AppSecret string
}

// TelegramConfig enables the Telegram channel when Token is set
type TelegramConfig struct {
	Token string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/coordinator.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			BusyTimeout:     5 * time.Second,
			AutoMigrate:     true,
		},
		Coordinator: CoordinatorConfig{
			MaxCommitAttempts: 3,
		},
		Relay: RelayConfig{
			Enabled:     true,
			Interval:    10 * time.Second,
			BatchSize:   100,
			MaxAttempts: 5,
		},
		Redis: RedisConfig{
			Key: "donation:notifications",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

// Validate checks that configuration values are usable
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Coordinator.MaxCommitAttempts < 1 {
		return fmt.Errorf("coordinator.max_commit_attempts must be at least 1")
	}
	if c.Relay.Enabled {
		if c.Relay.Interval <= 0 {
			return fmt.Errorf("relay.interval must be positive")
		}
		if c.Relay.BatchSize < 1 {
			return fmt.Errorf("relay.batch_size must be at least 1")
		}
		if c.Relay.MaxAttempts < 1 {
			return fmt.Errorf("relay.max_attempts must be at least 1")
		}
	}
	if (c.Lark.AppID == "") != (c.Lark.AppSecret == "") {
		return fmt.Errorf("lark.app_id and lark.app_secret must be set together")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	return nil
}
