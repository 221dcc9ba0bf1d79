package config

import (
	"github.com/foodlink/donation-coordinator/internal/container"
	"github.com/foodlink/donation-coordinator/pkg/utils"
)

// ToContainerConfig converts the file-based Config into the container's
// runtime configuration
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			BusyTimeout:     c.Database.BusyTimeout,
			AutoMigrate:     c.Database.AutoMigrate,
		},
		Coordinator: container.CoordinatorConfig{
			MaxCommitAttempts: c.Coordinator.MaxCommitAttempts,
		},
		Relay: container.RelayConfig{
			Enabled:     c.Relay.Enabled,
			Interval:    c.Relay.Interval,
			BatchSize:   c.Relay.BatchSize,
			MaxAttempts: c.Relay.MaxAttempts,
		},
		Redis: container.RedisConfig{
			Addr: c.Redis.Addr,
			Key:  c.Redis.Key,
		},
		Lark: container.LarkConfig{
			AppID:     c.Lark.AppID,
			AppSecret: c.Lark.AppSecret,
		},
		Telegram: container.TelegramConfig{
			Token: c.Telegram.Token,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
		},
	}
}

// LoggerSettings converts the logger section for utils.NewLogger
func (c *Config) LoggerSettings() utils.LoggerConfig {
	return utils.LoggerConfig{
		Level:      c.Logger.Level,
		OutputPath: c.Logger.OutputPath,
		Format:     c.Logger.Format,
	}
}
