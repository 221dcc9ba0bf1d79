package container

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/foodlink/donation-coordinator/internal/application/dispatcher"
	"github.com/foodlink/donation-coordinator/internal/application/port"
	"github.com/foodlink/donation-coordinator/internal/application/service"
	"github.com/foodlink/donation-coordinator/internal/domain/event"
	"github.com/foodlink/donation-coordinator/internal/domain/lifecycle"
	"github.com/foodlink/donation-coordinator/internal/infrastructure/notify"
	"github.com/foodlink/donation-coordinator/internal/infrastructure/persistence/sqlite"
	"github.com/foodlink/donation-coordinator/internal/infrastructure/worker"
	"github.com/foodlink/donation-coordinator/migrations"
	"github.com/foodlink/donation-coordinator/pkg/database"
	"github.com/foodlink/donation-coordinator/pkg/utils"
)

// DatabaseBundle holds database-related components
type DatabaseBundle struct {
	Raw            *database.DB
	TransactionMgr *sqlite.DB
}

// ChannelBundle holds the configured notification channels
type ChannelBundle struct {
	Channels []port.NotificationChannel
	Redis    rueidis.Client
}

// ServiceBundle groups all application services
type ServiceBundle struct {
	Lifecycle service.LifecycleService
	Directory service.DirectoryService
	Inbox     service.InboxService
	Relay     service.RelayService
}

// ServiceDeps holds dependencies for creating services
type ServiceDeps struct {
	Repos       service.Repositories
	TxManager   port.TransactionManager
	Dispatcher  dispatcher.Dispatcher
	Channels    []port.NotificationChannel
	Coordinator CoordinatorConfig
	Relay       RelayConfig
	Logger      *zap.Logger
}

// WorkerDeps holds dependencies for creating workers
type WorkerDeps struct {
	Relay      service.RelayService
	Dispatcher dispatcher.Dispatcher
	Config     RelayConfig
	Logger     *zap.Logger
}

// ProvideDatabase opens the SQLite store and, when configured, applies the
// embedded migrations
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	raw, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		BusyTimeout:     cfg.BusyTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if _, err := database.NewMigrator(raw, logger).RunMigrations(migrations.FS, "."); err != nil {
			_ = raw.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return &DatabaseBundle{
		Raw:            raw,
		TransactionMgr: sqlite.NewDB(raw.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories over one transaction manager
func ProvideRepositories(db *sqlite.DB, logger *zap.Logger) (service.Repositories, error) {
	if db == nil {
		return service.Repositories{}, fmt.Errorf("database is required")
	}

	return service.Repositories{
		Foods:         sqlite.NewFoodRepository(db, logger),
		Requests:      sqlite.NewRequestRepository(db, logger),
		Tasks:         sqlite.NewTaskRepository(db, logger),
		Users:         sqlite.NewUserRepository(db, logger),
		Notifications: sqlite.NewNotificationRepository(db, logger),
	}, nil
}

// ProvideChannels builds every channel whose credentials are configured.
// With none configured, notifications are written to the log.
func ProvideChannels(cfg *Config, logger *zap.Logger) (*ChannelBundle, error) {
	bundle := &ChannelBundle{}

	if cfg.Redis.Addr != "" {
		client, err := notify.NewRedisClient(cfg.Redis.Addr)
		if err != nil {
			return nil, err
		}
		bundle.Redis = client
		bundle.Channels = append(bundle.Channels, notify.NewRedisChannel(client, cfg.Redis.Key, logger))
		logger.Info("Redis notification channel enabled", zap.String("addr", cfg.Redis.Addr), zap.String("key", cfg.Redis.Key))
	}

	if cfg.Lark.AppID != "" {
		api := notify.NewLarkMessageAPI(notify.LarkConfig{AppID: cfg.Lark.AppID, AppSecret: cfg.Lark.AppSecret}, logger)
		bundle.Channels = append(bundle.Channels, notify.NewLarkChannel(api, logger))
		logger.Info("Lark notification channel enabled")
	}

	if cfg.Telegram.Token != "" {
		bot, err := notify.NewTelegramBot(cfg.Telegram.Token, logger)
		if err != nil {
			if bundle.Redis != nil {
				bundle.Redis.Close()
			}
			return nil, err
		}
		bundle.Channels = append(bundle.Channels, notify.NewTelegramChannel(bot, logger))
		logger.Info("Telegram notification channel enabled")
	}

	if len(bundle.Channels) == 0 {
		bundle.Channels = append(bundle.Channels, notify.NewLogChannel(logger))
		logger.Info("No external notification channel configured, logging notifications")
	}

	return bundle, nil
}

// ProvideDispatcher creates the event dispatcher and subscribes the audit log
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	d := dispatcher.NewDispatcher(dispatcher.WithLogger(utils.NewKVLogger(logger.Named("dispatcher"))))

	audit := logger.Named("lifecycle")
	d.Subscribe(dispatcher.AllEvents, "audit-log", func(_ context.Context, evt *event.Event) error {
		audit.Info("Lifecycle event",
			zap.String("event_id", evt.ID),
			zap.String("event_type", evt.Type.String()),
			zap.String("food_id", evt.FoodID),
			zap.String("actor_id", evt.ActorID),
			zap.Any("payload", evt.Payload))
		return nil
	})

	return d, nil
}

// ProvideServices creates all application services
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.TxManager == nil || deps.Logger == nil {
		return nil, fmt.Errorf("service dependencies are incomplete")
	}

	logger := utils.NewKVLogger(deps.Logger)
	coordinator := lifecycle.NewCoordinator()

	return &ServiceBundle{
		Lifecycle: service.NewLifecycleService(
			coordinator,
			deps.Repos,
			deps.TxManager,
			deps.Dispatcher,
			deps.Coordinator.MaxCommitAttempts,
			logger,
		),
		Directory: service.NewDirectoryService(deps.Repos, logger),
		Inbox:     service.NewInboxService(deps.Repos, logger),
		Relay: service.NewRelayService(deps.Repos, deps.Channels, service.RelayConfig{
			BatchSize:   deps.Relay.BatchSize,
			MaxAttempts: deps.Relay.MaxAttempts,
		}, logger),
	}, nil
}

// ProvideWorkers creates the worker manager with the notification relay
// registered when enabled
func ProvideWorkers(deps *WorkerDeps) (*worker.WorkerManager, error) {
	if deps == nil || deps.Logger == nil {
		return nil, fmt.Errorf("worker dependencies are incomplete")
	}

	manager := worker.NewWorkerManager(deps.Logger)
	if !deps.Config.Enabled {
		deps.Logger.Info("Notification relay disabled")
		return manager, nil
	}

	relay := worker.NewRelayWorker(worker.RelayWorkerConfig{Interval: deps.Config.Interval}, deps.Relay, deps.Logger)
	if deps.Dispatcher != nil {
		relay.Subscribe(deps.Dispatcher)
	}
	manager.Register(relay)

	return manager, nil
}
