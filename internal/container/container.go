package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/foodlink/donation-coordinator/internal/application/dispatcher"
	"github.com/foodlink/donation-coordinator/internal/application/service"
	"github.com/foodlink/donation-coordinator/internal/domain/event"
	"github.com/foodlink/donation-coordinator/internal/infrastructure/worker"
)

// Container owns every long-lived component of the coordinator. Components
// are built in dependency order by Start and released in reverse by Close.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure
	database *DatabaseBundle
	repos    service.Repositories
	channels *ChannelBundle

	// Application
	dispatcher dispatcher.Dispatcher
	services   *ServiceBundle

	// Workers
	workers *worker.WorkerManager

	mu     sync.Mutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// Call Start to build the components.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components and begins processing:
// database, repositories, channels, dispatcher, services, then workers.
// A failed start releases whatever was already built.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	if err := c.init(ctx); err != nil {
		c.shutdown()
		return err
	}

	c.ready.Store(true)
	c.logger.Info("Container started successfully",
		zap.Int("channels", len(c.channels.Channels)),
		zap.Int("workers", c.workers.GetWorkerCount()))
	return nil
}

func (c *Container) init(ctx context.Context) error {
	db, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.database = db

	repos, err := ProvideRepositories(db.TransactionMgr, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}
	c.repos = repos
	c.logger.Info("Database initialized", zap.String("path", c.config.Database.Path))

	channels, err := ProvideChannels(c.config, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize notification channels: %w", err)
	}
	c.channels = channels

	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}
	c.dispatcher = disp

	services, err := ProvideServices(&ServiceDeps{
		Repos:       repos,
		TxManager:   db.TransactionMgr,
		Dispatcher:  disp,
		Channels:    channels.Channels,
		Coordinator: c.config.Coordinator,
		Relay:       c.config.Relay,
		Logger:      c.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.services = services
	c.logger.Info("Application services initialized")

	workers, err := ProvideWorkers(&WorkerDeps{
		Relay:      services.Relay,
		Dispatcher: disp,
		Config:     c.config.Relay,
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize workers: %w", err)
	}
	c.workers = workers

	if err := workers.StartAll(ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	c.logger.Info("Workers started")

	return nil
}

// Close gracefully shuts down all components in reverse order
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")
	errs := c.shutdown()

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

func (c *Container) shutdown() []error {
	var errs []error

	if c.workers != nil {
		if err := c.workers.StopAll(); err != nil {
			c.logger.Error("Failed to stop workers", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		}
		c.workers = nil
	}

	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		}
		c.dispatcher = nil
	}

	if c.channels != nil && c.channels.Redis != nil {
		c.channels.Redis.Close()
		c.channels.Redis = nil
	}

	if c.database != nil {
		if err := c.database.Raw.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
		c.database = nil
	}

	return errs
}

// Ready returns true when all components are initialized
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components
func (c *Container) Health(ctx context.Context) *HealthStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}
	set := func(name string, h ComponentHealth) {
		status.Components[name] = h
		if !h.Healthy {
			status.Overall = false
		}
	}

	if c.database == nil {
		set("database", ComponentHealth{Message: "not initialized"})
	} else {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := c.database.Raw.PingContext(pingCtx)
		cancel()
		if err != nil {
			set("database", ComponentHealth{Message: fmt.Sprintf("ping failed: %v", err)})
		} else {
			set("database", ComponentHealth{Healthy: true})
		}
	}

	if c.channels != nil && c.channels.Redis != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := c.channels.Redis.Do(pingCtx, c.channels.Redis.B().Ping().Build()).Error()
		cancel()
		if err != nil {
			set("redis", ComponentHealth{Message: fmt.Sprintf("ping failed: %v", err)})
		} else {
			set("redis", ComponentHealth{Healthy: true})
		}
	}

	switch {
	case c.workers == nil:
		set("workers", ComponentHealth{Message: "not initialized"})
	case !c.config.Relay.Enabled:
		set("workers", ComponentHealth{Healthy: true, Message: "relay disabled"})
	default:
		set("workers", ComponentHealth{
			Healthy: c.workers.IsRunning(),
			Message: fmt.Sprintf("worker count: %d", c.workers.GetWorkerCount()),
		})
	}

	if c.dispatcher == nil {
		set("dispatcher", ComponentHealth{Message: "not initialized"})
	} else {
		set("dispatcher", ComponentHealth{
			Healthy: true,
			Message: fmt.Sprintf("relay wake handlers: %d", len(c.dispatcher.ListHandlers(event.TypeNotificationsQueued))),
		})
	}

	return status
}

// HealthSummary flattens Health into the component map served by /health
func (c *Container) HealthSummary(ctx context.Context) map[string]string {
	status := c.Health(ctx)
	summary := make(map[string]string, len(status.Components))
	for name, h := range status.Components {
		if h.Healthy {
			summary[name] = "healthy"
			continue
		}
		summary[name] = "unhealthy: " + h.Message
	}
	return summary
}

// Config returns the container configuration
func (c *Container) Config() *Config {
	return c.config
}

// Logger returns the container logger
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Repositories returns the repository set
func (c *Container) Repositories() service.Repositories {
	return c.repos
}

// Dispatcher returns the event dispatcher
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// LifecycleService returns the lifecycle coordinator service
func (c *Container) LifecycleService() service.LifecycleService {
	if c.services == nil {
		return nil
	}
	return c.services.Lifecycle
}

// DirectoryService returns the user and listing service
func (c *Container) DirectoryService() service.DirectoryService {
	if c.services == nil {
		return nil
	}
	return c.services.Directory
}

// InboxService returns the in-app notification service
func (c *Container) InboxService() service.InboxService {
	if c.services == nil {
		return nil
	}
	return c.services.Inbox
}

// RelayService returns the outbox relay service
func (c *Container) RelayService() service.RelayService {
	if c.services == nil {
		return nil
	}
	return c.services.Relay
}

// Workers returns the worker manager
func (c *Container) Workers() *worker.WorkerManager {
	return c.workers
}
