package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/foodlink/donation-coordinator/internal/application/dispatcher"
	"github.com/foodlink/donation-coordinator/internal/application/service"
	"github.com/foodlink/donation-coordinator/internal/domain/event"
)

// Relay delivers one batch of pending notifications
type Relay interface {
	DeliverPending(ctx context.Context) (service.RelayStats, error)
}

// RelayWorkerConfig holds configuration for the relay worker
type RelayWorkerConfig struct {
	Interval time.Duration
}

// DefaultRelayWorkerConfig returns default configuration
func DefaultRelayWorkerConfig() RelayWorkerConfig {
	return RelayWorkerConfig{Interval: 10 * time.Second}
}

// RelayStatus is a snapshot of the worker counters
type RelayStatus struct {
	Running  bool      `json:"running"`
	Passes   int       `json:"passes"`
	Sent     int       `json:"sent"`
	Failed   int       `json:"failed"`
	Skipped  int       `json:"skipped"`
	LastRun  time.Time `json:"last_run,omitempty"`
	LastErr  string    `json:"last_error,omitempty"`
	Interval string    `json:"interval"`
}

// RelayWorker drains the notification outbox on a ticker. A committed
// transition that queued notifications wakes it early.
type RelayWorker struct {
	config RelayWorkerConfig
	relay  Relay
	events dispatcher.Dispatcher
	logger *zap.Logger

	wake chan struct{}
	done chan struct{}

	mu        sync.RWMutex
	cancel    context.CancelFunc
	isRunning bool
	status    RelayStatus
}

// NewRelayWorker creates a new relay worker
func NewRelayWorker(config RelayWorkerConfig, relay Relay, logger *zap.Logger) *RelayWorker {
	if config.Interval <= 0 {
		config.Interval = DefaultRelayWorkerConfig().Interval
	}
	return &RelayWorker{
		config: config,
		relay:  relay,
		logger: logger,
		wake:   make(chan struct{}, 1),
	}
}

// Name returns the worker name for identification
func (w *RelayWorker) Name() string {
	return "NotificationRelay"
}

// Start begins the relay loop
func (w *RelayWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.isRunning {
		return fmt.Errorf("relay worker already running")
	}

	var loopCtx context.Context
	loopCtx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.isRunning = true
	if w.events != nil {
		w.events.Subscribe(event.TypeNotificationsQueued, wakeHandlerName, func(context.Context, *event.Event) error {
			w.Wake()
			return nil
		})
	}

	w.logger.Info("Relay worker started", zap.Duration("interval", w.config.Interval))
	go w.loop(loopCtx, w.done)
	return nil
}

// Stop cancels the loop and waits for the pass in flight
func (w *RelayWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	cancel, done := w.cancel, w.done
	if w.events != nil {
		w.events.Unsubscribe(event.TypeNotificationsQueued, wakeHandlerName)
	}
	w.mu.Unlock()

	cancel()
	<-done

	status := w.Status()
	w.logger.Info("Relay worker stopped",
		zap.Int("passes", status.Passes),
		zap.Int("sent", status.Sent),
		zap.Int("failed", status.Failed))
	return nil
}

// Wake requests an early pass. It never blocks.
func (w *RelayWorker) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

const wakeHandlerName = "relay-wake"

// Subscribe wakes the worker whenever a commit queues notifications.
// The handler is registered while the worker runs.
func (w *RelayWorker) Subscribe(d dispatcher.Dispatcher) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = d
}

// Status returns the current counters
func (w *RelayWorker) Status() RelayStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()
	s := w.status
	s.Running = w.isRunning
	s.Interval = w.config.Interval.String()
	return s
}

func (w *RelayWorker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	w.runPass(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runPass(ctx)
		case <-w.wake:
			w.runPass(ctx)
		}
	}
}

// runPass drains full batches until the outbox is empty or a pass errors
func (w *RelayWorker) runPass(ctx context.Context) {
	for ctx.Err() == nil {
		stats, err := w.relay.DeliverPending(ctx)
		w.record(stats, err)
		if err != nil {
			w.logger.Error("Relay pass failed", zap.Error(err))
			return
		}
		if stats.Sent+stats.Failed+stats.Skipped == 0 || stats.Failed > 0 {
			return
		}
	}
}

func (w *RelayWorker) record(stats service.RelayStats, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status.Passes++
	w.status.Sent += stats.Sent
	w.status.Failed += stats.Failed
	w.status.Skipped += stats.Skipped
	w.status.LastRun = time.Now().UTC()
	w.status.LastErr = ""
	if err != nil {
		w.status.LastErr = err.Error()
	}
}
