package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/foodlink/donation-coordinator/internal/application/dispatcher"
	"github.com/foodlink/donation-coordinator/internal/application/service"
	"github.com/foodlink/donation-coordinator/internal/domain/event"
)

type mockWorker struct {
	name      string
	startErr  error
	stopErr   error
	started   atomic.Bool
	stopped   atomic.Bool
	ctxClosed atomic.Bool
}

func (w *mockWorker) Start(ctx context.Context) error {
	if w.startErr != nil {
		return w.startErr
	}
	w.started.Store(true)
	go func() {
		<-ctx.Done()
		w.ctxClosed.Store(true)
	}()
	return nil
}

func (w *mockWorker) Stop() error {
	w.stopped.Store(true)
	return w.stopErr
}

func (w *mockWorker) Name() string { return w.name }

type mockRelay struct {
	mu      sync.Mutex
	calls   int
	results []service.RelayStats
	err     error
}

func (r *mockRelay) DeliverPending(ctx context.Context) (service.RelayStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return service.RelayStats{}, r.err
	}
	if len(r.results) == 0 {
		return service.RelayStats{}, nil
	}
	next := r.results[0]
	r.results = r.results[1:]
	return next, nil
}

func (r *mockRelay) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestWorkerManager(t *testing.T) {
	m := NewWorkerManager(zap.NewNop())
	ok := &mockWorker{name: "ok"}
	broken := &mockWorker{name: "broken", startErr: errors.New("no")}
	m.Register(ok)
	m.Register(broken)
	assert.Equal(t, 2, m.GetWorkerCount())

	require.NoError(t, m.StartAll(context.Background()))
	assert.True(t, m.IsRunning())
	assert.True(t, ok.started.Load())
	assert.False(t, broken.started.Load())

	assert.Error(t, m.StartAll(context.Background()), "second start is rejected")

	require.NoError(t, m.StopAll())
	assert.False(t, m.IsRunning())
	assert.True(t, ok.stopped.Load())
	assert.Eventually(t, ok.ctxClosed.Load, time.Second, 5*time.Millisecond)

	assert.NoError(t, m.StopAll(), "stopping twice is a no-op")
}

func TestWorkerManager_StopErrors(t *testing.T) {
	m := NewWorkerManager(zap.NewNop())
	m.Register(&mockWorker{name: "a", stopErr: errors.New("stuck")})
	m.Register(&mockWorker{name: "b"})

	require.NoError(t, m.StartAll(context.Background()))
	err := m.StopAll()
	assert.EqualError(t, err, "failed to stop 1 workers")
}

func TestRelayWorker_DrainsOnStart(t *testing.T) {
	relay := &mockRelay{results: []service.RelayStats{{Sent: 100}, {Sent: 3, Skipped: 1}}}
	w := NewRelayWorker(RelayWorkerConfig{Interval: time.Hour}, relay, zap.NewNop())

	require.NoError(t, w.Start(context.Background()))
	assert.Eventually(t, func() bool { return relay.callCount() == 3 }, time.Second, 5*time.Millisecond)
	require.NoError(t, w.Stop())

	status := w.Status()
	assert.False(t, status.Running)
	assert.Equal(t, 3, status.Passes)
	assert.Equal(t, 103, status.Sent)
	assert.Equal(t, 1, status.Skipped)
	assert.Equal(t, "1h0m0s", status.Interval)
}

func TestRelayWorker_StopsPassOnFailures(t *testing.T) {
	relay := &mockRelay{results: []service.RelayStats{{Sent: 2, Failed: 1}}}
	w := NewRelayWorker(RelayWorkerConfig{Interval: time.Hour}, relay, zap.NewNop())

	require.NoError(t, w.Start(context.Background()))
	assert.Eventually(t, func() bool { return w.Status().Passes == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, w.Stop())

	assert.Equal(t, 1, relay.callCount(), "failed rows wait for the next tick")
	assert.Equal(t, 1, w.Status().Failed)
}

func TestRelayWorker_RecordsError(t *testing.T) {
	relay := &mockRelay{err: errors.New("database is locked")}
	w := NewRelayWorker(RelayWorkerConfig{Interval: time.Hour}, relay, zap.NewNop())

	require.NoError(t, w.Start(context.Background()))
	assert.Eventually(t, func() bool { return w.Status().Passes == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, w.Stop())

	assert.Equal(t, "database is locked", w.Status().LastErr)
}

func TestRelayWorker_WakesOnQueuedNotifications(t *testing.T) {
	relay := &mockRelay{}
	w := NewRelayWorker(RelayWorkerConfig{Interval: time.Hour}, relay, zap.NewNop())
	d := dispatcher.NewDispatcher()
	w.Subscribe(d)

	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Stop() }()
	assert.Eventually(t, func() bool { return relay.callCount() == 1 }, time.Second, 5*time.Millisecond)

	evt := event.NewEvent(event.TypeNotificationsQueued, "food-1", "ngo-a", map[string]any{"count": 2})
	require.NoError(t, d.Dispatch(context.Background(), evt))

	assert.Eventually(t, func() bool { return relay.callCount() == 2 }, time.Second, 5*time.Millisecond)
}

func TestRelayWorker_WakeHandlerFollowsRunState(t *testing.T) {
	w := NewRelayWorker(RelayWorkerConfig{Interval: time.Hour}, &mockRelay{}, zap.NewNop())
	d := dispatcher.NewDispatcher()
	w.Subscribe(d)
	assert.Empty(t, d.ListHandlers(event.TypeNotificationsQueued))

	for round := 0; round < 2; round++ {
		require.NoError(t, w.Start(context.Background()))
		handlers := d.ListHandlers(event.TypeNotificationsQueued)
		require.Len(t, handlers, 1, "round %d", round)
		assert.Equal(t, "relay-wake", handlers[0].Name)

		require.NoError(t, w.Stop())
		assert.Empty(t, d.ListHandlers(event.TypeNotificationsQueued))
	}
}

func TestRelayWorker_StartTwice(t *testing.T) {
	w := NewRelayWorker(RelayWorkerConfig{}, &mockRelay{}, zap.NewNop())
	assert.Equal(t, 10*time.Second, w.config.Interval)

	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()))
	require.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}

func TestRelayWorker_WakeNeverBlocks(t *testing.T) {
	w := NewRelayWorker(RelayWorkerConfig{Interval: time.Hour}, &mockRelay{}, zap.NewNop())
	for i := 0; i < 10; i++ {
		w.Wake()
	}
	assert.Len(t, w.wake, 1)
}
