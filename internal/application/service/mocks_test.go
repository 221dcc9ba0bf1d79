package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/foodlink/donation-coordinator/internal/application/port"
	"github.com/foodlink/donation-coordinator/internal/domain/entity"
)

// memStore backs every repository with maps and enforces versioned updates.
// The *Func hooks run before the default behaviour and short-circuit it when they return an error.
type memStore struct {
	mu            sync.Mutex
	foods         map[string]*entity.Food
	requests      map[string]*entity.Request
	tasks         map[string]*entity.Task
	users         map[string]*entity.User
	notifications map[string]*entity.Notification
	order         []string

	updateFoodFunc func(ctx context.Context, food *entity.Food) error
	markFailedFunc func(id, errMsg string) error
}

func newMemStore() *memStore {
	return &memStore{
		foods:         map[string]*entity.Food{},
		requests:      map[string]*entity.Request{},
		tasks:         map[string]*entity.Task{},
		users:         map[string]*entity.User{},
		notifications: map[string]*entity.Notification{},
	}
}

func (m *memStore) repos() Repositories {
	return Repositories{
		Foods:         &memFoods{m},
		Requests:      &memRequests{m},
		Tasks:         &memTasks{m},
		Users:         &memUsers{m},
		Notifications: &memNotifications{m},
	}
}

type memFoods struct{ m *memStore }

func (r *memFoods) Create(ctx context.Context, food *entity.Food) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.foods[food.ID]; ok {
		return port.ErrVersionConflict
	}
	r.m.foods[food.ID] = food.Clone()
	return nil
}

func (r *memFoods) GetByID(ctx context.Context, id string) (*entity.Food, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.foods[id].Clone(), nil
}

func (r *memFoods) Update(ctx context.Context, food *entity.Food) error {
	if r.m.updateFoodFunc != nil {
		if err := r.m.updateFoodFunc(ctx, food); err != nil {
			return err
		}
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stored, ok := r.m.foods[food.ID]
	if !ok || stored.Version != food.Version {
		return port.ErrVersionConflict
	}
	food.Version++
	r.m.foods[food.ID] = food.Clone()
	return nil
}

func (r *memFoods) List(ctx context.Context, filter port.FoodFilter) ([]*entity.Food, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.Food
	for _, f := range r.m.foods {
		if filter.Status != "" && f.Status != filter.Status {
			continue
		}
		if filter.DonorID != "" && f.DonorID != filter.DonorID {
			continue
		}
		out = append(out, f.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memRequests struct{ m *memStore }

func (r *memRequests) Create(ctx context.Context, req *entity.Request) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.requests[req.ID] = req.Clone()
	return nil
}

func (r *memRequests) GetByID(ctx context.Context, id string) (*entity.Request, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.requests[id].Clone(), nil
}

func (r *memRequests) list(keep func(*entity.Request) bool) []*entity.Request {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.Request
	for _, req := range r.m.requests {
		if keep(req) {
			out = append(out, req.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memRequests) ListByFood(ctx context.Context, foodID string) ([]*entity.Request, error) {
	return r.list(func(req *entity.Request) bool { return req.FoodID == foodID }), nil
}

func (r *memRequests) ListByNGO(ctx context.Context, ngoID string) ([]*entity.Request, error) {
	return r.list(func(req *entity.Request) bool { return req.NGOID == ngoID }), nil
}

func (r *memRequests) Update(ctx context.Context, req *entity.Request) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stored, ok := r.m.requests[req.ID]
	if !ok || stored.Version != req.Version {
		return port.ErrVersionConflict
	}
	req.Version++
	r.m.requests[req.ID] = req.Clone()
	return nil
}

type memTasks struct{ m *memStore }

func (r *memTasks) Create(ctx context.Context, task *entity.Task) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.tasks[task.ID] = task.Clone()
	return nil
}

func (r *memTasks) GetByID(ctx context.Context, id string) (*entity.Task, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.tasks[id].Clone(), nil
}

func (r *memTasks) GetByRequestID(ctx context.Context, requestID string) (*entity.Task, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, t := range r.m.tasks {
		if t.RequestID == requestID {
			return t.Clone(), nil
		}
	}
	return nil, nil
}

func (r *memTasks) ListByFood(ctx context.Context, foodID string) ([]*entity.Task, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.Task
	for _, t := range r.m.tasks {
		if req, ok := r.m.requests[t.RequestID]; ok && req.FoodID == foodID {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

func (r *memTasks) ListByVolunteer(ctx context.Context, volunteerID string) ([]*entity.Task, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.Task
	for _, t := range r.m.tasks {
		if t.VolunteerID == volunteerID {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

func (r *memTasks) Update(ctx context.Context, task *entity.Task) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stored, ok := r.m.tasks[task.ID]
	if !ok || stored.Version != task.Version {
		return port.ErrVersionConflict
	}
	task.Version++
	r.m.tasks[task.ID] = task.Clone()
	return nil
}

type memUsers struct{ m *memStore }

func (r *memUsers) Create(ctx context.Context, user *entity.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[user.ID]; ok {
		return port.ErrVersionConflict
	}
	u := *user
	r.m.users[user.ID] = &u
	return nil
}

func (r *memUsers) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (r *memUsers) UpdateAccountStatus(ctx context.Context, id, status string, at time.Time) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return false, nil
	}
	u.AccountStatus = status
	u.UpdatedAt = at
	return true, nil
}

type memNotifications struct{ m *memStore }

func (r *memNotifications) Create(ctx context.Context, n *entity.Notification) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c := *n
	r.m.notifications[n.ID] = &c
	r.m.order = append(r.m.order, n.ID)
	return nil
}

func (r *memNotifications) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	n, ok := r.m.notifications[id]
	if !ok {
		return nil, nil
	}
	c := *n
	return &c, nil
}

func (r *memNotifications) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*entity.Notification, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.Notification
	for i := len(r.m.order) - 1; i >= 0 && len(out) < limit; i-- {
		n := r.m.notifications[r.m.order[i]]
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		c := *n
		out = append(out, &c)
	}
	return out, nil
}

func (r *memNotifications) CountUnread(ctx context.Context, userID string) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	count := 0
	for _, n := range r.m.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *memNotifications) MarkRead(ctx context.Context, id, userID string, at time.Time) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	n, ok := r.m.notifications[id]
	if !ok || n.UserID != userID {
		return false, nil
	}
	if !n.Read {
		n.Read = true
		n.ReadAt = &at
	}
	return true, nil
}

func (r *memNotifications) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var count int64
	for _, n := range r.m.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			n.ReadAt = &at
			count++
		}
	}
	return count, nil
}

func (r *memNotifications) ListUndelivered(ctx context.Context, limit, maxAttempts int) ([]*entity.Notification, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*entity.Notification
	for _, id := range r.m.order {
		n := r.m.notifications[id]
		if n.DeliveryStatus == entity.NotificationStatusSent || n.Attempts >= maxAttempts {
			continue
		}
		c := *n
		out = append(out, &c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memNotifications) MarkSent(ctx context.Context, id string, at time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	n := r.m.notifications[id]
	n.DeliveryStatus = entity.NotificationStatusSent
	n.Attempts++
	n.SentAt = &at
	return nil
}

func (r *memNotifications) MarkFailed(ctx context.Context, id string, errMsg string, at time.Time) error {
	if r.m.markFailedFunc != nil {
		if err := r.m.markFailedFunc(id, errMsg); err != nil {
			return err
		}
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	n := r.m.notifications[id]
	n.DeliveryStatus = entity.NotificationStatusFailed
	n.Attempts++
	n.LastError = errMsg
	return nil
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
	calls               int
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockChannel struct {
	name        string
	deliverFunc func(ctx context.Context, n *entity.Notification, recipient *entity.User) error
	delivered   []string
}

func (m *mockChannel) Name() string { return m.name }

func (m *mockChannel) Deliver(ctx context.Context, n *entity.Notification, recipient *entity.User) error {
	if m.deliverFunc != nil {
		if err := m.deliverFunc(ctx, n, recipient); err != nil {
			return err
		}
	}
	m.delivered = append(m.delivered, n.ID)
	return nil
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}
