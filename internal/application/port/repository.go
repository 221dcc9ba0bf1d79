package port

import (
	"context"
	"errors"
	"time"

	"github.com/foodlink/donation-coordinator/internal/domain/entity"
)

// ErrVersionConflict is returned when a versioned write finds the row changed
// underneath it or collides with a uniqueness constraint
var ErrVersionConflict = errors.New("version conflict")

// FoodFilter narrows food listings. Zero values match everything.
type FoodFilter struct {
	Status  entity.FoodStatus
	DonorID string
	Limit   int
	Offset  int
}

// FoodRepository defines persistence operations for Food.
// Update succeeds only when the stored version equals food.Version and then increments it.
type FoodRepository interface {
	Create(ctx context.Context, food *entity.Food) error
	GetByID(ctx context.Context, id string) (*entity.Food, error)
	Update(ctx context.Context, food *entity.Food) error
	List(ctx context.Context, filter FoodFilter) ([]*entity.Food, error)
}

// RequestRepository defines persistence operations for Request
type RequestRepository interface {
	Create(ctx context.Context, req *entity.Request) error
	GetByID(ctx context.Context, id string) (*entity.Request, error)
	ListByFood(ctx context.Context, foodID string) ([]*entity.Request, error)
	ListByNGO(ctx context.Context, ngoID string) ([]*entity.Request, error)
	Update(ctx context.Context, req *entity.Request) error
}

// TaskRepository defines persistence operations for Task
type TaskRepository interface {
	Create(ctx context.Context, task *entity.Task) error
	GetByID(ctx context.Context, id string) (*entity.Task, error)
	GetByRequestID(ctx context.Context, requestID string) (*entity.Task, error)
	ListByFood(ctx context.Context, foodID string) ([]*entity.Task, error)
	ListByVolunteer(ctx context.Context, volunteerID string) ([]*entity.Task, error)
	Update(ctx context.Context, task *entity.Task) error
}

// UserRepository defines persistence operations for User
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// UpdateAccountStatus reports false when the user does not exist
	UpdateAccountStatus(ctx context.Context, id, status string, at time.Time) (bool, error)
}

// NotificationRepository is both the user inbox and the delivery outbox
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	GetByID(ctx context.Context, id string) (*entity.Notification, error)
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*entity.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, userID string, at time.Time) (bool, error)
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error)

	// ListUndelivered returns PENDING and FAILED rows with fewer than maxAttempts attempts, oldest first
	ListUndelivered(ctx context.Context, limit, maxAttempts int) ([]*entity.Notification, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, errMsg string, at time.Time) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
