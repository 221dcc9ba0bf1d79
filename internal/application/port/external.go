package port

import (
	"context"
	"errors"

	"github.com/foodlink/donation-coordinator/internal/domain/entity"
)

// ErrNoAddress is returned by a channel that has no address for the recipient.
// The relay treats it as a skip, not a failure.
var ErrNoAddress = errors.New("recipient has no address on this channel")

// NotificationChannel hands an inbox notification to an external system
type NotificationChannel interface {
	Name() string
	Deliver(ctx context.Context, n *entity.Notification, recipient *entity.User) error
}
