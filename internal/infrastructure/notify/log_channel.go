package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/foodlink/donation-coordinator/internal/application/port"
	"github.com/foodlink/donation-coordinator/internal/domain/entity"
)

// LogChannel writes notifications to the application log. It is used when
// no external channel is configured.
type LogChannel struct {
	logger *zap.Logger
}

// NewLogChannel creates a new log notification channel
func NewLogChannel(logger *zap.Logger) *LogChannel {
	return &LogChannel{logger: logger}
}

func (c *LogChannel) Name() string { return "log" }

// Deliver implements port.NotificationChannel
func (c *LogChannel) Deliver(_ context.Context, n *entity.Notification, recipient *entity.User) error {
	c.logger.Info("Notification",
		zap.String("notification_id", n.ID),
		zap.String("user_id", recipient.ID),
		zap.String("role", recipient.Role.String()),
		zap.String("category", string(n.Category)),
		zap.String("title", n.Title))
	return nil
}

var _ port.NotificationChannel = (*LogChannel)(nil)
