package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/foodlink/donation-coordinator/internal/application/port"
	"github.com/foodlink/donation-coordinator/internal/domain/entity"
)

// DefaultRedisKey is the list notifications are pushed onto
const DefaultRedisKey = "donation:notifications"

// NewRedisClient connects to a Redis server
func NewRedisClient(addr string) (rueidis.Client, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}
	return client, nil
}

// Message is the JSON document pushed to Redis for downstream consumers
type Message struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Role      entity.Role     `json:"role"`
	Category  entity.Category `json:"category"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	FoodID    string          `json:"food_id,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
	TaskID    string          `json:"task_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// EncodeMessage builds the queued payload for a notification
func EncodeMessage(n *entity.Notification, recipient *entity.User) ([]byte, error) {
	return json.Marshal(Message{
		ID:        n.ID,
		UserID:    n.UserID,
		Role:      recipient.Role,
		Category:  n.Category,
		Title:     n.Title,
		Message:   n.Message,
		FoodID:    n.FoodID,
		RequestID: n.RequestID,
		TaskID:    n.TaskID,
		CreatedAt: n.CreatedAt,
	})
}

// RedisChannel pushes every notification onto a Redis list. Push gateways
// and other services consume the list; every recipient is addressable.
type RedisChannel struct {
	client rueidis.Client
	key    string
	logger *zap.Logger
}

// NewRedisChannel creates a new Redis notification channel
func NewRedisChannel(client rueidis.Client, key string, logger *zap.Logger) *RedisChannel {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisChannel{client: client, key: key, logger: logger}
}

func (c *RedisChannel) Name() string { return "redis" }

// Deliver implements port.NotificationChannel
func (c *RedisChannel) Deliver(ctx context.Context, n *entity.Notification, recipient *entity.User) error {
	payload, err := EncodeMessage(n, recipient)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	cmd := c.client.B().Rpush().Key(c.key).Element(string(payload)).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		c.logger.Warn("Redis delivery failed",
			zap.String("notification_id", n.ID),
			zap.String("key", c.key),
			zap.Error(err))
		return fmt.Errorf("failed to push notification: %w", err)
	}
	return nil
}

// Ping checks the Redis connection
func (c *RedisChannel) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

var _ port.NotificationChannel = (*RedisChannel)(nil)
