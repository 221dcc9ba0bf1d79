package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/foodlink/donation-coordinator/internal/application/port"
	"github.com/foodlink/donation-coordinator/internal/domain/entity"
)

// RelayStats counts what one relay pass did
type RelayStats struct {
	Sent    int
	Failed  int
	Skipped int
}

// RelayService pushes undelivered inbox notifications to external channels
type RelayService interface {
	// DeliverPending hands one batch of outbox rows to every channel
	DeliverPending(ctx context.Context) (RelayStats, error)
}

// RelayConfig bounds one relay pass
type RelayConfig struct {
	BatchSize   int
	MaxAttempts int
}

type relayServiceImpl struct {
	notifications port.NotificationRepository
	users         port.UserRepository
	channels      []port.NotificationChannel
	config        RelayConfig
	now           func() time.Time
	logger        Logger
}

// NewRelayService creates a new RelayService
func NewRelayService(repos Repositories, channels []port.NotificationChannel, config RelayConfig, logger Logger) RelayService {
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 5
	}
	return &relayServiceImpl{
		notifications: repos.Notifications,
		users:         repos.Users,
		channels:      channels,
		config:        config,
		now:           func() time.Time { return time.Now().UTC() },
		logger:        logger,
	}
}

func (s *relayServiceImpl) DeliverPending(ctx context.Context) (RelayStats, error) {
	var stats RelayStats

	pending, err := s.notifications.ListUndelivered(ctx, s.config.BatchSize, s.config.MaxAttempts)
	if err != nil {
		return stats, fmt.Errorf("list undelivered: %w", err)
	}
	if len(pending) == 0 {
		return stats, nil
	}

	users := make(map[string]*entity.User)
	for _, n := range pending {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		recipient, ok := users[n.UserID]
		if !ok {
			recipient, err = s.users.GetByID(ctx, n.UserID)
			if err != nil {
				return stats, fmt.Errorf("get recipient: %w", err)
			}
			users[n.UserID] = recipient
		}

		if recipient == nil {
			if err := s.notifications.MarkFailed(ctx, n.ID, "recipient does not exist", s.now()); err != nil {
				return stats, fmt.Errorf("mark failed: %w", err)
			}
			stats.Failed++
			continue
		}

		delivered, failures := s.deliver(ctx, n, recipient)
		switch {
		case len(failures) > 0:
			if err := s.notifications.MarkFailed(ctx, n.ID, strings.Join(failures, "; "), s.now()); err != nil {
				return stats, fmt.Errorf("mark failed: %w", err)
			}
			stats.Failed++
		default:
			// No channel could address the user; the inbox copy is the delivery
			if err := s.notifications.MarkSent(ctx, n.ID, s.now()); err != nil {
				return stats, fmt.Errorf("mark sent: %w", err)
			}
			if delivered == 0 {
				stats.Skipped++
			} else {
				stats.Sent++
			}
		}
	}

	s.logger.Info("Relay pass finished",
		"sent", stats.Sent,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
	)
	return stats, nil
}

// deliver fans the notification out to all channels. It returns how many
// channels accepted it and a message per failing channel.
func (s *relayServiceImpl) deliver(ctx context.Context, n *entity.Notification, recipient *entity.User) (int, []string) {
	var (
		delivered int
		failures  []string
	)
	for _, ch := range s.channels {
		err := ch.Deliver(ctx, n, recipient)
		switch {
		case err == nil:
			delivered++
		case errors.Is(err, port.ErrNoAddress):
		default:
			s.logger.Error("Channel delivery failed",
				"channel", ch.Name(),
				"notification_id", n.ID,
				"user_id", n.UserID,
				"attempt", n.Attempts+1,
				"error", err,
			)
			failures = append(failures, fmt.Sprintf("%s: %v", ch.Name(), err))
		}
	}
	return delivered, failures
}
