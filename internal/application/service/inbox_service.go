package service

import (
	"context"
	"fmt"
	"time"

	"github.com/foodlink/donation-coordinator/internal/application/port"
	"github.com/foodlink/donation-coordinator/internal/domain/entity"
	"github.com/foodlink/donation-coordinator/internal/domain/lifecycle"
)

// DefaultInboxLimit caps inbox listings when the caller passes no limit
const DefaultInboxLimit = 50

// Inbox is one page of a user's notifications
type Inbox struct {
	Items  []*entity.Notification `json:"items"`
	Unread int                    `json:"unread"`
}

// InboxService exposes the notifications each transition enqueues
type InboxService interface {
	List(ctx context.Context, userID string, unreadOnly bool, limit int) (*Inbox, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type inboxServiceImpl struct {
	notifications port.NotificationRepository
	now           func() time.Time
	logger        Logger
}

// NewInboxService creates a new InboxService
func NewInboxService(repos Repositories, logger Logger) InboxService {
	return &inboxServiceImpl{
		notifications: repos.Notifications,
		now:           func() time.Time { return time.Now().UTC() },
		logger:        logger,
	}
}

func (s *inboxServiceImpl) List(ctx context.Context, userID string, unreadOnly bool, limit int) (*Inbox, error) {
	if limit <= 0 || limit > DefaultInboxLimit {
		limit = DefaultInboxLimit
	}

	items, err := s.notifications.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	unread, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count unread: %w", err)
	}
	if items == nil {
		items = []*entity.Notification{}
	}
	return &Inbox{Items: items, Unread: unread}, nil
}

func (s *inboxServiceImpl) MarkRead(ctx context.Context, userID, notificationID string) error {
	ok, err := s.notifications.MarkRead(ctx, notificationID, userID, s.now())
	if err != nil {
		s.logger.Error("Failed to mark notification read", "error", err, "notification_id", notificationID)
		return fmt.Errorf("mark read: %w", err)
	}
	if !ok {
		return &lifecycle.Error{Kind: lifecycle.ErrNotFound, Entity: "notification", ID: notificationID, Reason: "no such notification in this inbox"}
	}
	return nil
}

func (s *inboxServiceImpl) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.notifications.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		s.logger.Error("Failed to mark inbox read", "error", err, "user_id", userID)
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return n, nil
}
