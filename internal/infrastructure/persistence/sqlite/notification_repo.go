package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/foodlink/donation-coordinator/internal/application/port"
	"github.com/foodlink/donation-coordinator/internal/domain/entity"
)

const notificationColumns = `id, user_id, title, message, category, food_id, request_id, task_id,
	read_at, delivery_status, attempts, last_error, sent_at, created_at, updated_at`

// NotificationRepository implements port.NotificationRepository.
// Each row is an inbox entry and an outbox entry at once.
type NotificationRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create enqueues a notification
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	query := `INSERT INTO notifications (` + notificationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if n.DeliveryStatus == "" {
		n.DeliveryStatus = entity.NotificationStatusPending
	}
	now := time.Now().UTC()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = n.CreatedAt
	}

	_, err := r.db.executor(ctx).ExecContext(ctx, query,
		n.ID,
		n.UserID,
		n.Title,
		n.Message,
		n.Category,
		nullString(n.FoodID),
		nullString(n.RequestID),
		nullString(n.TaskID),
		nullTime(n.ReadAt),
		n.DeliveryStatus,
		n.Attempts,
		nullString(n.LastError),
		nullTime(n.SentAt),
		n.CreatedAt.UTC(),
		n.UpdatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create notification",
			zap.String("notification_id", n.ID),
			zap.String("user_id", n.UserID),
			zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", mapError(err))
	}
	return nil
}

// GetByID retrieves a notification, or nil if it does not exist
func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = ?`

	n, err := scanNotification(r.db.executor(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get notification", zap.String("notification_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

// ListByUser returns a user's inbox, newest first
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*entity.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`

	return r.list(ctx, query, userID, limit)
}

// CountUnread counts a user's unread notifications
func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.executor(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read_at IS NULL`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks one notification read. It reports false when the
// notification does not exist or belongs to someone else.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string, at time.Time) (bool, error) {
	res, err := r.db.executor(ctx).ExecContext(ctx, `
		UPDATE notifications SET read_at = COALESCE(read_at, ?), updated_at = ?
		WHERE id = ? AND user_id = ?
	`, at.UTC(), at.UTC(), id, userID)
	if err != nil {
		r.logger.Error("Failed to mark notification read", zap.String("notification_id", id), zap.Error(err))
		return false, fmt.Errorf("failed to mark notification read: %w", mapError(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// MarkAllRead marks every unread notification of a user read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	res, err := r.db.executor(ctx).ExecContext(ctx, `
		UPDATE notifications SET read_at = ?, updated_at = ?
		WHERE user_id = ? AND read_at IS NULL
	`, at.UTC(), at.UTC(), userID)
	if err != nil {
		r.logger.Error("Failed to mark inbox read", zap.String("user_id", userID), zap.Error(err))
		return 0, fmt.Errorf("failed to mark inbox read: %w", mapError(err))
	}
	return res.RowsAffected()
}

// ListUndelivered returns outbox rows still due for delivery, oldest first
func (r *NotificationRepository) ListUndelivered(ctx context.Context, limit, maxAttempts int) ([]*entity.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE delivery_status IN (?, ?) AND attempts < ?
		ORDER BY created_at, rowid
		LIMIT ?
	`
	return r.list(ctx, query,
		entity.NotificationStatusPending,
		entity.NotificationStatusFailed,
		maxAttempts,
		limit,
	)
}

// MarkSent records a successful hand-off
func (r *NotificationRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.executor(ctx).ExecContext(ctx, `
		UPDATE notifications
		SET delivery_status = ?, attempts = attempts + 1, last_error = NULL, sent_at = ?, updated_at = ?
		WHERE id = ?
	`, entity.NotificationStatusSent, at.UTC(), at.UTC(), id)
	if err != nil {
		r.logger.Error("Failed to mark notification sent", zap.String("notification_id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification sent: %w", mapError(err))
	}
	return nil
}

// MarkFailed records a failed attempt; the row stays due until it runs out of attempts
func (r *NotificationRepository) MarkFailed(ctx context.Context, id string, errMsg string, at time.Time) error {
	_, err := r.db.executor(ctx).ExecContext(ctx, `
		UPDATE notifications
		SET delivery_status = ?, attempts = attempts + 1, last_error = ?, updated_at = ?
		WHERE id = ?
	`, entity.NotificationStatusFailed, errMsg, at.UTC(), id)
	if err != nil {
		r.logger.Error("Failed to mark notification failed", zap.String("notification_id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification failed: %w", mapError(err))
	}
	return nil
}

func (r *NotificationRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.Notification, error) {
	rows, err := r.db.executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []*entity.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func scanNotification(row rowScanner) (*entity.Notification, error) {
	var (
		n                     entity.Notification
		foodID, reqID, taskID sql.NullString
		lastError             sql.NullString
		readAt, sentAt        sql.NullTime
	)

	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Title,
		&n.Message,
		&n.Category,
		&foodID,
		&reqID,
		&taskID,
		&readAt,
		&n.DeliveryStatus,
		&n.Attempts,
		&lastError,
		&sentAt,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	n.FoodID = foodID.String
	n.RequestID = reqID.String
	n.TaskID = taskID.String
	n.LastError = lastError.String
	n.ReadAt = timePtr(readAt)
	n.Read = readAt.Valid
	n.SentAt = timePtr(sentAt)
	n.CreatedAt = n.CreatedAt.UTC()
	n.UpdatedAt = n.UpdatedAt.UTC()
	return &n, nil
}

// Verify interface compliance
var _ port.NotificationRepository = (*NotificationRepository)(nil)
