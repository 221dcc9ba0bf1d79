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

// UserRepository implements port.UserRepository
type UserRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB, logger *zap.Logger) port.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a user
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (
			id, name, email, role, account_status, lark_open_id, telegram_chat_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var chatID sql.NullInt64
	if user.TelegramChatID != 0 {
		chatID = sql.NullInt64{Int64: user.TelegramChatID, Valid: true}
	}

	_, err := r.db.executor(ctx).ExecContext(ctx, query,
		user.ID,
		user.Name,
		nullString(user.Email),
		user.Role,
		user.AccountStatus,
		nullString(user.LarkOpenID),
		chatID,
		user.CreatedAt.UTC(),
		user.UpdatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create user", zap.String("user_id", user.ID), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", mapError(err))
	}
	return nil
}

// GetByID retrieves a user, or nil if it does not exist
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	query := `
		SELECT id, name, email, role, account_status, lark_open_id, telegram_chat_id, created_at, updated_at
		FROM users
		WHERE id = ?
	`

	var (
		user              entity.User
		email, larkOpenID sql.NullString
		chatID            sql.NullInt64
	)
	err := r.db.executor(ctx).QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&email,
		&user.Role,
		&user.AccountStatus,
		&larkOpenID,
		&chatID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user by ID", zap.String("user_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Email = email.String
	user.LarkOpenID = larkOpenID.String
	user.TelegramChatID = chatID.Int64
	return &user, nil
}

// UpdateAccountStatus sets the vetting status of a user
func (r *UserRepository) UpdateAccountStatus(ctx context.Context, id, status string, at time.Time) (bool, error) {
	res, err := r.db.executor(ctx).ExecContext(ctx,
		`UPDATE users SET account_status = ?, updated_at = ? WHERE id = ?`,
		status, at.UTC(), id,
	)
	if err != nil {
		r.logger.Error("Failed to update account status", zap.String("user_id", id), zap.Error(err))
		return false, fmt.Errorf("failed to update account status: %w", mapError(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// Verify interface compliance
var _ port.UserRepository = (*UserRepository)(nil)
