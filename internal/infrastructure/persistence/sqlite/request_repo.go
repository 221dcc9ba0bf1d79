package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/foodlink/donation-coordinator/internal/application/port"
	"github.com/foodlink/donation-coordinator/internal/domain/entity"
)

const requestColumns = `id, food_id, ngo_id, quantity_amount, quantity_unit, status,
	rejection_reason, rejection_note, rating, feedback, version, created_at, updated_at`

// RequestRepository implements port.RequestRepository
type RequestRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a request. A second active request from the same NGO, or a
// second winner for the lot, violates a unique index and reports a version conflict.
func (r *RequestRepository) Create(ctx context.Context, req *entity.Request) error {
	query := `INSERT INTO requests (` + requestColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if req.Version == 0 {
		req.Version = 1
	}
	_, err := r.db.executor(ctx).ExecContext(ctx, query,
		req.ID,
		req.FoodID,
		req.NGOID,
		req.Quantity.Amount,
		req.Quantity.Unit,
		req.Status,
		nullString(req.RejectionReason),
		nullString(req.RejectionNote),
		nullRating(req.Rating),
		nullString(req.Feedback),
		req.Version,
		req.CreatedAt.UTC(),
		req.UpdatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create request",
			zap.String("request_id", req.ID),
			zap.String("food_id", req.FoodID),
			zap.Error(err))
		return fmt.Errorf("failed to create request: %w", mapError(err))
	}
	return nil
}

// GetByID retrieves a request, or nil if it does not exist
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*entity.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = ?`

	req, err := scanRequest(r.db.executor(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get request by ID", zap.String("request_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// ListByFood returns every request for a lot in submission order
func (r *RequestRepository) ListByFood(ctx context.Context, foodID string) ([]*entity.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE food_id = ? ORDER BY created_at, rowid`
	return r.list(ctx, query, foodID)
}

// ListByNGO returns an NGO's requests, newest first
func (r *RequestRepository) ListByNGO(ctx context.Context, ngoID string) ([]*entity.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE ngo_id = ? ORDER BY created_at DESC, rowid DESC`
	return r.list(ctx, query, ngoID)
}

func (r *RequestRepository) list(ctx context.Context, query string, arg string) ([]*entity.Request, error) {
	rows, err := r.db.executor(ctx).QueryContext(ctx, query, arg)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.String("key", arg), zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// Update writes the request if its stored version still equals req.Version
func (r *RequestRepository) Update(ctx context.Context, req *entity.Request) error {
	query := `
		UPDATE requests SET
			status = ?, rejection_reason = ?, rejection_note = ?, rating = ?, feedback = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	res, err := r.db.executor(ctx).ExecContext(ctx, query,
		req.Status,
		nullString(req.RejectionReason),
		nullString(req.RejectionNote),
		nullRating(req.Rating),
		nullString(req.Feedback),
		req.UpdatedAt.UTC(),
		req.ID,
		req.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update request", zap.String("request_id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to update request: %w", mapError(err))
	}
	if err := checkVersioned(res); err != nil {
		return err
	}

	req.Version++
	return nil
}

func nullRating(rating *int) sql.NullInt64 {
	if rating == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*rating), Valid: true}
}

func scanRequest(row rowScanner) (*entity.Request, error) {
	var (
		req      entity.Request
		reason   sql.NullString
		note     sql.NullString
		rating   sql.NullInt64
		feedback sql.NullString
	)

	err := row.Scan(
		&req.ID,
		&req.FoodID,
		&req.NGOID,
		&req.Quantity.Amount,
		&req.Quantity.Unit,
		&req.Status,
		&reason,
		&note,
		&rating,
		&feedback,
		&req.Version,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.RejectionReason = reason.String
	req.RejectionNote = note.String
	req.Feedback = feedback.String
	if rating.Valid {
		v := int(rating.Int64)
		req.Rating = &v
	}
	req.CreatedAt = req.CreatedAt.UTC()
	req.UpdatedAt = req.UpdatedAt.UTC()
	return &req, nil
}

// Verify interface compliance
var _ port.RequestRepository = (*RequestRepository)(nil)
