package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/foodlink/donation-coordinator/internal/application/port"
	"github.com/foodlink/donation-coordinator/internal/domain/entity"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const foodColumns = `id, donor_id, title, description, quantity_amount, quantity_unit, status,
	expires_at, pickup_address, pickup_lat, pickup_lng, version, created_at, updated_at`

// FoodRepository implements port.FoodRepository
type FoodRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewFoodRepository creates a new food repository
func NewFoodRepository(db *DB, logger *zap.Logger) port.FoodRepository {
	return &FoodRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new food lot
func (r *FoodRepository) Create(ctx context.Context, food *entity.Food) error {
	query := `INSERT INTO foods (` + foodColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if food.Version == 0 {
		food.Version = 1
	}
	_, err := r.db.executor(ctx).ExecContext(ctx, query,
		food.ID,
		food.DonorID,
		food.Title,
		nullString(food.Description),
		food.Quantity.Amount,
		food.Quantity.Unit,
		food.Status,
		nullTimeValue(food.ExpiresAt),
		nullString(food.Pickup.Address),
		food.Pickup.Latitude,
		food.Pickup.Longitude,
		food.Version,
		food.CreatedAt.UTC(),
		food.UpdatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create food", zap.String("food_id", food.ID), zap.Error(err))
		return fmt.Errorf("failed to create food: %w", mapError(err))
	}
	return nil
}

// GetByID retrieves a food lot, or nil if it does not exist
func (r *FoodRepository) GetByID(ctx context.Context, id string) (*entity.Food, error) {
	query := `SELECT ` + foodColumns + ` FROM foods WHERE id = ?`

	food, err := scanFood(r.db.executor(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get food by ID", zap.String("food_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get food: %w", err)
	}
	return food, nil
}

// Update writes the lot if its stored version still equals food.Version
func (r *FoodRepository) Update(ctx context.Context, food *entity.Food) error {
	query := `
		UPDATE foods SET
			title = ?, description = ?, quantity_amount = ?, quantity_unit = ?, status = ?,
			expires_at = ?, pickup_address = ?, pickup_lat = ?, pickup_lng = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	res, err := r.db.executor(ctx).ExecContext(ctx, query,
		food.Title,
		nullString(food.Description),
		food.Quantity.Amount,
		food.Quantity.Unit,
		food.Status,
		nullTimeValue(food.ExpiresAt),
		nullString(food.Pickup.Address),
		food.Pickup.Latitude,
		food.Pickup.Longitude,
		food.UpdatedAt.UTC(),
		food.ID,
		food.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update food", zap.String("food_id", food.ID), zap.Error(err))
		return fmt.Errorf("failed to update food: %w", mapError(err))
	}
	if err := checkVersioned(res); err != nil {
		return err
	}

	food.Version++
	return nil
}

// List returns lots matching the filter, newest first
func (r *FoodRepository) List(ctx context.Context, filter port.FoodFilter) ([]*entity.Food, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.DonorID != "" {
		where = append(where, "donor_id = ?")
		args = append(args, filter.DonorID)
	}

	query := `SELECT ` + foodColumns + ` FROM foods`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := r.db.executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list foods", zap.Error(err))
		return nil, fmt.Errorf("failed to list foods: %w", err)
	}
	defer rows.Close()

	var foods []*entity.Food
	for rows.Next() {
		food, err := scanFood(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan food: %w", err)
		}
		foods = append(foods, food)
	}
	return foods, rows.Err()
}

func scanFood(row rowScanner) (*entity.Food, error) {
	var (
		food        entity.Food
		description sql.NullString
		address     sql.NullString
		lat, lng    sql.NullFloat64
		expiresAt   sql.NullTime
	)

	err := row.Scan(
		&food.ID,
		&food.DonorID,
		&food.Title,
		&description,
		&food.Quantity.Amount,
		&food.Quantity.Unit,
		&food.Status,
		&expiresAt,
		&address,
		&lat,
		&lng,
		&food.Version,
		&food.CreatedAt,
		&food.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	food.Description = description.String
	food.Pickup = entity.Location{Address: address.String, Latitude: lat.Float64, Longitude: lng.Float64}
	if expiresAt.Valid {
		food.ExpiresAt = expiresAt.Time.UTC()
	}
	food.CreatedAt = food.CreatedAt.UTC()
	food.UpdatedAt = food.UpdatedAt.UTC()
	return &food, nil
}

// Verify interface compliance
var _ port.FoodRepository = (*FoodRepository)(nil)
