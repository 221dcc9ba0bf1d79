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

const taskColumns = `t.id, t.request_id, t.volunteer_id, t.status, t.assigned_at, t.accepted_at,
	t.picked_up_at, t.reached_ngo_at, t.completed_at, t.cancelled_at, t.version, t.created_at, t.updated_at`

// TaskRepository implements port.TaskRepository
type TaskRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB, logger *zap.Logger) port.TaskRepository {
	return &TaskRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a task. A second task for the same request reports a version conflict.
func (r *TaskRepository) Create(ctx context.Context, task *entity.Task) error {
	query := `
		INSERT INTO tasks (
			id, request_id, volunteer_id, status, assigned_at, accepted_at,
			picked_up_at, reached_ngo_at, completed_at, cancelled_at, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if task.Version == 0 {
		task.Version = 1
	}
	_, err := r.db.executor(ctx).ExecContext(ctx, query,
		task.ID,
		task.RequestID,
		task.VolunteerID,
		task.Status,
		task.AssignedAt.UTC(),
		nullTime(task.AcceptedAt),
		nullTime(task.PickedUpAt),
		nullTime(task.ReachedNGOAt),
		nullTime(task.CompletedAt),
		nullTime(task.CancelledAt),
		task.Version,
		task.CreatedAt.UTC(),
		task.UpdatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create task",
			zap.String("task_id", task.ID),
			zap.String("request_id", task.RequestID),
			zap.Error(err))
		return fmt.Errorf("failed to create task: %w", mapError(err))
	}
	return nil
}

// GetByID retrieves a task, or nil if it does not exist
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*entity.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.id = ?`
	return r.get(ctx, query, id)
}

// GetByRequestID retrieves the task of a request, or nil if none was assigned
func (r *TaskRepository) GetByRequestID(ctx context.Context, requestID string) (*entity.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.request_id = ?`
	return r.get(ctx, query, requestID)
}

func (r *TaskRepository) get(ctx context.Context, query, arg string) (*entity.Task, error) {
	task, err := scanTask(r.db.executor(ctx).QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get task", zap.String("key", arg), zap.Error(err))
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// ListByFood returns the tasks of every request for a lot
func (r *TaskRepository) ListByFood(ctx context.Context, foodID string) ([]*entity.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks t
		JOIN requests rq ON rq.id = t.request_id
		WHERE rq.food_id = ?
		ORDER BY t.created_at, t.rowid
	`
	return r.list(ctx, query, foodID)
}

// ListByVolunteer returns a volunteer's tasks, newest first
func (r *TaskRepository) ListByVolunteer(ctx context.Context, volunteerID string) ([]*entity.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.volunteer_id = ? ORDER BY t.created_at DESC, t.rowid DESC`
	return r.list(ctx, query, volunteerID)
}

func (r *TaskRepository) list(ctx context.Context, query, arg string) ([]*entity.Task, error) {
	rows, err := r.db.executor(ctx).QueryContext(ctx, query, arg)
	if err != nil {
		r.logger.Error("Failed to list tasks", zap.String("key", arg), zap.Error(err))
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*entity.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// Update writes the task if its stored version still equals task.Version
func (r *TaskRepository) Update(ctx context.Context, task *entity.Task) error {
	query := `
		UPDATE tasks SET
			status = ?, accepted_at = ?, picked_up_at = ?, reached_ngo_at = ?,
			completed_at = ?, cancelled_at = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	res, err := r.db.executor(ctx).ExecContext(ctx, query,
		task.Status,
		nullTime(task.AcceptedAt),
		nullTime(task.PickedUpAt),
		nullTime(task.ReachedNGOAt),
		nullTime(task.CompletedAt),
		nullTime(task.CancelledAt),
		task.UpdatedAt.UTC(),
		task.ID,
		task.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update task", zap.String("task_id", task.ID), zap.Error(err))
		return fmt.Errorf("failed to update task: %w", mapError(err))
	}
	if err := checkVersioned(res); err != nil {
		return err
	}

	task.Version++
	return nil
}

func scanTask(row rowScanner) (*entity.Task, error) {
	var (
		task                                       entity.Task
		accepted, pickedUp, reached, done, dropped sql.NullTime
	)

	err := row.Scan(
		&task.ID,
		&task.RequestID,
		&task.VolunteerID,
		&task.Status,
		&task.AssignedAt,
		&accepted,
		&pickedUp,
		&reached,
		&done,
		&dropped,
		&task.Version,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.AssignedAt = task.AssignedAt.UTC()
	task.AcceptedAt = timePtr(accepted)
	task.PickedUpAt = timePtr(pickedUp)
	task.ReachedNGOAt = timePtr(reached)
	task.CompletedAt = timePtr(done)
	task.CancelledAt = timePtr(dropped)
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
	return &task, nil
}

// Verify interface compliance
var _ port.TaskRepository = (*TaskRepository)(nil)
