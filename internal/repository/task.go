package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"study-assistant-bot/internal/model"
)

// Task-related errors.
var (
	ErrTaskNotFound     = errors.New("task not found or inactive")
	ErrAlreadyCompleted = errors.New("task already completed")
)

// TaskRepository handles tasks and task completion records.
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new TaskRepository instance.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// Create adds a new active task.
func (r *TaskRepository) Create(ctx context.Context, link, description string, points int64, category string) (*model.Task, error) {
	const query = `
		INSERT INTO tasks (link, description, points, category, active, created_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW())
		RETURNING id, link, description, points, category, active, created_at
	`

	var t model.Task
	err := r.pool.QueryRow(ctx, query, link, description, points, category).Scan(
		&t.ID, &t.Link, &t.Description, &t.Points, &t.Category, &t.Active, &t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return &t, nil
}

// Deactivate marks a task inactive. The task row and any completion records
// referencing it are kept.
func (r *TaskRepository) Deactivate(ctx context.Context, taskID int64) error {
	const query = `UPDATE tasks SET active = FALSE WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, taskID)
	if err != nil {
		return fmt.Errorf("failed to deactivate task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// ListActive retrieves all active tasks.
func (r *TaskRepository) ListActive(ctx context.Context) ([]*model.Task, error) {
	const query = `
		SELECT id, link, description, points, category, active, created_at
		FROM tasks
		WHERE active
		ORDER BY created_at
	`
	return r.queryTasks(ctx, query)
}

// ListAvailable retrieves active tasks the account has not completed yet.
func (r *TaskRepository) ListAvailable(ctx context.Context, accountID int64) ([]*model.Task, error) {
	const query = `
		SELECT t.id, t.link, t.description, t.points, t.category, t.active, t.created_at
		FROM tasks t
		WHERE t.active
		  AND NOT EXISTS (
			SELECT 1 FROM task_completions c
			WHERE c.task_id = t.id AND c.account_id = $1
		  )
		ORDER BY t.created_at
	`
	return r.queryTasks(ctx, query, accountID)
}

// Complete records a task completion and credits the reward atomically.
// The (account, task) uniqueness constraint makes the operation idempotent:
// a repeat completion fails with ErrAlreadyCompleted and credits nothing.
func (r *TaskRepository) Complete(ctx context.Context, accountID, taskID int64) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin completion: %w", err)
	}
	defer tx.Rollback(ctx)

	var points int64
	err = tx.QueryRow(ctx, `SELECT points FROM tasks WHERE id = $1 AND active`, taskID).Scan(&points)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrTaskNotFound
		}
		return 0, fmt.Errorf("failed to load task: %w", err)
	}

	result, err := tx.Exec(ctx, `
		INSERT INTO task_completions (account_id, task_id, points_awarded, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (account_id, task_id) DO NOTHING
	`, accountID, taskID, points)
	if err != nil {
		return 0, fmt.Errorf("failed to record completion: %w", err)
	}
	if result.RowsAffected() == 0 {
		return 0, ErrAlreadyCompleted
	}

	result, err = tx.Exec(ctx, `
		UPDATE accounts SET points = points + $2, last_active_at = NOW() WHERE telegram_id = $1
	`, accountID, points)
	if err != nil {
		return 0, fmt.Errorf("failed to credit reward: %w", err)
	}
	if result.RowsAffected() == 0 {
		return 0, ErrAccountNotFound
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transfers (sender_id, recipient_id, amount, kind, created_at)
		VALUES ($1, $1, $2, $3, NOW())
	`, accountID, points, model.KindTaskReward)
	if err != nil {
		return 0, fmt.Errorf("failed to record reward: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit completion: %w", err)
	}
	return points, nil
}

// IsCompleted checks whether the account already completed the task.
func (r *TaskRepository) IsCompleted(ctx context.Context, accountID, taskID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM task_completions WHERE account_id = $1 AND task_id = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, accountID, taskID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check completion: %w", err)
	}
	return exists, nil
}

func (r *TaskRepository) queryTasks(ctx context.Context, query string, args ...any) ([]*model.Task, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.Link, &t.Description, &t.Points, &t.Category, &t.Active, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}
