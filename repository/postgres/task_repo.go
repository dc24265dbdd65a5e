package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

const taskColumns = `id, user_id, text, description, status, priority, due_date, created_at, updated_at`

type taskRepository struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
// Due dates are returned in loc, the zone they were normalized in.
func NewTaskRepository(pool *pgxpool.Pool, loc *time.Location) repository.TaskRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &taskRepository{pool: pool, loc: loc}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrTaskNotFound
	}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return r.scan(r.pool.QueryRow(ctx, query, id))
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	if filter.UserID == "" {
		return []domain.Task{}, nil
	}

	query, args := listQuery(filter)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// listQuery pages only when filter.Limit is set; a zero limit returns the whole window.
func listQuery(filter repository.TaskFilter) (string, []interface{}) {
	query := `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE user_id = $1
	  AND due_date BETWEEN $2 AND $3
	  AND ($4 = '' OR text ILIKE $4 ESCAPE '\')
	ORDER BY due_date ASC, created_at ASC`
	args := []interface{}{filter.UserID, filter.From, filter.To, containsPattern(filter.Search)}

	if filter.Limit > 0 {
		query += ` LIMIT $5 OFFSET $6`
		args = append(args, clampLimit(filter.Limit), max(filter.Offset, 0))
	} else if filter.Offset > 0 {
		query += ` OFFSET $5`
		args = append(args, filter.Offset)
	}
	return query, args
}

func (r *taskRepository) FindDuplicate(ctx context.Context, userID, text string, date time.Time, excludeID string) (*domain.Task, error) {
	query := `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE user_id = $1
	  AND text = $2
	  AND due_date = $3
	  AND ($4 = '' OR id::text <> $4)
	LIMIT 1
	`
	return r.scan(r.pool.QueryRow(ctx, query, userID, text, date, excludeID))
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO tasks (id, user_id, text, description, status, priority, due_date)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.UserID,
		task.Text,
		task.Description,
		string(task.Status),
		string(task.Priority),
		task.Date,
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateTask
		}
		return nil, fmt.Errorf("insert task: %w", err)
	}

	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE tasks
	SET text = $2,
		description = $3,
		priority = $4,
		due_date = $5,
		updated_at = NOW()
	WHERE id = $1
	RETURNING status, created_at, updated_at
	`

	var status string
	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.Text,
		task.Description,
		string(task.Priority),
		task.Date,
	).Scan(&status, &task.CreatedAt, &task.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		if isUniqueViolation(err) {
			return domain.ErrDuplicateTask
		}
		return fmt.Errorf("update task: %w", err)
	}
	task.Status = domain.Status(status)

	return nil
}

func (r *taskRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	const query = `UPDATE tasks SET status = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tasks WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *taskRepository) scan(row rowScanner) (*domain.Task, error) {
	task, err := scanTask(row)
	if err != nil {
		return nil, err
	}
	task.Date = task.Date.In(r.loc)
	return task, nil
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task     domain.Task
		status   string
		priority string
	)

	if err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Text,
		&task.Description,
		&status,
		&priority,
		&task.Date,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Status = domain.Status(status)
	task.Priority = domain.Priority(priority)
	return &task, nil
}
