package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

type taskEventRepository struct {
	pool *pgxpool.Pool
}

// NewTaskEventRepository creates a Postgres-backed task history store.
func NewTaskEventRepository(pool *pgxpool.Pool) repository.TaskEventRepository {
	return &taskEventRepository{pool: pool}
}

func (r *taskEventRepository) Append(ctx context.Context, event domain.TaskEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO task_events (id, task_id, user_id, name, payload, created_at)
	VALUES ($1, $2, $3, $4, COALESCE($5::jsonb, '{}'::jsonb), COALESCE($6, NOW()))
	`

	var payload []byte
	if len(event.Payload) > 0 {
		payload = []byte(event.Payload)
	}

	if _, err := r.pool.Exec(ctx, query,
		event.ID,
		event.TaskID,
		event.UserID,
		event.Name,
		payload,
		nullTime(event.CreatedAt),
	); err != nil {
		return fmt.Errorf("append task event: %w", err)
	}
	return nil
}

func (r *taskEventRepository) ListByTask(ctx context.Context, taskID string, limit int) ([]domain.TaskEvent, error) {
	const query = `
	SELECT id, task_id, user_id, name, payload, created_at
	FROM task_events
	WHERE task_id = $1
	ORDER BY created_at ASC
	LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, taskID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list task events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.TaskEvent, 0)
	for rows.Next() {
		var (
			event   domain.TaskEvent
			payload []byte
		)
		if err := rows.Scan(&event.ID, &event.TaskID, &event.UserID, &event.Name, &payload, &event.CreatedAt); err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			event.Payload = append([]byte(nil), payload...)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
