package repository

import (
	"context"
	"time"

	"github.com/fastygo/planner/domain"
)

// TaskFilter scopes a listing. An empty UserID matches nothing.
type TaskFilter struct {
	UserID string
	From   time.Time
	To     time.Time
	Search string
	Limit  int
	Offset int
}

type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	// FindDuplicate returns a task of userID with the same text and date, ignoring excludeID.
	// It returns domain.ErrTaskNotFound when none exists.
	FindDuplicate(ctx context.Context, userID, text string, date time.Time, excludeID string) (*domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	UpdateStatus(ctx context.Context, id string, status domain.Status) error
	Delete(ctx context.Context, id string) error
}

type TaskEventRepository interface {
	Append(ctx context.Context, event domain.TaskEvent) error
	ListByTask(ctx context.Context, taskID string, limit int) ([]domain.TaskEvent, error)
}
