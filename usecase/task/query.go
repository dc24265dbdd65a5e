package task

import (
	"context"
	"time"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

// ListQuery selects tasks around a reference date. A zero Date means today and an empty
// View means the day view.
type ListQuery struct {
	Date   time.Time
	View   domain.View
	Search string
}

// ListResult is the resolved window together with the matching tasks.
type ListResult struct {
	View   domain.View   `json:"view"`
	Window domain.Window `json:"window"`
	Tasks  []domain.Task `json:"tasks"`
}

// ListTasks returns the tasks of userID dated inside the query window. An unauthenticated
// caller gets an empty list.
func (uc *UseCase) ListTasks(ctx context.Context, userID string, q ListQuery) (*ListResult, error) {
	view := q.View
	if view == "" {
		view = domain.ViewDay
	}

	ref := q.Date
	if ref.IsZero() || view == domain.ViewToday {
		ref = uc.now()
	}
	ref = ref.In(uc.location)

	window, err := domain.ComputeWindow(view, ref)
	if err != nil {
		return nil, err
	}

	result := &ListResult{View: view, Window: window, Tasks: []domain.Task{}}
	if userID == "" {
		return result, nil
	}

	tasks, err := uc.tasks.List(ctx, repository.TaskFilter{
		UserID: userID,
		From:   window.Start,
		To:     window.End,
		Search: q.Search,
	})
	if err != nil {
		uc.metrics.TaskOperation("list", "error")
		return nil, err
	}
	uc.metrics.TaskOperation("list", "ok")

	result.Tasks = tasks
	return result, nil
}
