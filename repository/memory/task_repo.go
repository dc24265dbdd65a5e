package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

type taskRepository struct {
	s *Store
}

// Tasks returns the task repository view of the store.
func (s *Store) Tasks() repository.TaskRepository {
	return &taskRepository{s: s}
}

func (r *taskRepository) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	task, ok := r.s.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return &task, nil
}

func (r *taskRepository) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	tasks := make([]domain.Task, 0)
	if filter.UserID == "" {
		return tasks, nil
	}

	search := strings.ToLower(filter.Search)

	r.s.mu.RLock()
	for _, task := range r.s.tasks {
		if task.UserID != filter.UserID {
			continue
		}
		if task.Date.Before(filter.From) || task.Date.After(filter.To) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(task.Text), search) {
			continue
		}
		tasks = append(tasks, task)
	}
	r.s.mu.RUnlock()

	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].Date.Equal(tasks[j].Date) {
			return tasks[i].Date.Before(tasks[j].Date)
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(tasks) {
			return tasks[:0], nil
		}
		tasks = tasks[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(tasks) {
		tasks = tasks[:filter.Limit]
	}
	return tasks, nil
}

func (r *taskRepository) FindDuplicate(_ context.Context, userID, text string, date time.Time, excludeID string) (*domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if task, ok := r.findDuplicateLocked(userID, text, date, excludeID); ok {
		return &task, nil
	}
	return nil, domain.ErrTaskNotFound
}

// Create enforces the (user, text, date) uniqueness the Postgres schema declares.
func (r *taskRepository) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, dup := r.findDuplicateLocked(task.UserID, task.Text, task.Date, ""); dup {
		return nil, domain.ErrDuplicateTask
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := r.s.now()
	task.CreatedAt = now
	task.UpdatedAt = now
	r.s.tasks[task.ID] = *task
	return task, nil
}

func (r *taskRepository) Update(_ context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.tasks[task.ID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	if _, dup := r.findDuplicateLocked(stored.UserID, task.Text, task.Date, task.ID); dup {
		return domain.ErrDuplicateTask
	}

	stored.Text = task.Text
	stored.Description = task.Description
	stored.Priority = task.Priority
	stored.Date = task.Date
	stored.UpdatedAt = r.s.now()
	r.s.tasks[task.ID] = stored
	*task = stored
	return nil
}

func (r *taskRepository) UpdateStatus(_ context.Context, id string, status domain.Status) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.tasks[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	stored.Status = status
	stored.UpdatedAt = r.s.now()
	r.s.tasks[id] = stored
	return nil
}

func (r *taskRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.s.tasks, id)
	return nil
}

func (r *taskRepository) findDuplicateLocked(userID, text string, date time.Time, excludeID string) (domain.Task, bool) {
	for id, task := range r.s.tasks {
		if id == excludeID {
			continue
		}
		if task.UserID == userID && task.Text == text && task.Date.Equal(date) {
			return task, true
		}
	}
	return domain.Task{}, false
}

type taskEventRepository struct {
	s *Store
}

// TaskEvents returns the task history view of the store.
func (s *Store) TaskEvents() repository.TaskEventRepository {
	return &taskEventRepository{s: s}
}

func (r *taskEventRepository) Append(_ context.Context, event domain.TaskEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.s.now()
	}
	r.s.events[event.TaskID] = append(r.s.events[event.TaskID], event)
	return nil
}

func (r *taskEventRepository) ListByTask(_ context.Context, taskID string, limit int) ([]domain.TaskEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	events := append([]domain.TaskEvent{}, r.s.events[taskID]...)
	if limit > 0 && limit < len(events) {
		events = events[:limit]
	}
	return events, nil
}
