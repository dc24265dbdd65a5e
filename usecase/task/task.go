package task

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/pkg/logger"
	"github.com/fastygo/planner/repository"
	"github.com/fastygo/planner/usecase"
)

// Deps wires the collaborators of the task use case. Only Tasks is required.
type Deps struct {
	Tasks    repository.TaskRepository
	Events   repository.TaskEventRepository
	Notifier usecase.ChangeNotifier
	Outbox   usecase.CalendarOutbox
	Metrics  usecase.Recorder
	// Location anchors date-only values; defaults to UTC.
	Location *time.Location
}

type UseCase struct {
	tasks    repository.TaskRepository
	events   repository.TaskEventRepository
	notifier usecase.ChangeNotifier
	outbox   usecase.CalendarOutbox
	metrics  usecase.Recorder
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

func New(deps Deps, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = usecase.NopRecorder
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	return &UseCase{
		tasks:    deps.Tasks,
		events:   deps.Events,
		notifier: deps.Notifier,
		outbox:   deps.Outbox,
		metrics:  deps.Metrics,
		location: deps.Location,
		logger:   logger,
		now:      time.Now,
	}
}

// Location returns the zone date-only values are interpreted in.
func (uc *UseCase) Location() *time.Location {
	return uc.location
}

// GetTask returns a task owned by userID. Tasks of other users are reported as not found.
func (uc *UseCase) GetTask(ctx context.Context, userID, id string) (*domain.Task, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return uc.ownedTask(ctx, userID, id)
}

// CreateTask validates the input and stores a NOT_STARTED task unless the user already
// has one with the same title on the same date.
func (uc *UseCase) CreateTask(ctx context.Context, userID string, in domain.TaskInput) (*domain.Task, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	fields, err := uc.validate(in)
	if err != nil {
		uc.metrics.TaskOperation(usecase.OperationCreate, "invalid")
		return nil, err
	}

	if err := uc.ensureUnique(ctx, userID, fields, ""); err != nil {
		uc.metrics.TaskOperation(usecase.OperationCreate, resultOf(err))
		return nil, err
	}

	created, err := uc.tasks.Create(ctx, &domain.Task{
		UserID:      userID,
		Text:        fields.Text,
		Description: fields.Description,
		Priority:    fields.Priority,
		Status:      domain.StatusNotStarted,
		Date:        fields.Date,
	})
	if err != nil {
		uc.metrics.TaskOperation(usecase.OperationCreate, resultOf(err))
		return nil, err
	}

	uc.afterMutation(ctx, usecase.OperationCreate, domain.EventTaskCreated, created)
	return created, nil
}

// UpdateTask overwrites title, description, priority and date. Status is left untouched.
func (uc *UseCase) UpdateTask(ctx context.Context, userID, id string, in domain.TaskInput) (*domain.Task, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	fields, err := uc.validate(in)
	if err != nil {
		uc.metrics.TaskOperation(usecase.OperationUpdate, "invalid")
		return nil, err
	}

	existing, err := uc.ownedTask(ctx, userID, id)
	if err != nil {
		uc.metrics.TaskOperation(usecase.OperationUpdate, resultOf(err))
		return nil, err
	}

	if err := uc.ensureUnique(ctx, existing.UserID, fields, existing.ID); err != nil {
		uc.metrics.TaskOperation(usecase.OperationUpdate, resultOf(err))
		return nil, err
	}

	existing.Text = fields.Text
	existing.Description = fields.Description
	existing.Priority = fields.Priority
	existing.Date = fields.Date

	if err := uc.tasks.Update(ctx, existing); err != nil {
		uc.metrics.TaskOperation(usecase.OperationUpdate, resultOf(err))
		return nil, err
	}

	uc.afterMutation(ctx, usecase.OperationUpdate, domain.EventTaskUpdated, existing)
	return existing, nil
}

// SetStatus overwrites the status only. Applying the same status again is a no-op success.
func (uc *UseCase) SetStatus(ctx context.Context, userID, id, rawStatus string) (*domain.Task, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	status, err := domain.ParseStatus(rawStatus)
	if err != nil {
		uc.metrics.TaskOperation(usecase.OperationStatus, "invalid")
		return nil, err
	}

	task, err := uc.ownedTask(ctx, userID, id)
	if err != nil {
		uc.metrics.TaskOperation(usecase.OperationStatus, resultOf(err))
		return nil, err
	}

	if err := uc.tasks.UpdateStatus(ctx, task.ID, status); err != nil {
		uc.metrics.TaskOperation(usecase.OperationStatus, resultOf(err))
		return nil, err
	}
	task.Status = status

	uc.afterMutation(ctx, usecase.OperationStatus, domain.EventTaskStatusChanged, task)
	return task, nil
}

// DeleteTask removes a task owned by userID.
func (uc *UseCase) DeleteTask(ctx context.Context, userID, id string) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}

	task, err := uc.ownedTask(ctx, userID, id)
	if err != nil {
		uc.metrics.TaskOperation(usecase.OperationDelete, resultOf(err))
		return err
	}

	if err := uc.tasks.Delete(ctx, task.ID); err != nil {
		uc.metrics.TaskOperation(usecase.OperationDelete, resultOf(err))
		return err
	}

	uc.afterMutation(ctx, usecase.OperationDelete, domain.EventTaskDeleted, task)
	return nil
}

// History lists the recorded changes of an owned task, oldest first.
func (uc *UseCase) History(ctx context.Context, userID, id string) ([]domain.TaskEvent, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if _, err := uc.ownedTask(ctx, userID, id); err != nil {
		return nil, err
	}
	if uc.events == nil {
		return []domain.TaskEvent{}, nil
	}
	return uc.events.ListByTask(ctx, id, 0)
}

// SyncToCalendar queues an owned task for delivery to the owner's Google Calendar.
func (uc *UseCase) SyncToCalendar(ctx context.Context, userID, id string) (*domain.Task, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if uc.outbox == nil {
		return nil, domain.NewError(domain.ErrCodeForbidden, "calendar sync is not configured")
	}

	task, err := uc.ownedTask(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := uc.outbox.EnqueueCalendarPush(ctx, task); err != nil {
		uc.metrics.TaskOperation(usecase.OperationSync, resultOf(err))
		return nil, err
	}
	uc.metrics.TaskOperation(usecase.OperationSync, "queued")
	return task, nil
}

func (uc *UseCase) validate(in domain.TaskInput) (domain.TaskFields, error) {
	if in.DueDate != nil {
		due := in.DueDate.In(uc.location)
		in.DueDate = &due
	}
	return in.Validate()
}

func (uc *UseCase) ensureUnique(ctx context.Context, userID string, fields domain.TaskFields, excludeID string) error {
	_, err := uc.tasks.FindDuplicate(ctx, userID, fields.Text, fields.Date, excludeID)
	switch {
	case err == nil:
		return domain.ErrDuplicateTask
	case errors.Is(err, domain.ErrTaskNotFound):
		return nil
	default:
		return err
	}
}

func (uc *UseCase) ownedTask(ctx context.Context, userID, id string) (*domain.Task, error) {
	if id == "" {
		return nil, domain.ErrTaskNotFound
	}
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

// afterMutation records history, metrics and the refetch signal. Failures here are logged
// and never undo the write.
func (uc *UseCase) afterMutation(ctx context.Context, operation, eventName string, task *domain.Task) {
	log := logger.WithRequestID(ctx, uc.logger).With(
		zap.String("operation", operation),
		zap.String("task_id", task.ID),
		zap.String("user_id", task.UserID),
	)
	uc.metrics.TaskOperation(operation, "ok")

	if uc.events != nil {
		payload, _ := json.Marshal(task)
		if err := uc.events.Append(ctx, domain.TaskEvent{
			TaskID:    task.ID,
			UserID:    task.UserID,
			Name:      eventName,
			Payload:   payload,
			CreatedAt: uc.now(),
		}); err != nil {
			log.Warn("failed to record task event", zap.Error(err))
		}
	}

	if uc.notifier != nil {
		if err := uc.notifier.Notify(ctx, usecase.Change{
			UserID:    task.UserID,
			TaskID:    task.ID,
			Operation: operation,
			At:        uc.now(),
		}); err != nil {
			log.Warn("failed to publish task change", zap.Error(err))
		}
	}

	log.Info("task mutated")
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return "invalid"
	case domain.IsDomainError(err, domain.ErrCodeConflict):
		return "conflict"
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return "not_found"
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return "unauthorized"
	default:
		return "error"
	}
}
