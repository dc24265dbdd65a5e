package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/internal/infrastructure/buffer"
	"github.com/fastygo/planner/repository"
	"github.com/fastygo/planner/usecase"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// CalendarPusher delivers one task to the owner's calendar.
type CalendarPusher interface {
	Push(ctx context.Context, task *domain.Task) (string, error)
}

// ProcessorConfig controls how frequently the outbox is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	// Retention drops items that stayed pending longer than this.
	Retention time.Duration
}

// OutboxProcessor delivers queued calendar pushes, retrying failed ones on a schedule.
type OutboxProcessor struct {
	store    *buffer.Store
	monitor  ConnectionHealth
	pusher   CalendarPusher
	tasks    repository.TaskRepository
	events   repository.TaskEventRepository
	notifier usecase.ChangeNotifier
	metrics  usecase.Recorder
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      ProcessorConfig
	now      func() time.Time
}

// OutboxDeps groups the collaborators of the processor. Only Store and Pusher are required.
type OutboxDeps struct {
	Store    *buffer.Store
	Monitor  ConnectionHealth
	Pusher   CalendarPusher
	// Tasks, when set, supplies the current version of a queued task at delivery.
	Tasks    repository.TaskRepository
	Events   repository.TaskEventRepository
	Notifier usecase.ChangeNotifier
	Metrics  usecase.Recorder
}

func NewOutboxProcessor(deps OutboxDeps, logger *zap.Logger, cfg ProcessorConfig) *OutboxProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = usecase.NopRecorder
	}

	op := &OutboxProcessor{
		store:    deps.Store,
		monitor:  deps.Monitor,
		pusher:   deps.Pusher,
		tasks:    deps.Tasks,
		events:   deps.Events,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
		now:      time.Now,
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = op.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := op.Drain(ctx); err != nil {
			op.logger.Error("outbox drain failed", zap.Error(err))
		}
	})
	_, _ = op.cron.AddFunc("@hourly", func() {
		removed, err := op.store.Cleanup(op.now().Add(-op.cfg.Retention))
		if err != nil {
			op.logger.Warn("outbox cleanup failed", zap.Error(err))
			return
		}
		if removed > 0 {
			op.logger.Warn("expired outbox items dropped", zap.Int("count", removed))
		}
	})

	return op
}

// Start launches the cron scheduler.
func (op *OutboxProcessor) Start() {
	if op == nil || op.cron == nil {
		return
	}
	op.cron.Start()
	op.logger.Info("outbox processor started", zap.Duration("interval", op.cfg.Interval))
}

// Stop gracefully stops the scheduler.
func (op *OutboxProcessor) Stop(ctx context.Context) {
	if op == nil || op.cron == nil {
		return
	}
	stopCtx := op.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	op.logger.Info("outbox processor stopped")
}

// Drain delivers a batch of due items synchronously.
func (op *OutboxProcessor) Drain(ctx context.Context) error {
	if op == nil || op.store == nil {
		return nil
	}
	if op.monitor != nil && !op.monitor.IsOnline() {
		op.logger.Debug("skipping outbox drain (offline)")
		return nil
	}

	items, err := op.store.GetBatch(op.cfg.BatchSize, op.now())
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := op.processItem(ctx, item); err != nil {
			op.retry(item, err)
			continue
		}
		if err := op.store.Remove(item); err != nil {
			op.logger.Warn("failed to purge delivered outbox item", zap.Error(err))
		}
	}
	return nil
}

// Submit attempts delivery right away and falls back to persisting the item.
func (op *OutboxProcessor) Submit(ctx context.Context, item buffer.Item) error {
	if op == nil || op.store == nil {
		return errors.New("outbox processor not configured")
	}

	if op.monitor == nil || op.monitor.IsOnline() {
		err := op.processItem(ctx, item)
		if err == nil {
			return nil
		}
		if permanent(err) {
			return err
		}
		op.logger.Warn("immediate delivery failed, queued for retry",
			zap.String("task_id", item.TaskID),
			zap.Error(err))
		item.LastError = err.Error()
	}
	return op.store.Enqueue(item)
}

// Size returns the number of pending items.
func (op *OutboxProcessor) Size() int {
	if op == nil || op.store == nil {
		return 0
	}
	size, err := op.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (op *OutboxProcessor) retry(item buffer.Item, cause error) {
	item.Retries++
	item.LastError = cause.Error()
	log := op.logger.With(
		zap.String("item_id", item.ID),
		zap.String("task_id", item.TaskID),
		zap.Int("retries", item.Retries),
		zap.Error(cause))

	if permanent(cause) || item.Retries >= op.cfg.MaxRetries {
		log.Warn("dropping outbox item")
		op.metrics.TaskOperation(usecase.OperationSync, "dropped")
		_ = op.store.Remove(item)
		return
	}

	log.Info("outbox item will be retried")
	if err := op.store.Requeue(item, op.now().Add(time.Duration(item.Retries)*op.cfg.Interval)); err != nil {
		op.logger.Error("failed to requeue outbox item", zap.Error(err))
	}
}

func (op *OutboxProcessor) processItem(ctx context.Context, item buffer.Item) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if item.Entity != buffer.EntityCalendarEvent {
		return fmt.Errorf("unsupported entity %s", item.Entity)
	}

	var task domain.Task
	if err := json.Unmarshal(item.Data, &task); err != nil {
		return err
	}
	if op.tasks != nil {
		current, err := op.latest(ctx, item, task)
		if err != nil {
			return err
		}
		task = *current
	}

	eventID, err := op.pusher.Push(ctx, &task)
	if err != nil {
		return err
	}
	op.metrics.TaskOperation(usecase.OperationSync, "ok")
	op.logger.Info("task pushed to calendar",
		zap.String("task_id", task.ID),
		zap.String("event_id", eventID))

	op.recordSynced(ctx, &task, eventID)
	return nil
}

func (op *OutboxProcessor) recordSynced(ctx context.Context, task *domain.Task, eventID string) {
	if op.events != nil {
		payload, _ := json.Marshal(map[string]string{"event_id": eventID})
		event := domain.TaskEvent{
			TaskID:  task.ID,
			UserID:  task.UserID,
			Name:    domain.EventTaskCalendarSynced,
			Payload: payload,
		}
		if err := op.events.Append(ctx, event); err != nil {
			op.logger.Warn("failed to record calendar sync", zap.String("task_id", task.ID), zap.Error(err))
		}
	}
	if op.notifier != nil {
		change := usecase.Change{UserID: task.UserID, TaskID: task.ID, Operation: usecase.OperationSync, At: op.now()}
		if err := op.notifier.Notify(ctx, change); err != nil {
			op.logger.Warn("failed to publish calendar sync", zap.String("task_id", task.ID), zap.Error(err))
		}
	}
}

// permanent reports errors that no retry can fix.
// latest reloads the queued task so edits made while it waited are pushed.
// A task deleted or handed to another owner in the meantime is not found.
func (op *OutboxProcessor) latest(ctx context.Context, item buffer.Item, queued domain.Task) (*domain.Task, error) {
	id := item.TaskID
	if id == "" {
		id = queued.ID
	}
	current, err := op.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.UserID != queued.UserID {
		return nil, domain.ErrTaskNotFound
	}
	return current, nil
}

func permanent(err error) bool {
	return errors.Is(err, domain.ErrTokenNotFound) ||
		errors.Is(err, domain.ErrTaskNotFound) ||
		domain.IsDomainError(err, domain.ErrCodeInvalid)
}
