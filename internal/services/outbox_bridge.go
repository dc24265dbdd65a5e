package services

import (
	"context"
	"encoding/json"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/internal/infrastructure/buffer"
	"github.com/fastygo/planner/repository"
	"github.com/fastygo/planner/usecase"
)

// CalendarBridge adapts the outbox processor to the task use case.
type CalendarBridge struct {
	processor *OutboxProcessor
	tokens    repository.TokenRepository
}

func NewCalendarBridge(processor *OutboxProcessor, tokens repository.TokenRepository) *CalendarBridge {
	return &CalendarBridge{processor: processor, tokens: tokens}
}

// EnqueueCalendarPush rejects users without a linked Google account before queueing.
func (b *CalendarBridge) EnqueueCalendarPush(ctx context.Context, task *domain.Task) error {
	if b.processor == nil || task == nil {
		return domain.ErrInvalidPayload
	}
	if b.tokens != nil {
		if _, err := b.tokens.Get(ctx, task.UserID); err != nil {
			return err
		}
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	item := buffer.Item{
		UserID:    task.UserID,
		TaskID:    task.ID,
		Entity:    buffer.EntityCalendarEvent,
		Operation: buffer.OperationPush,
		Data:      payload,
		Priority:  3,
	}
	return b.processor.Submit(ctx, item)
}

var _ usecase.CalendarOutbox = (*CalendarBridge)(nil)
