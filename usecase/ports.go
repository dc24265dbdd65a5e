package usecase

import (
	"context"
	"time"

	"github.com/fastygo/planner/domain"
)

const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationStatus = "status"
	OperationDelete = "delete"
	OperationSync   = "calendar_sync"
)

// Change tells clients that a user's task list must be refetched.
type Change struct {
	UserID    string    `json:"user_id"`
	TaskID    string    `json:"task_id"`
	Operation string    `json:"operation"`
	At        time.Time `json:"at"`
}

// ChangeNotifier fans out list invalidations to connected clients.
type ChangeNotifier interface {
	Notify(ctx context.Context, change Change) error
}

// CalendarOutbox accepts tasks to be pushed to the owner's calendar later.
type CalendarOutbox interface {
	EnqueueCalendarPush(ctx context.Context, task *domain.Task) error
}

// Recorder counts use case outcomes.
type Recorder interface {
	TaskOperation(operation, result string)
	AuthAttempt(provider, result string)
}

type nopRecorder struct{}

func (nopRecorder) TaskOperation(string, string) {}
func (nopRecorder) AuthAttempt(string, string)   {}

// NopRecorder discards all measurements.
var NopRecorder Recorder = nopRecorder{}
