package domain

import (
	"encoding/json"
	"time"
)

// Task event names.
const (
	EventTaskCreated        = "created"
	EventTaskUpdated        = "updated"
	EventTaskStatusChanged  = "status_changed"
	EventTaskDeleted        = "deleted"
	EventTaskCalendarSynced = "calendar_synced"
)

// TaskEvent records a change applied to a task.
type TaskEvent struct {
	ID        string          `json:"id"`
	TaskID    string          `json:"task_id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
