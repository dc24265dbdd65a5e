package buffer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EntityCalendarEvent = "calendar_event"

	OperationPush = "push"
)

// Item is a pending outbound delivery kept until the remote side accepts it.
type Item struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	TaskID    string          `json:"task_id"`
	Entity    string          `json:"entity"`
	Operation string          `json:"operation"`
	Data      json.RawMessage `json:"data"`
	Priority  int             `json:"priority"`
	Retries   int             `json:"retries"`
	LastError string          `json:"last_error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	// NotBefore delays redelivery after a failed attempt.
	NotBefore time.Time `json:"not_before,omitempty"`

	bucketKey []byte
}

// Due reports whether the item may be attempted at now.
func (i Item) Due(now time.Time) bool {
	return i.NotBefore.IsZero() || !i.NotBefore.After(now)
}

func (i *Item) normalize() {
	if i.ID == "" {
		if i.TaskID != "" {
			i.ID = i.Entity + ":" + i.TaskID
		} else {
			i.ID = uuid.NewString()
		}
	}
	if i.Priority <= 0 || i.Priority > 5 {
		i.Priority = 3
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
