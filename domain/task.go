package domain

import (
	"strings"
	"time"
)

// Priority ranks a task. Only the three listed values are valid.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// ParsePriority accepts a priority in any letter case. An empty or unknown value is an error.
func ParsePriority(raw string) (Priority, error) {
	switch p := Priority(strings.ToUpper(strings.TrimSpace(raw))); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	case "":
		return "", ErrPriorityRequired
	default:
		return "", NewError(ErrCodeInvalid, "priority must be one of LOW, MEDIUM, HIGH")
	}
}

// Status is the completion state of a task.
type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// ParseStatus accepts a status in any letter case.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToUpper(strings.TrimSpace(raw))); s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return s, nil
	default:
		return "", NewError(ErrCodeInvalid, "status must be one of NOT_STARTED, IN_PROGRESS, COMPLETED")
	}
}

// Task represents a user-owned dated activity item.
type Task struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Text        string    `json:"text"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == StatusCompleted
}

// TaskInput carries the editable fields of a task as submitted by a client.
type TaskInput struct {
	Title       string
	Description string
	Priority    string
	DueDate     *time.Time
}

// TaskFields is a validated TaskInput.
type TaskFields struct {
	Text        string
	Description string
	Priority    Priority
	Date        time.Time
}

// Validate checks the input and normalizes the due date to the start of its day.
func (in TaskInput) Validate() (TaskFields, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return TaskFields{}, ErrTitleRequired
	}
	priority, err := ParsePriority(in.Priority)
	if err != nil {
		return TaskFields{}, err
	}
	if in.DueDate == nil || in.DueDate.IsZero() {
		return TaskFields{}, ErrDueDateRequired
	}
	return TaskFields{
		Text:        title,
		Description: strings.TrimSpace(in.Description),
		Priority:    priority,
		Date:        StartOfDay(*in.DueDate),
	}, nil
}
