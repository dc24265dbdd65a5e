package domain

import (
	"strings"
	"time"
)

// View is the granularity used to compute a listing window.
type View string

const (
	ViewDay   View = "day"
	ViewWeek  View = "week"
	ViewMonth View = "month"
	ViewYear  View = "year"
	// ViewToday is the day view anchored on the current date.
	ViewToday View = "today"
)

// WeekStart is the first day of a week window.
const WeekStart = time.Monday

// ParseView accepts a view name in any letter case.
func ParseView(raw string) (View, error) {
	switch v := View(strings.ToLower(strings.TrimSpace(raw))); v {
	case ViewDay, ViewWeek, ViewMonth, ViewYear, ViewToday:
		return v, nil
	default:
		return "", NewError(ErrCodeInvalid, "view must be one of day, week, month, year, today")
	}
}

// Window is an inclusive [Start, End] range with millisecond resolution.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies within the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// ComputeWindow returns the window of the given view around ref, in ref's location.
// ViewToday is treated like ViewDay; callers are expected to pass the current date.
func ComputeWindow(view View, ref time.Time) (Window, error) {
	day := StartOfDay(ref)

	var start, next time.Time
	switch view {
	case ViewDay, ViewToday:
		start = day
		next = start.AddDate(0, 0, 1)
	case ViewWeek:
		offset := (int(day.Weekday()) - int(WeekStart) + 7) % 7
		start = day.AddDate(0, 0, -offset)
		next = start.AddDate(0, 0, 7)
	case ViewMonth:
		start = time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		next = start.AddDate(0, 1, 0)
	case ViewYear:
		start = time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, day.Location())
		next = start.AddDate(1, 0, 0)
	default:
		return Window{}, NewError(ErrCodeInvalid, "unsupported view "+string(view))
	}

	return Window{Start: start, End: next.Add(-time.Millisecond)}, nil
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
