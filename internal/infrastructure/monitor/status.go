package monitor

import "time"

// Component states reported by the monitor.
const (
	StateUp       = "up"
	StateDown     = "down"
	StateDisabled = "disabled"
)

type Status struct {
	PostgreSQL string    `json:"postgresql"`
	Redis      string    `json:"redis"`
	Outbox     string    `json:"outbox"`
	OutboxSize int       `json:"outbox_size"`
	LastCheck  time.Time `json:"last_check"`
}

// Healthy reports whether no configured component is down.
func (s Status) Healthy() bool {
	return s.PostgreSQL != StateDown && s.Redis != StateDown && s.Outbox != StateDown
}
