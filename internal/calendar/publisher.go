// Package calendar pushes planner tasks to the owner's Google Calendar.
package calendar

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

const (
	DefaultCalendarID = "primary"
	DefaultEventHour  = 9
	DefaultDuration   = time.Hour
)

// TokenSourcer turns a stored token into a refreshing source.
type TokenSourcer interface {
	TokenSource(ctx context.Context, token *oauth2.Token) oauth2.TokenSource
}

// Config controls how a task maps onto a calendar event.
type Config struct {
	CalendarID string
	EventHour  int
	Duration   time.Duration
	Location   *time.Location
	// Endpoint overrides the Calendar API base URL.
	Endpoint string
}

// EventInput is the calendar event derived from a task.
type EventInput struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	TimeZone    string
}

// Publisher creates calendar events using each user's stored Google token.
type Publisher struct {
	tokens repository.TokenRepository
	auth   TokenSourcer
	cfg    Config
	logger *zap.Logger
}

func NewPublisher(tokens repository.TokenRepository, auth TokenSourcer, cfg Config, logger *zap.Logger) *Publisher {
	if cfg.CalendarID == "" {
		cfg.CalendarID = DefaultCalendarID
	}
	if cfg.EventHour < 0 || cfg.EventHour > 23 {
		cfg.EventHour = DefaultEventHour
	}
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultDuration
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{tokens: tokens, auth: auth, cfg: cfg, logger: logger}
}

// EventFor places the task on its due day at the configured hour.
func (p *Publisher) EventFor(task *domain.Task) EventInput {
	due := task.Date.In(p.cfg.Location)
	start := time.Date(due.Year(), due.Month(), due.Day(), p.cfg.EventHour, 0, 0, 0, p.cfg.Location)
	return EventInput{
		Summary:     task.Text,
		Description: task.Description,
		Start:       start,
		End:         start.Add(p.cfg.Duration),
		TimeZone:    p.cfg.Location.String(),
	}
}

// Push inserts the task as an event and returns the created event id.
func (p *Publisher) Push(ctx context.Context, task *domain.Task) (string, error) {
	if task == nil {
		return "", domain.ErrInvalidPayload
	}
	token, err := p.tokens.Get(ctx, task.UserID)
	if err != nil {
		return "", err
	}

	source := p.auth.TokenSource(ctx, token)
	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, source))}
	if p.cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.cfg.Endpoint))
	}
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create Calendar service: %w", err)
	}

	input := p.EventFor(task)
	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Start: &calendar.EventDateTime{
			DateTime: input.Start.Format(time.RFC3339),
			TimeZone: input.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: input.End.Format(time.RFC3339),
			TimeZone: input.TimeZone,
		},
	}

	created, err := svc.Events.Insert(p.cfg.CalendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}

	p.persistRefreshed(ctx, task.UserID, token, source)
	return created.Id, nil
}

// persistRefreshed stores the token again when the source refreshed it during the call.
func (p *Publisher) persistRefreshed(ctx context.Context, userID string, previous *oauth2.Token, source oauth2.TokenSource) {
	current, err := source.Token()
	if err != nil || current.AccessToken == previous.AccessToken {
		return
	}
	if err := p.tokens.Save(ctx, userID, current); err != nil {
		p.logger.Warn("failed to store refreshed google token", zap.String("user_id", userID), zap.Error(err))
	}
}
