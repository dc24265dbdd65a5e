package repository

import (
	"context"
	"time"

	"golang.org/x/oauth2"

	"github.com/fastygo/planner/domain"
)

type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
	Extend(ctx context.Context, id string, ttlSeconds int) error
}

// StateRepository keeps single-use OAuth state values.
type StateRepository interface {
	Save(ctx context.Context, state string, ttl time.Duration) error
	// Consume deletes the state and reports whether it existed.
	Consume(ctx context.Context, state string) (bool, error)
}

// TokenRepository stores third-party OAuth tokens per user.
type TokenRepository interface {
	Get(ctx context.Context, userID string) (*oauth2.Token, error)
	Save(ctx context.Context, userID string, token *oauth2.Token) error
}
