package memory

import (
	"context"
	"time"

	"golang.org/x/oauth2"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

type sessionRepository struct {
	s   *Store
	ttl time.Duration
}

// Sessions returns a session repository view of the store.
func (s *Store) Sessions(ttl time.Duration) repository.SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &sessionRepository{s: s, ttl: ttl}
}

func (r *sessionRepository) Get(_ context.Context, id string) (*domain.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	session, ok := r.s.sessions[id]
	if !ok || session.IsExpired(r.s.now()) {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (r *sessionRepository) Save(_ context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidPayload
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if session.CreatedAt.IsZero() {
		session.CreatedAt = r.s.now()
	}
	if session.ExpiresAt.Before(session.CreatedAt) {
		session.ExpiresAt = session.CreatedAt.Add(r.ttl)
	}
	r.s.sessions[session.ID] = *session
	return nil
}

func (r *sessionRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.sessions, id)
	return nil
}

func (r *sessionRepository) Extend(_ context.Context, id string, ttlSeconds int) error {
	duration := time.Duration(ttlSeconds) * time.Second
	if duration <= 0 {
		duration = r.ttl
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	session, ok := r.s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.ExpiresAt = r.s.now().Add(duration)
	r.s.sessions[id] = session
	return nil
}

type stateRepository struct {
	s *Store
}

// States returns the OAuth state view of the store.
func (s *Store) States() repository.StateRepository {
	return &stateRepository{s: s}
}

func (r *stateRepository) Save(_ context.Context, state string, ttl time.Duration) error {
	if state == "" {
		return domain.ErrInvalidOAuthState
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.states[state] = r.s.now().Add(ttl)
	return nil
}

func (r *stateRepository) Consume(_ context.Context, state string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	expiry, ok := r.s.states[state]
	if !ok {
		return false, nil
	}
	delete(r.s.states, state)
	return r.s.now().Before(expiry), nil
}

type tokenRepository struct {
	s *Store
}

// Tokens returns the OAuth token view of the store.
func (s *Store) Tokens() repository.TokenRepository {
	return &tokenRepository{s: s}
}

func (r *tokenRepository) Get(_ context.Context, userID string) (*oauth2.Token, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	token, ok := r.s.tokens[userID]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	return &token, nil
}

func (r *tokenRepository) Save(_ context.Context, userID string, token *oauth2.Token) error {
	if userID == "" || token == nil {
		return domain.ErrInvalidPayload
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if token.RefreshToken == "" {
		if prev, ok := r.s.tokens[userID]; ok {
			token.RefreshToken = prev.RefreshToken
		}
	}
	r.s.tokens[userID] = *token
	return nil
}
