package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

type stateRepository struct {
	client *redislib.Client
	prefix string
}

// NewStateRepository stores OAuth state values under oauth_state:<state>.
func NewStateRepository(client *redislib.Client) repository.StateRepository {
	return &stateRepository{client: client, prefix: "oauth_state:"}
}

func (r *stateRepository) Save(ctx context.Context, state string, ttl time.Duration) error {
	if state == "" {
		return domain.ErrInvalidOAuthState
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return r.client.Set(ctx, r.prefix+state, "1", ttl).Err()
}

func (r *stateRepository) Consume(ctx context.Context, state string) (bool, error) {
	if state == "" {
		return false, nil
	}
	n, err := r.client.Del(ctx, r.prefix+state).Result()
	if err != nil {
		return false, fmt.Errorf("consume oauth state: %w", err)
	}
	return n > 0, nil
}

type tokenRepository struct {
	client *redislib.Client
	prefix string
}

// NewTokenRepository stores Google OAuth tokens under oauth_token:google:<user_id>.
func NewTokenRepository(client *redislib.Client) repository.TokenRepository {
	return &tokenRepository{client: client, prefix: "oauth_token:google:"}
}

func (r *tokenRepository) Get(ctx context.Context, userID string) (*oauth2.Token, error) {
	raw, err := r.client.Get(ctx, r.prefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("get oauth token: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepository) Save(ctx context.Context, userID string, token *oauth2.Token) error {
	if userID == "" || token == nil {
		return domain.ErrInvalidPayload
	}

	// Google only returns a refresh token on first consent; keep the previous one.
	if token.RefreshToken == "" {
		if prev, err := r.Get(ctx, userID); err == nil {
			token.RefreshToken = prev.RefreshToken
		}
	}

	payload, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.prefix+userID, payload, 0).Err()
}
