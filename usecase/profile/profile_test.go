package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository/memory"
)

func ptr(s string) *string { return &s }

func TestUpdateProfile(t *testing.T) {
	store := memory.New()
	users := store.Users()
	ctx := context.Background()

	alice := &domain.User{Email: "alice@example.com", Name: "Alice"}
	bob := &domain.User{Email: "bob@example.com"}
	require.NoError(t, users.Create(ctx, alice))
	require.NoError(t, users.Create(ctx, bob))

	uc := New(users, nil)

	updated, err := uc.UpdateProfile(ctx, alice.ID, UpdateInput{Name: ptr(" Alice L. ")})
	require.NoError(t, err)
	assert.Equal(t, "Alice L.", updated.Name)
	assert.Equal(t, "alice@example.com", updated.Email)

	_, err = uc.UpdateProfile(ctx, alice.ID, UpdateInput{Email: ptr("BOB@example.com")})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	_, err = uc.UpdateProfile(ctx, alice.ID, UpdateInput{Name: ptr("  ")})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = uc.UpdateProfile(ctx, alice.ID, UpdateInput{Email: ptr("nope")})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	updated, err = uc.UpdateProfile(ctx, alice.ID, UpdateInput{Email: ptr("Alice@New.example")})
	require.NoError(t, err)
	assert.Equal(t, "alice@new.example", updated.Email)
}

func TestGetProfile(t *testing.T) {
	uc := New(memory.New().Users(), nil)

	_, err := uc.GetProfile(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = uc.GetProfile(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
