package repository

import (
	"context"

	"github.com/fastygo/planner/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create fails with domain.ErrEmailTaken when the email is already registered.
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
}
