package profile

import (
	"context"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/pkg/logger"
	"github.com/fastygo/planner/repository"
)

type UseCase struct {
	users  repository.UserRepository
	logger *zap.Logger
}

// UpdateInput carries the editable profile fields. Nil fields are left unchanged.
type UpdateInput struct {
	Name  *string
	Email *string
	Image *string
}

func New(users repository.UserRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		logger: logger,
	}
}

func (uc *UseCase) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return uc.users.GetByID(ctx, userID)
}

func (uc *UseCase) UpdateProfile(ctx context.Context, userID string, in UpdateInput) (*domain.User, error) {
	user, err := uc.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.NewError(domain.ErrCodeInvalid, "name is required")
		}
		user.Name = name
	}
	if in.Image != nil {
		user.Image = strings.TrimSpace(*in.Image)
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email == "" {
			return nil, domain.NewError(domain.ErrCodeInvalid, "email is required")
		}
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, domain.NewError(domain.ErrCodeInvalid, "invalid email address")
		}
		user.Email = email
	}

	if err := uc.users.Update(ctx, user); err != nil {
		return nil, err
	}
	logger.WithRequestID(ctx, uc.logger).Info("profile updated", zap.String("user_id", user.ID))
	return user, nil
}
