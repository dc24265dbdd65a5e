package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

type userRepository struct {
	s *Store
}

// Users returns the user repository view of the store.
func (s *Store) Users() repository.UserRepository {
	return &userRepository{s: s}
}

func (r *userRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	email = normalizeEmail(email)

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, user := range r.s.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	user.Email = normalizeEmail(user.Email)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.emailTakenLocked(user.Email, "") {
		return domain.ErrEmailTaken
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := r.s.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepository) Update(_ context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	user.Email = normalizeEmail(user.Email)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if r.emailTakenLocked(user.Email, user.ID) {
		return domain.ErrEmailTaken
	}
	user.CreatedAt = stored.CreatedAt
	user.UpdatedAt = r.s.now()
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepository) emailTakenLocked(email, exceptID string) bool {
	for id, user := range r.s.users {
		if id != exceptID && user.Email == email {
			return true
		}
	}
	return false
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
