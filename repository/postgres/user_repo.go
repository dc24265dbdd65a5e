package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

const userColumns = `id, email, name, password_hash, image, created_at, updated_at`

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates a Postgres-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrUserNotFound
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, normalizeEmail(email)))
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = normalizeEmail(user.Email)

	const query = `
	INSERT INTO users (id, email, name, password_hash, image)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.Image,
	).Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	user.Email = normalizeEmail(user.Email)

	const query = `
	UPDATE users
	SET email = $2,
		name = $3,
		password_hash = $4,
		image = $5,
		updated_at = NOW()
	WHERE id = $1
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.Image,
	).Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrUserNotFound
		}
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Image,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
