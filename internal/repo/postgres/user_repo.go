package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	authsvc "github.com/ViceKink/vice-kink-backend/internal/services/auth"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (authsvc.UserRecord, error) {
	if r.pool == nil {
		return authsvc.UserRecord{}, fmt.Errorf("postgres pool is nil")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return authsvc.UserRecord{}, fmt.Errorf("email is required")
	}

	var user authsvc.UserRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, email, password_hash, display_name, role
FROM users
WHERE email = $1
`, email).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.DisplayName, &user.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authsvc.UserRecord{}, authsvc.ErrUserNotFound
		}
		return authsvc.UserRecord{}, fmt.Errorf("find user by email: %w", err)
	}

	return user, nil
}

func (r *UserRepo) Create(ctx context.Context, email, passwordHash, displayName string) (authsvc.UserRecord, error) {
	if r.pool == nil {
		return authsvc.UserRecord{}, fmt.Errorf("postgres pool is nil")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || passwordHash == "" {
		return authsvc.UserRecord{}, fmt.Errorf("invalid user payload")
	}

	var user authsvc.UserRecord
	err := r.pool.QueryRow(ctx, `
INSERT INTO users (email, password_hash, display_name, role, created_at, updated_at)
VALUES ($1, $2, $3, 'user', NOW(), NOW())
RETURNING id, email, password_hash, display_name, role
`, email, passwordHash, strings.TrimSpace(displayName)).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.DisplayName, &user.Role,
	)
	if err != nil {
		return authsvc.UserRecord{}, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}
