package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/procurauth/internal/domain/repository"
)

// UserRepo usa la tabla app_user.
type UserRepo struct {
	pool *pgxpool.Pool
}

const userColumns = `id, email, COALESCE(username, ''), name, role, password_hash, hash_type, created_at, updated_at`

func scanUser(row pgx.Row) (*repository.User, error) {
	var u repository.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.Name, &u.Role, &u.PasswordHash, &u.HashType, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) FindByLogin(ctx context.Context, login string) (*repository.User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, repository.ErrNotFound
	}
	u, err := scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM app_user
		WHERE lower(email) = lower($1) OR lower(username) = lower($1)
		ORDER BY (lower(email) = lower($1)) DESC
		LIMIT 1`, login))
	if err != nil && !repository.IsNotFound(err) {
		return nil, fmt.Errorf("pg: find user: %w", err)
	}
	return u, err
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*repository.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM app_user WHERE id = $1`, id))
	if err != nil && !repository.IsNotFound(err) {
		return nil, fmt.Errorf("pg: get user: %w", err)
	}
	return u, err
}

func (r *UserRepo) Create(ctx context.Context, u repository.User) (*repository.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	var username *string
	if u.Username != "" {
		username = &u.Username
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO app_user (id, email, username, name, role, password_hash, hash_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Email, username, u.Name, u.Role, u.PasswordHash, u.HashType, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return nil, repository.ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("pg: create user: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id, hash, hashType string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE app_user SET password_hash = $2, hash_type = $3, updated_at = $4
		WHERE id = $1`, id, hash, hashType, at)
	if err != nil {
		return fmt.Errorf("pg: update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
