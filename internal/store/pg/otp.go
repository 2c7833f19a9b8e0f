package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/procurauth/internal/domain/repository"
)

// OTPRepo usa la tabla otp_entry (PK user_id).
type OTPRepo struct {
	pool *pgxpool.Pool
}

func (r *OTPRepo) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE otp_entry SET state = 'expired'
		WHERE state = 'active' AND expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("pg: expire stale otp: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *OTPRepo) Get(ctx context.Context, userID string) (*repository.OTPEntry, error) {
	var (
		e     repository.OTPEntry
		state string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, code_hash, expires_at, generated_at, state
		FROM otp_entry WHERE user_id = $1`, userID,
	).Scan(&e.ID, &e.UserID, &e.CodeHash, &e.ExpiresAt, &e.GeneratedAt, &state)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: get otp: %w", err)
	}
	e.State = repository.OTPState(state)
	return &e, nil
}

func (r *OTPRepo) Put(ctx context.Context, e repository.OTPEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO otp_entry (user_id, id, code_hash, expires_at, generated_at, state)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			id = EXCLUDED.id,
			code_hash = EXCLUDED.code_hash,
			expires_at = EXCLUDED.expires_at,
			generated_at = EXCLUDED.generated_at,
			state = EXCLUDED.state`,
		e.UserID, e.ID, e.CodeHash, e.ExpiresAt, e.GeneratedAt, string(e.State))
	if err != nil {
		return fmt.Errorf("pg: put otp: %w", err)
	}
	return nil
}

// Transition es un compare-and-set: solo una de dos llamadas concurrentes ve RowsAffected=1.
func (r *OTPRepo) Transition(ctx context.Context, userID, entryID string, from, to repository.OTPState) (bool, error) {
	if err := repository.CheckTransition(from, to); err != nil {
		return false, err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE otp_entry SET state = $4
		WHERE user_id = $1 AND id = $2 AND state = $3`,
		userID, entryID, string(from), string(to))
	if err != nil {
		return false, fmt.Errorf("pg: transition otp: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
