// Package storetest contiene la batería de contrato que todo backend de store debe pasar.
package storetest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/procurauth/internal/domain/repository"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func entry(userID, id string, expires time.Time) repository.OTPEntry {
	return repository.OTPEntry{
		ID:          id,
		UserID:      userID,
		CodeHash:    "hash-" + id,
		ExpiresAt:   expires,
		GeneratedAt: t0,
		State:       repository.OTPStateActive,
	}
}

// RunOTPRepository ejecuta el contrato de OTPRepository. newRepo debe devolver un repo vacío.
func RunOTPRepository(t *testing.T, newRepo func(t *testing.T) repository.OTPRepository) {
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		_, err := newRepo(t).Get(ctx, "nobody")
		require.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("put replaces per user", func(t *testing.T) {
		r := newRepo(t)
		require.NoError(t, r.Put(ctx, entry("u1", "a", t0.Add(time.Minute))))
		require.NoError(t, r.Put(ctx, entry("u2", "b", t0.Add(time.Minute))))
		require.NoError(t, r.Put(ctx, entry("u1", "c", t0.Add(2*time.Minute))))

		got, err := r.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "c", got.ID)
		assert.Equal(t, "hash-c", got.CodeHash)
		assert.True(t, got.ExpiresAt.Equal(t0.Add(2*time.Minute)))
		assert.Equal(t, repository.OTPStateActive, got.State)

		other, err := r.Get(ctx, "u2")
		require.NoError(t, err)
		assert.Equal(t, "b", other.ID)
	})

	t.Run("expire stale is lazy and idempotent", func(t *testing.T) {
		r := newRepo(t)
		require.NoError(t, r.Put(ctx, entry("old", "a", t0)))
		require.NoError(t, r.Put(ctx, entry("fresh", "b", t0.Add(time.Hour))))

		n, err := r.ExpireStale(ctx, t0)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = r.ExpireStale(ctx, t0)
		require.NoError(t, err)
		assert.Zero(t, n)

		old, err := r.Get(ctx, "old")
		require.NoError(t, err)
		assert.Equal(t, repository.OTPStateExpired, old.State)
		assert.True(t, old.ConsumedOrExpired())

		fresh, err := r.Get(ctx, "fresh")
		require.NoError(t, err)
		assert.Equal(t, repository.OTPStateActive, fresh.State)
	})

	t.Run("transition is compare-and-set", func(t *testing.T) {
		r := newRepo(t)
		require.NoError(t, r.Put(ctx, entry("u1", "a", t0.Add(time.Hour))))

		ok, err := r.Transition(ctx, "u1", "stale-id", repository.OTPStateActive, repository.OTPStateConsumed)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = r.Transition(ctx, "u1", "a", repository.OTPStateActive, repository.OTPStateConsumed)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = r.Transition(ctx, "u1", "a", repository.OTPStateActive, repository.OTPStateConsumed)
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = r.Transition(ctx, "u1", "a", repository.OTPStateConsumed, repository.OTPStateActive)
		require.ErrorIs(t, err, repository.ErrInvalidTransition)

		got, err := r.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, repository.OTPStateConsumed, got.State)

		ok, err = r.Transition(ctx, "ghost", "a", repository.OTPStateActive, repository.OTPStateExpired)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("concurrent transitions have a single winner", func(t *testing.T) {
		r := newRepo(t)
		require.NoError(t, r.Put(ctx, entry("u1", "a", t0.Add(time.Hour))))

		var wins int32
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := r.Transition(ctx, "u1", "a", repository.OTPStateActive, repository.OTPStateConsumed)
				if err == nil && ok {
					atomic.AddInt32(&wins, 1)
				}
			}()
		}
		wg.Wait()
		assert.EqualValues(t, 1, wins)
	})
}

// RunUserRepository ejecuta el contrato de UserRepository.
func RunUserRepository(t *testing.T, newRepo func(t *testing.T) repository.UserRepository) {
	ctx := context.Background()

	t.Run("create and find case-insensitive", func(t *testing.T) {
		r := newRepo(t)
		created, err := r.Create(ctx, repository.User{
			Email: "Alice@X.com", Username: "alice", Name: "Alice",
			PasswordHash: "plain", HashType: "none",
		})
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)

		for _, login := range []string{"alice@x.com", "ALICE@X.COM", "Alice", " alice "} {
			u, err := r.FindByLogin(ctx, login)
			require.NoError(t, err, login)
			assert.Equal(t, created.ID, u.ID)
		}

		_, err = r.FindByLogin(ctx, "bob")
		require.ErrorIs(t, err, repository.ErrNotFound)
		_, err = r.FindByLogin(ctx, "")
		require.ErrorIs(t, err, repository.ErrNotFound)

		byID, err := r.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice", byID.Name)
	})

	t.Run("create rejects duplicates", func(t *testing.T) {
		r := newRepo(t)
		_, err := r.Create(ctx, repository.User{Email: "a@x.com", Username: "a", PasswordHash: "p"})
		require.NoError(t, err)
		_, err = r.Create(ctx, repository.User{Email: "A@x.com", PasswordHash: "p"})
		require.ErrorIs(t, err, repository.ErrConflict)
		_, err = r.Create(ctx, repository.User{Email: "b@x.com", Username: "A", PasswordHash: "p"})
		require.ErrorIs(t, err, repository.ErrConflict)
	})

	t.Run("update password", func(t *testing.T) {
		r := newRepo(t)
		u, err := r.Create(ctx, repository.User{Email: "c@x.com", PasswordHash: "old", HashType: "none"})
		require.NoError(t, err)

		at := t0.Add(time.Hour)
		require.NoError(t, r.UpdatePassword(ctx, u.ID, "$argon2id$new", "argon2", at))

		got, err := r.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "$argon2id$new", got.PasswordHash)
		assert.Equal(t, "argon2", got.HashType)
		assert.True(t, got.UpdatedAt.Equal(at))

		require.ErrorIs(t, r.UpdatePassword(ctx, "missing", "x", "none", at), repository.ErrNotFound)
	})
}
