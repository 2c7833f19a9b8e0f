package fs

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/procurauth/internal/domain/repository"
	"github.com/dropDatabas3/procurauth/internal/util/atomicwrite"
)

// userRecord es el formato en disco; "password" guarda el hash (o el claro en modo none).
type userRecord struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username,omitempty"`
	Name      string    `json:"name"`
	Role      string    `json:"role,omitempty"`
	Password  string    `json:"password"`
	HashType  string    `json:"hashType,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r userRecord) toUser() repository.User {
	return repository.User{
		ID:           r.ID,
		Email:        r.Email,
		Username:     r.Username,
		Name:         r.Name,
		Role:         r.Role,
		PasswordHash: r.Password,
		HashType:     r.HashType,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func userToRecord(u repository.User) userRecord {
	return userRecord{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Name:      u.Name,
		Role:      u.Role,
		Password:  u.PasswordHash,
		HashType:  u.HashType,
		CreatedAt: u.CreatedAt.UTC(),
		UpdatedAt: u.UpdatedAt.UTC(),
	}
}

// UserRepo guarda los usuarios en users.json.
type UserRepo struct {
	path string
	mu   sync.Mutex
}

func (r *UserRepo) load() ([]userRecord, error) {
	var recs []userRecord
	if _, err := atomicwrite.ReadJSON(r.path, &recs); err != nil {
		return nil, fmt.Errorf("fs: load users: %w", err)
	}
	return recs, nil
}

func (r *UserRepo) save(recs []userRecord) error {
	if err := atomicwrite.WriteJSON(r.path, recs, filePerm); err != nil {
		return fmt.Errorf("fs: save users: %w", err)
	}
	return nil
}

func (r *UserRepo) FindByLogin(_ context.Context, login string) (*repository.User, error) {
	login = strings.TrimSpace(login)
	r.mu.Lock()
	defer r.mu.Unlock()
	recs, err := r.load()
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		if u := rec.toUser(); u.MatchesLogin(login) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	recs, err := r.load()
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		if rec.ID == id {
			u := rec.toUser()
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepo) Create(_ context.Context, u repository.User) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	recs, err := r.load()
	if err != nil {
		return nil, err
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	for _, rec := range recs {
		if rec.ID == u.ID || rec.toUser().Collides(u) {
			return nil, repository.ErrConflict
		}
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	if err := r.save(append(recs, userToRecord(u))); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id, hash, hashType string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	recs, err := r.load()
	if err != nil {
		return err
	}
	for i := range recs {
		if recs[i].ID != id {
			continue
		}
		recs[i].Password = hash
		recs[i].HashType = hashType
		recs[i].UpdatedAt = at.UTC()
		if err := ctx.Err(); err != nil {
			return err
		}
		return r.save(recs)
	}
	return repository.ErrNotFound
}
