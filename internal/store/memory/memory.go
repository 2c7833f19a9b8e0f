// Package memory implementa los repositorios en memoria.
// Es el backend de tests y de desarrollo; no persiste entre reinicios.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/procurauth/internal/domain/repository"
	"github.com/dropDatabas3/procurauth/internal/store"
)

func init() {
	store.RegisterAdapter(adapter{})
}

type adapter struct{}

func (adapter) Name() string { return "memory" }

func (adapter) Connect(context.Context, store.Config) (store.Connection, error) {
	return New(), nil
}

// Conn agrupa ambos repositorios en memoria.
type Conn struct {
	otp   *OTPRepo
	users *UserRepo
}

// New crea una conexión vacía.
func New() *Conn {
	return &Conn{otp: NewOTPRepo(), users: NewUserRepo()}
}

func (c *Conn) Name() string                     { return "memory" }
func (c *Conn) Ping(context.Context) error       { return nil }
func (c *Conn) Close() error                     { return nil }
func (c *Conn) OTP() repository.OTPRepository    { return c.otp }
func (c *Conn) Users() repository.UserRepository { return c.users }
func (c *Conn) OTPRepo() *OTPRepo                { return c.otp }
func (c *Conn) UserRepo() *UserRepo              { return c.users }

// ─── OTP ───

// OTPRepo guarda una entrada por userId.
type OTPRepo struct {
	mu      sync.Mutex
	entries map[string]repository.OTPEntry
}

func NewOTPRepo() *OTPRepo {
	return &OTPRepo{entries: make(map[string]repository.OTPEntry)}
}

func (r *OTPRepo) ExpireStale(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k, e := range r.entries {
		if e.State == repository.OTPStateActive && e.ExpiredAt(now) {
			e.State = repository.OTPStateExpired
			r.entries[k] = e
			n++
		}
	}
	return n, nil
}

func (r *OTPRepo) Get(_ context.Context, userID string) (*repository.OTPEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r *OTPRepo) Put(_ context.Context, e repository.OTPEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.UserID] = e
	return nil
}

func (r *OTPRepo) Transition(_ context.Context, userID, entryID string, from, to repository.OTPState) (bool, error) {
	if err := repository.CheckTransition(from, to); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[userID]
	if !ok || e.ID != entryID || e.State != from {
		return false, nil
	}
	e.State = to
	r.entries[userID] = e
	return true, nil
}

// Len devuelve la cantidad de entradas (tests).
func (r *OTPRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// ─── Users ───

// UserRepo indexa por id; las búsquedas por login son case-insensitive.
type UserRepo struct {
	mu    sync.RWMutex
	users map[string]repository.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[string]repository.User)}
}

func (r *UserRepo) FindByLogin(_ context.Context, login string) (*repository.User, error) {
	login = strings.TrimSpace(login)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.MatchesLogin(login) {
			out := u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepo) Create(_ context.Context, u repository.User) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.users {
		if other.Collides(u) {
			return nil, repository.ErrConflict
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if _, exists := r.users[u.ID]; exists {
		return nil, repository.ErrConflict
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	r.users[u.ID] = u
	return &u, nil
}

func (r *UserRepo) UpdatePassword(_ context.Context, id, hash, hashType string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	u.HashType = hashType
	u.UpdatedAt = at
	r.users[id] = u
	return nil
}
