package repository

import (
	"context"
	"strings"
	"time"
)

// User es el subconjunto del usuario que interesa a autenticación.
type User struct {
	ID           string
	Email        string
	Username     string
	Name         string
	Role         string
	PasswordHash string
	// HashType: "none" | "argon2". Vacío = detectar por prefijo del hash.
	HashType  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MatchesLogin compara login contra email o username sin distinguir mayúsculas.
func (u User) MatchesLogin(login string) bool {
	if login == "" {
		return false
	}
	return strings.EqualFold(u.Email, login) || (u.Username != "" && strings.EqualFold(u.Username, login))
}

// Collides indica si u y o comparten email o username (case-insensitive).
func (u User) Collides(o User) bool {
	if u.Email != "" && strings.EqualFold(u.Email, o.Email) {
		return true
	}
	return u.Username != "" && strings.EqualFold(u.Username, o.Username)
}

// UserRepository define las operaciones de credenciales sobre usuarios.
type UserRepository interface {
	// FindByLogin busca por email o username, case-insensitive.
	// Retorna ErrNotFound si no existe.
	FindByLogin(ctx context.Context, login string) (*User, error)

	// GetByID retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*User, error)

	// Create inserta un usuario. Retorna ErrConflict si email/username ya existen.
	Create(ctx context.Context, u User) (*User, error)

	// UpdatePassword reemplaza hash, hashType y updatedAt.
	UpdatePassword(ctx context.Context, id, hash, hashType string, at time.Time) error
}
