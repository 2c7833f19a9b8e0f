package repository

import (
	"context"
	"fmt"
	"time"
)

// OTPState es el estado de una entrada OTP.
//
//	active ──verify ok──▶ consumed
//	   └────expiry─────▶ expired
//
// consumed y expired son terminales.
type OTPState string

const (
	OTPStateActive   OTPState = "active"
	OTPStateConsumed OTPState = "consumed"
	OTPStateExpired  OTPState = "expired"
)

// Valid indica si s es uno de los tres estados conocidos.
func (s OTPState) Valid() bool {
	switch s {
	case OTPStateActive, OTPStateConsumed, OTPStateExpired:
		return true
	}
	return false
}

// Terminal indica si ya no hay transiciones posibles.
func (s OTPState) Terminal() bool {
	return s == OTPStateConsumed || s == OTPStateExpired
}

// CanTransition valida from→to.
func (s OTPState) CanTransition(to OTPState) bool {
	return s == OTPStateActive && to.Terminal()
}

// CheckTransition devuelve ErrInvalidTransition si from→to no es válido.
func CheckTransition(from, to OTPState) error {
	if !from.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// OTPEntry es la única entrada OTP vigente (o la última) de un usuario.
// CodeHash nunca es el código en claro.
type OTPEntry struct {
	ID          string
	UserID      string
	CodeHash    string
	ExpiresAt   time.Time
	GeneratedAt time.Time
	State       OTPState
}

// ExpiredAt indica si la entrada vence en o antes de now.
func (e OTPEntry) ExpiredAt(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// ConsumedOrExpired es el flag persistido históricamente en el JSON.
func (e OTPEntry) ConsumedOrExpired() bool {
	return e.State.Terminal()
}

// ActiveAt indica si la entrada puede validarse en now.
func (e OTPEntry) ActiveAt(now time.Time) bool {
	return e.State == OTPStateActive && !e.ExpiredAt(now)
}

// OTPRepository persiste una entrada por usuario.
type OTPRepository interface {
	// ExpireStale pasa a expired toda entrada activa con ExpiresAt <= now.
	// Devuelve cuántas cambió. Es idempotente.
	ExpireStale(ctx context.Context, now time.Time) (int, error)

	// Get devuelve la entrada del usuario o ErrNotFound.
	Get(ctx context.Context, userID string) (*OTPEntry, error)

	// Put reemplaza (no agrega) la entrada del usuario.
	Put(ctx context.Context, e OTPEntry) error

	// Transition aplica from→to solo si la entrada actual del usuario tiene ese ID
	// y está en from. Devuelve false si la condición no se cumplió.
	Transition(ctx context.Context, userID, entryID string, from, to OTPState) (bool, error)
}
