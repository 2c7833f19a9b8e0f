package password

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/sync/semaphore"
)

var (
	// ErrPepperMissing: PEPPER no configurado. Es un error de configuración,
	// nunca se degrada a hashing sin pepper.
	ErrPepperMissing = errors.New("password: pepper not configured")
	ErrUnknownMode   = errors.New("password: unknown hash mode")
)

// Hasher hashea y verifica passwords según Mode.
type Hasher struct {
	pepper string
	params Params
	sem    *semaphore.Weighted
	// dummy tiene los params actuales; solo se usa en VerifyDummy.
	dummy *phc
}

// HasherConfig configura el Hasher. Params cero usa Default.
type HasherConfig struct {
	Pepper string
	Params Params
	// MaxConcurrent limita derivaciones Argon2 simultáneas (cada una reserva Params.Memory).
	MaxConcurrent int64
}

func NewHasher(cfg HasherConfig) (*Hasher, error) {
	p := cfg.Params
	if p == (Params{}) {
		p = Default
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	n := cfg.MaxConcurrent
	if n <= 0 {
		n = 4
	}
	dummy := &phc{params: p, salt: make([]byte, p.SaltLen), key: make([]byte, p.KeyLen)}
	return &Hasher{pepper: cfg.Pepper, params: p, sem: semaphore.NewWeighted(n), dummy: dummy}, nil
}

// Ready indica si el hasher puede producir hashes argon2 (pepper presente).
func (h *Hasher) Ready() error {
	if h == nil || h.pepper == "" {
		return ErrPepperMissing
	}
	return nil
}

// Hash devuelve el password para guardar. ModeNone lo devuelve tal cual (INSEGURO).
func (h *Hasher) Hash(ctx context.Context, plain string, mode Mode) (string, error) {
	switch mode {
	case ModeNone:
		return plain, nil
	case ModeArgon2:
		if h.pepper == "" {
			return "", ErrPepperMissing
		}
		if err := h.sem.Acquire(ctx, 1); err != nil {
			return "", err
		}
		defer h.sem.Release(1)
		return hashPHC(h.params, []byte(plain+h.pepper))
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// Verify compara plain contra stored. Hashes malformados devuelven false sin error;
// solo falta de pepper o ctx cancelado devuelven error.
func (h *Hasher) Verify(ctx context.Context, plain, stored string, mode Mode) (bool, error) {
	switch mode {
	case ModeNone:
		a := sha256.Sum256([]byte(plain))
		b := sha256.Sum256([]byte(stored))
		return subtle.ConstantTimeCompare(a[:], b[:]) == 1, nil
	case ModeArgon2:
		if h.pepper == "" {
			return false, ErrPepperMissing
		}
		parsed, err := parsePHC(stored)
		if err != nil {
			return false, nil
		}
		if err := h.sem.Acquire(ctx, 1); err != nil {
			return false, err
		}
		defer h.sem.Release(1)
		return parsed.matches([]byte(plain + h.pepper)), nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// VerifyDummy paga el costo de un Verify argon2 sin hash real, para que un
// login contra un usuario inexistente tarde lo mismo que uno con password incorrecto.
func (h *Hasher) VerifyDummy(ctx context.Context, plain string) error {
	if h.pepper == "" {
		return ErrPepperMissing
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer h.sem.Release(1)
	_ = h.dummy.matches([]byte(plain + h.pepper))
	return nil
}

// NeedsRehash indica si stored debería migrarse al modo/params actuales.
func (h *Hasher) NeedsRehash(stored string) bool {
	if DetectMode(stored) != ModeArgon2 {
		return true
	}
	parsed, err := parsePHC(stored)
	if err != nil {
		return true
	}
	p := parsed.params
	return p.Memory < h.params.Memory || p.Time < h.params.Time ||
		p.Parallelism < h.params.Parallelism || p.KeyLen < h.params.KeyLen
}
