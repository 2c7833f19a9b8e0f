// Package otp emite y verifica códigos de un solo uso por usuario.
//
// Hay a lo sumo una entrada por usuario; emitir un código nuevo reemplaza la anterior.
// Toda operación sobre un usuario corre bajo su lock (keylock) y las transiciones de
// estado se persisten con compare-and-set, así que dos verificaciones concurrentes del
// mismo código tienen exactamente un ganador aun entre procesos.
package otp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/procurauth/internal/domain/repository"
	"github.com/dropDatabas3/procurauth/internal/metrics"
	"github.com/dropDatabas3/procurauth/internal/observability/logger"
	"github.com/dropDatabas3/procurauth/internal/security/clientauth"
	tokens "github.com/dropDatabas3/procurauth/internal/security/token"
	"github.com/dropDatabas3/procurauth/internal/util/keylock"
)

var (
	ErrMissingUserID = errors.New("otp: userId is required")
	ErrMissingFields = errors.New("otp: userId and code are required")
	ErrNotFound      = errors.New("otp: no code issued for user")
	ErrExpired       = errors.New("otp: code expired or already used")
	ErrInvalidCode   = errors.New("otp: invalid code")
)

// RateLimitedError: se pidió un código nuevo antes del cooldown.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("otp: code requested too soon, retry after %s", e.RetryAfter)
}

const codeDigits = 6

// Config: costos y tiempos. Cero = defaults.
type Config struct {
	DefaultTTL time.Duration // 300s
	MinTTL     time.Duration // 30s
	Cooldown   time.Duration // 30s
}

func (c Config) withDefaults() Config {
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = 300 * time.Second
	}
	if c.MinTTL <= 0 {
		c.MinTTL = 30 * time.Second
	}
	if c.DefaultTTL < c.MinTTL {
		c.DefaultTTL = c.MinTTL
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 30 * time.Second
	}
	return c
}

type Deps struct {
	Repo    repository.OTPRepository
	Gate    *clientauth.Gate
	Locks   *keylock.Locker  // nil = uno propio
	Metrics *metrics.Metrics // opcional
	Now     func() time.Time // nil = time.Now
	Config  Config
}

type GenerateInput struct {
	UserID     string
	ClientID   string
	SecretKey  string
	TTLSeconds *float64
}

type Issued struct {
	UserID     string
	Code       string
	ExpiresAt  time.Time
	TTLSeconds int
}

type ValidateInput struct {
	UserID    string
	Code      string
	ClientID  string
	SecretKey string
}

// Consumer es lo que necesitan otros flujos (reset de password) para gastar un código.
type Consumer interface {
	Consume(ctx context.Context, userID, code string) error
}

type Service interface {
	Consumer
	Generate(ctx context.Context, in GenerateInput) (*Issued, error)
	Validate(ctx context.Context, in ValidateInput) error
}

type service struct {
	deps Deps
	cfg  Config
}

func NewService(deps Deps) Service {
	if deps.Locks == nil {
		deps.Locks = keylock.New()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{deps: deps, cfg: deps.Config.withDefaults()}
}

// ttlFor aplica floor a segundos enteros y el mínimo. Sin valor (o no finito) usa el default.
func (s *service) ttlFor(requested *float64) time.Duration {
	if requested == nil || math.IsNaN(*requested) || math.IsInf(*requested, 0) {
		return s.cfg.DefaultTTL
	}
	// acotar en float antes de convertir: time.Duration(secs)*time.Second desborda int64
	secs := math.Floor(*requested)
	if secs < s.cfg.MinTTL.Seconds() {
		return s.cfg.MinTTL
	}
	return time.Duration(math.Min(secs, math.MaxInt32)) * time.Second
}

func (s *service) Generate(ctx context.Context, in GenerateInput) (*Issued, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("otp"),
		logger.Op("Generate"),
	)

	// credenciales antes de tocar el store
	if err := s.deps.Gate.Check(in.ClientID, in.SecretKey); err != nil {
		s.deps.Metrics.RecordOTPIssued(metrics.ResultUnauthorized)
		return nil, err
	}
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		s.deps.Metrics.RecordOTPIssued(metrics.ResultInvalid)
		return nil, ErrMissingUserID
	}
	log = log.With(logger.UserID(userID))

	unlock, err := s.deps.Locks.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.deps.Now()
	if _, err := s.deps.Repo.ExpireStale(ctx, now); err != nil {
		s.deps.Metrics.RecordOTPIssued(metrics.ResultError)
		return nil, fmt.Errorf("otp: sweep: %w", err)
	}

	prev, err := s.deps.Repo.Get(ctx, userID)
	switch {
	case err == nil:
		if prev.ActiveAt(now) {
			elapsed := now.Sub(prev.GeneratedAt)
			if elapsed < s.cfg.Cooldown {
				wait := s.cfg.Cooldown - elapsed
				if wait > s.cfg.Cooldown {
					wait = s.cfg.Cooldown // generatedAt en el futuro (reloj movido)
				}
				s.deps.Metrics.RecordOTPIssued(metrics.ResultRateLimited)
				log.Info("otp regeneration throttled", logger.RetryAfter(wait))
				return nil, &RateLimitedError{RetryAfter: wait}
			}
		}
	case repository.IsNotFound(err):
	default:
		s.deps.Metrics.RecordOTPIssued(metrics.ResultError)
		return nil, fmt.Errorf("otp: load entry: %w", err)
	}

	code, err := tokens.GenerateNumericCode(codeDigits)
	if err != nil {
		s.deps.Metrics.RecordOTPIssued(metrics.ResultError)
		return nil, fmt.Errorf("otp: generate code: %w", err)
	}

	ttl := s.ttlFor(in.TTLSeconds)
	entry := repository.OTPEntry{
		ID:          uuid.NewString(),
		UserID:      userID,
		CodeHash:    tokens.SHA256Hex(code),
		ExpiresAt:   now.Add(ttl),
		GeneratedAt: now,
		State:       repository.OTPStateActive,
	}
	if err := s.deps.Repo.Put(ctx, entry); err != nil {
		s.deps.Metrics.RecordOTPIssued(metrics.ResultError)
		return nil, fmt.Errorf("otp: store entry: %w", err)
	}

	s.deps.Metrics.RecordOTPIssued(metrics.ResultOK)
	log.Info("otp issued", logger.Int("ttl_seconds", int(ttl/time.Second)))
	return &Issued{
		UserID:     userID,
		Code:       code,
		ExpiresAt:  entry.ExpiresAt,
		TTLSeconds: int(ttl / time.Second),
	}, nil
}

func (s *service) Validate(ctx context.Context, in ValidateInput) error {
	if err := s.deps.Gate.Check(in.ClientID, in.SecretKey); err != nil {
		s.deps.Metrics.RecordOTPVerified(metrics.ResultUnauthorized)
		return err
	}
	if strings.TrimSpace(in.UserID) == "" || strings.TrimSpace(in.Code) == "" {
		s.deps.Metrics.RecordOTPVerified(metrics.ResultInvalid)
		return ErrMissingFields
	}
	return s.Consume(ctx, in.UserID, in.Code)
}

func (s *service) Consume(ctx context.Context, userID, code string) error {
	err := s.consume(ctx, strings.TrimSpace(userID), strings.TrimSpace(code))
	s.deps.Metrics.RecordOTPVerified(verifyResult(err))
	return err
}

func (s *service) consume(ctx context.Context, userID, code string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("otp"),
		logger.Op("Consume"),
		logger.UserID(userID),
	)
	if userID == "" || code == "" {
		return ErrMissingFields
	}

	unlock, err := s.deps.Locks.Lock(ctx, userID)
	if err != nil {
		return err
	}
	defer unlock()

	now := s.deps.Now()
	if _, err := s.deps.Repo.ExpireStale(ctx, now); err != nil {
		return fmt.Errorf("otp: sweep: %w", err)
	}

	e, err := s.deps.Repo.Get(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("otp: load entry: %w", err)
	}

	// se re-chequea por tiempo aunque el sweep lo haya salteado
	if e.State != repository.OTPStateActive || e.ExpiredAt(now) {
		if e.State == repository.OTPStateActive {
			if _, err := s.deps.Repo.Transition(ctx, userID, e.ID, repository.OTPStateActive, repository.OTPStateExpired); err != nil {
				return fmt.Errorf("otp: mark expired: %w", err)
			}
		}
		log.Debug("otp not active", logger.OTPState(string(e.State)))
		return ErrExpired
	}

	if !tokens.EqualHash(tokens.SHA256Hex(code), e.CodeHash) {
		log.Info("otp mismatch")
		return ErrInvalidCode
	}

	ok, err := s.deps.Repo.Transition(ctx, userID, e.ID, repository.OTPStateActive, repository.OTPStateConsumed)
	if err != nil {
		return fmt.Errorf("otp: consume: %w", err)
	}
	if !ok {
		// otro proceso lo consumió o reemitió entre el Get y el CAS
		return ErrExpired
	}
	log.Info("otp consumed")
	return nil
}

func verifyResult(err error) string {
	var rl *RateLimitedError
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, ErrNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, ErrExpired):
		return metrics.ResultExpired
	case errors.Is(err, ErrInvalidCode), errors.Is(err, ErrMissingFields):
		return metrics.ResultInvalid
	case errors.As(err, &rl):
		return metrics.ResultRateLimited
	default:
		return metrics.ResultError
	}
}
