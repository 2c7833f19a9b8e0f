// Package password orquesta reset (con OTP) y cambio (con password actual) de contraseñas.
// Ninguno de los dos flujos persiste nada antes de que su verificación haya pasado.
package password

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/procurauth/internal/domain/repository"
	"github.com/dropDatabas3/procurauth/internal/http/v2/services/otp"
	"github.com/dropDatabas3/procurauth/internal/metrics"
	"github.com/dropDatabas3/procurauth/internal/observability/logger"
	"github.com/dropDatabas3/procurauth/internal/security/clientauth"
	pwd "github.com/dropDatabas3/procurauth/internal/security/password"
	"github.com/dropDatabas3/procurauth/internal/util/mask"
)

var (
	ErrValidation        = errors.New("password: validation failed")
	ErrUserNotFound      = errors.New("password: user not found")
	ErrInvalidCredential = errors.New("password: current password is incorrect")
)

// ValidationError lleva el motivo legible; matchea ErrValidation con errors.Is.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string        { return "password: " + e.Reason }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Notifier avisa al usuario que su contraseña cambió. Lo implementa *email.Notifier.
type Notifier interface {
	PasswordChanged(ctx context.Context, to, name, action string, at time.Time) error
}

type Deps struct {
	Users    repository.UserRepository
	OTP      otp.Consumer
	Hasher   *pwd.Hasher
	Gate     *clientauth.Gate
	Policy   pwd.Policy
	Notifier Notifier         // opcional
	Metrics  *metrics.Metrics // opcional
	Now      func() time.Time
}

type ResetInput struct {
	Username        string
	Code            string
	Password        string
	ConfirmPassword string
}

type ChangeInput struct {
	ClientID        string
	SecretKey       string
	Username        string
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string // opcional
}

type Service interface {
	Reset(ctx context.Context, in ResetInput) error
	Change(ctx context.Context, in ChangeInput) error
}

type service struct {
	deps Deps
}

func NewService(deps Deps) Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{deps: deps}
}

func (s *service) Reset(ctx context.Context, in ResetInput) error {
	err := s.reset(ctx, in)
	s.deps.Metrics.RecordPassword("reset", flowResult(err))
	return err
}

func (s *service) reset(ctx context.Context, in ResetInput) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("password"),
		logger.Op("Reset"),
	)

	username := strings.TrimSpace(in.Username)
	if username == "" || strings.TrimSpace(in.Code) == "" || in.Password == "" || in.ConfirmPassword == "" {
		return invalid("username, code, password and confirmPassword are required")
	}
	if in.Password != in.ConfirmPassword {
		return invalid("passwords do not match")
	}
	if err := s.checkPolicy(in.Password); err != nil {
		return err
	}
	// sin pepper no tiene sentido gastar el código
	if err := s.deps.Hasher.Ready(); err != nil {
		return err
	}

	user, err := s.findUser(ctx, username)
	if err != nil {
		return err
	}
	log = log.With(logger.UserID(user.ID))

	// el hash va antes del consume: un fallo acá no gasta el código
	hash, err := s.hash(ctx, in.Password)
	if err != nil {
		return err
	}

	if err := s.deps.OTP.Consume(ctx, user.ID, in.Code); err != nil {
		log.Info("reset rejected", logger.Err(err))
		return err
	}

	// código gastado: persistir aunque el cliente haya cortado
	detached := context.WithoutCancel(ctx)
	if err := s.persist(detached, user, hash); err != nil {
		return err
	}
	log.Info("password reset", logger.String("login", mask.Login(username)))
	s.notify(detached, user, "reset")
	return nil
}

func (s *service) Change(ctx context.Context, in ChangeInput) error {
	err := s.change(ctx, in)
	s.deps.Metrics.RecordPassword("change", flowResult(err))
	return err
}

func (s *service) change(ctx context.Context, in ChangeInput) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("password"),
		logger.Op("Change"),
	)

	if err := s.deps.Gate.Check(in.ClientID, in.SecretKey); err != nil {
		return err
	}

	username := strings.TrimSpace(in.Username)
	if username == "" || in.CurrentPassword == "" || in.NewPassword == "" {
		return invalid("username, currentPassword and newPassword are required")
	}
	if in.ConfirmPassword != "" && in.ConfirmPassword != in.NewPassword {
		return invalid("passwords do not match")
	}
	if err := s.checkPolicy(in.NewPassword); err != nil {
		return err
	}
	if in.NewPassword == in.CurrentPassword {
		return invalid("new password must be different from the current one")
	}

	user, err := s.findUser(ctx, username)
	if err != nil {
		return err
	}
	log = log.With(logger.UserID(user.ID))

	mode := pwd.ResolveMode(user.HashType, user.PasswordHash)
	start := time.Now()
	ok, err := s.deps.Hasher.Verify(ctx, in.CurrentPassword, user.PasswordHash, mode)
	s.deps.Metrics.ObserveHash("verify", mode.String(), time.Since(start))
	if err != nil {
		return fmt.Errorf("password: verify current: %w", err)
	}
	if !ok {
		log.Info("change rejected: current password mismatch", logger.HashMode(mode.String()))
		return ErrInvalidCredential
	}

	hash, err := s.hash(ctx, in.NewPassword)
	if err != nil {
		return err
	}
	if err := s.persist(ctx, user, hash); err != nil {
		return err
	}
	log.Info("password changed", logger.HashMode(string(pwd.ModeArgon2)))
	s.notify(ctx, user, "changed")
	return nil
}

func (s *service) checkPolicy(p string) error {
	if ok, reasons := s.deps.Policy.Validate(p); !ok {
		min := s.deps.Policy.MinLength
		if min <= 0 {
			min = pwd.DefaultPolicy.MinLength
		}
		for _, r := range reasons {
			if r == "too_short" {
				return invalid("password must be at least %d characters", min)
			}
		}
		return invalid("password is too common")
	}
	return nil
}

func (s *service) findUser(ctx context.Context, login string) (*repository.User, error) {
	user, err := s.deps.Users.FindByLogin(ctx, login)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("password: find user: %w", err)
	}
	return user, nil
}

// hash deriva argon2. Un request ya cancelado no arranca la derivación.
func (s *service) hash(ctx context.Context, plain string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	start := time.Now()
	hash, err := s.deps.Hasher.Hash(ctx, plain, pwd.ModeArgon2)
	s.deps.Metrics.ObserveHash("hash", string(pwd.ModeArgon2), time.Since(start))
	if err != nil {
		return "", fmt.Errorf("password: hash: %w", err)
	}
	return hash, nil
}

func (s *service) persist(ctx context.Context, user *repository.User, hash string) error {
	if err := s.deps.Users.UpdatePassword(ctx, user.ID, hash, string(pwd.ModeArgon2), s.deps.Now().UTC()); err != nil {
		return fmt.Errorf("password: update: %w", err)
	}
	return nil
}

// notify es best effort: un fallo de envío no revierte el cambio.
func (s *service) notify(ctx context.Context, user *repository.User, action string) {
	if s.deps.Notifier == nil {
		return
	}
	if err := s.deps.Notifier.PasswordChanged(ctx, user.Email, user.Name, action, s.deps.Now()); err != nil {
		logger.From(ctx).Warn("password notification failed", logger.UserID(user.ID), logger.Err(err))
	}
}

func flowResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, clientauth.ErrMismatch):
		return metrics.ResultUnauthorized
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidCredential), errors.Is(err, otp.ErrInvalidCode):
		return metrics.ResultInvalid
	case errors.Is(err, ErrUserNotFound), errors.Is(err, otp.ErrNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, otp.ErrExpired):
		return metrics.ResultExpired
	default:
		return metrics.ResultError
	}
}
