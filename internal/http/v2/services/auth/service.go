// Package auth implementa login, refresh y me sobre los tokens JWT del servicio.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/procurauth/internal/domain/repository"
	jwtx "github.com/dropDatabas3/procurauth/internal/jwt"
	"github.com/dropDatabas3/procurauth/internal/metrics"
	"github.com/dropDatabas3/procurauth/internal/observability/logger"
	pwd "github.com/dropDatabas3/procurauth/internal/security/password"
	"github.com/dropDatabas3/procurauth/internal/util/mask"
)

var (
	ErrMissingFields = errors.New("auth: missing required fields")
	// ErrInvalidCredentials cubre usuario inexistente y password incorrecto por igual.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrUserNotFound       = errors.New("auth: user not found")
)

type Deps struct {
	Users  repository.UserRepository
	Hasher *pwd.Hasher
	Tokens *jwtx.Service
	// RehashLegacy migra a argon2 los passwords en claro al loguear.
	RehashLegacy bool
	Metrics      *metrics.Metrics
	Now          func() time.Time
}

type LoginInput struct {
	Username string
	Password string
}

// Session es un par de tokens recién emitido y el usuario al que pertenece.
type Session struct {
	Tokens jwtx.TokenPair
	User   *repository.User
}

type Service interface {
	Login(ctx context.Context, in LoginInput) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	Me(ctx context.Context, userID string) (*repository.User, error)
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

func identityOf(u *repository.User) jwtx.Identity {
	return jwtx.Identity{UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

func (s *service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	sess, err := s.login(ctx, in)
	s.deps.Metrics.RecordLogin(loginResult(err))
	return sess, err
}

func (s *service) login(ctx context.Context, in LoginInput) (*Session, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth"),
		logger.Op("Login"),
	)

	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, ErrMissingFields
	}

	user, err := s.deps.Users.FindByLogin(ctx, username)
	if err != nil {
		if repository.IsNotFound(err) {
			// mismo costo que un password incorrecto
			start := time.Now()
			if derr := s.deps.Hasher.VerifyDummy(ctx, in.Password); derr != nil {
				log.Debug("dummy verify skipped", logger.Err(derr))
			}
			s.deps.Metrics.ObserveHash("verify", string(pwd.ModeArgon2), time.Since(start))
			log.Info("login rejected: unknown user", logger.String("login", mask.Login(username)))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: find user: %w", err)
	}
	log = log.With(logger.UserID(user.ID))

	mode := pwd.ResolveMode(user.HashType, user.PasswordHash)
	start := time.Now()
	ok, err := s.deps.Hasher.Verify(ctx, in.Password, user.PasswordHash, mode)
	s.deps.Metrics.ObserveHash("verify", mode.String(), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("auth: verify: %w", err)
	}
	if !ok {
		log.Info("login rejected: password mismatch", logger.HashMode(mode.String()))
		return nil, ErrInvalidCredentials
	}

	pair, err := s.deps.Tokens.CreateTokenPair(identityOf(user))
	if err != nil {
		return nil, err
	}

	if s.deps.RehashLegacy && s.deps.Hasher.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, in.Password)
	}

	log.Info("login ok", logger.HashMode(user.HashType))
	return &Session{Tokens: pair, User: user}, nil
}

// rehash migra el password al modo actual. Un fallo no invalida el login.
func (s *service) rehash(ctx context.Context, user *repository.User, plain string) {
	log := logger.From(ctx).With(logger.Op("Login.rehash"), logger.UserID(user.ID))
	if err := s.deps.Hasher.Ready(); err != nil {
		log.Warn("legacy rehash skipped", logger.Err(err))
		return
	}
	start := time.Now()
	hash, err := s.deps.Hasher.Hash(ctx, plain, pwd.ModeArgon2)
	s.deps.Metrics.ObserveHash("hash", string(pwd.ModeArgon2), time.Since(start))
	if err != nil {
		log.Warn("legacy rehash failed", logger.Err(err))
		return
	}
	now := s.deps.Now().UTC()
	if err := s.deps.Users.UpdatePassword(ctx, user.ID, hash, string(pwd.ModeArgon2), now); err != nil {
		log.Warn("legacy rehash not persisted", logger.Err(err))
		return
	}
	user.PasswordHash, user.HashType, user.UpdatedAt = hash, string(pwd.ModeArgon2), now
	log.Info("password rehashed", logger.HashMode(string(pwd.ModeArgon2)))
}

// Refresh valida el refresh token y emite un par nuevo con los datos actuales del usuario.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, ErrMissingFields
	}
	var user *repository.User
	pair, _, err := s.deps.Tokens.Refresh(refreshToken, func(c *jwtx.Claims) (jwtx.Identity, error) {
		u, err := s.Me(ctx, c.UserID)
		if err != nil {
			return jwtx.Identity{}, err
		}
		user = u
		return identityOf(u), nil
	})
	if err != nil {
		return nil, err
	}
	logger.From(ctx).Debug("tokens refreshed", logger.Op("Refresh"), logger.UserID(user.ID))
	return &Session{Tokens: pair, User: user}, nil
}

func (s *service) Me(ctx context.Context, userID string) (*repository.User, error) {
	if userID == "" {
		return nil, ErrUserNotFound
	}
	user, err := s.deps.Users.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("auth: get user: %w", err)
	}
	return user, nil
}

func loginResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, ErrMissingFields):
		return metrics.ResultInvalid
	case errors.Is(err, ErrInvalidCredentials):
		return metrics.ResultUnauthorized
	default:
		return metrics.ResultError
	}
}
