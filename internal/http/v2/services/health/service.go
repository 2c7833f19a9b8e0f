// Package health contiene el service para readiness.
package health

import (
	"context"
	"fmt"
	"time"

	dto "github.com/dropDatabas3/procurauth/internal/http/v2/dto/health"
	jwtx "github.com/dropDatabas3/procurauth/internal/jwt"
	"github.com/dropDatabas3/procurauth/internal/observability/logger"
)

// Pinger lo cumplen store.Connection y rate.RedisLimiter.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Readier lo cumple *password.Hasher.
type Readier interface {
	Ready() error
}

// Deps: Store es crítico; el resto degrada.
type Deps struct {
	Store   Pinger
	Redis   Pinger // nil = limiter en memoria
	Tokens  *jwtx.Service
	Hasher  Readier
	Service string
	Version string
	Timeout time.Duration // por componente, default 2s
	Now     func() time.Time
}

type Service interface {
	Check(ctx context.Context) dto.Response
}

type service struct {
	deps Deps
}

func NewService(deps Deps) Service {
	if deps.Timeout <= 0 {
		deps.Timeout = 2 * time.Second
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{deps: deps}
}

func (s *service) Check(ctx context.Context) dto.Response {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("health"),
		logger.Op("Check"),
	)

	resp := dto.Response{
		Components: make(map[string]dto.Status, 4),
		Service:    s.deps.Service,
		Version:    s.deps.Version,
		Timestamp:  s.deps.Now().UTC(),
	}
	critical, degraded := false, false

	// 1) Store (crítico)
	if s.deps.Store == nil {
		resp.Components["store"] = dto.Status{Status: "error", Message: "store not initialized"}
		critical = true
	} else if err := s.ping(ctx, s.deps.Store); err != nil {
		resp.Components["store"] = dto.Status{Status: "error", Message: fmt.Sprintf("unavailable: %v", err)}
		critical = true
		log.Error("store unavailable", logger.Err(err))
	} else {
		resp.Components["store"] = dto.Status{Status: "ok"}
	}

	// 2) Redis (no crítico, el limiter hace fail-open)
	if s.deps.Redis == nil {
		resp.Components["redis"] = dto.Status{Status: "disabled", Message: "in-memory rate limiter"}
	} else if err := s.ping(ctx, s.deps.Redis); err != nil {
		resp.Components["redis"] = dto.Status{Status: "error", Message: fmt.Sprintf("unavailable: %v", err)}
		degraded = true
		log.Warn("redis unavailable", logger.Err(err))
	} else {
		resp.Components["redis"] = dto.Status{Status: "ok"}
	}

	// 3) Tokens: firma y verifica uno descartable
	if err := s.checkTokens(); err != nil {
		resp.Components["tokens"] = dto.Status{Status: "error", Message: err.Error()}
		degraded = true
		log.Warn("token self-check failed", logger.Err(err))
	} else {
		resp.Components["tokens"] = dto.Status{Status: "ok"}
	}

	// 4) Hasher (pepper)
	if s.deps.Hasher == nil {
		resp.Components["hasher"] = dto.Status{Status: "error", Message: "hasher not initialized"}
		degraded = true
	} else if err := s.deps.Hasher.Ready(); err != nil {
		resp.Components["hasher"] = dto.Status{Status: "error", Message: err.Error()}
		degraded = true
	} else {
		resp.Components["hasher"] = dto.Status{Status: "ok"}
	}

	switch {
	case critical:
		resp.Status = dto.StatusUnavailable
	case degraded:
		resp.Status = dto.StatusDegraded
	default:
		resp.Status = dto.StatusReady
	}
	return resp
}

func (s *service) ping(ctx context.Context, p Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
	defer cancel()
	return p.Ping(ctx)
}

func (s *service) checkTokens() error {
	if s.deps.Tokens == nil {
		return fmt.Errorf("token service not initialized")
	}
	tk, err := s.deps.Tokens.CreateAccessToken(jwtx.Identity{UserID: "selfcheck"})
	if err != nil {
		return fmt.Errorf("sign failed: %w", err)
	}
	if _, err := s.deps.Tokens.VerifyAccessToken(tk); err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}
	return nil
}
