// Package server arma el handler HTTP a partir de la configuración.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/procurauth/internal/config"
	"github.com/dropDatabas3/procurauth/internal/email"
	"github.com/dropDatabas3/procurauth/internal/http/v2/controllers"
	"github.com/dropDatabas3/procurauth/internal/http/v2/helpers"
	mw "github.com/dropDatabas3/procurauth/internal/http/v2/middlewares"
	"github.com/dropDatabas3/procurauth/internal/http/v2/router"
	"github.com/dropDatabas3/procurauth/internal/http/v2/services"
	"github.com/dropDatabas3/procurauth/internal/http/v2/services/health"
	"github.com/dropDatabas3/procurauth/internal/http/v2/services/otp"
	jwtx "github.com/dropDatabas3/procurauth/internal/jwt"
	"github.com/dropDatabas3/procurauth/internal/metrics"
	"github.com/dropDatabas3/procurauth/internal/observability/logger"
	"github.com/dropDatabas3/procurauth/internal/rate"
	"github.com/dropDatabas3/procurauth/internal/security/clientauth"
	"github.com/dropDatabas3/procurauth/internal/security/password"
	"github.com/dropDatabas3/procurauth/internal/store"
)

// App es el resultado del wiring.
type App struct {
	Handler http.Handler
	// MetricsHandler sirve /metrics cuando hay un listener aparte.
	MetricsHandler http.Handler
	Store          store.Connection
	Services       *services.Services
	Cleanup        func() error
}

// Options para tests y para el main.
type Options struct {
	// Registry de métricas; nil crea uno propio.
	Registry *prometheus.Registry
	// Store ya abierto; nil abre el configurado en cfg.Storage.
	Store store.Connection
	// Sender reemplaza al SMTP/noop (tests).
	Sender email.Sender
}

type poolProvider interface {
	Pool() *pgxpool.Pool
}

// Build arma todas las dependencias. Los secretos faltantes no son fatales:
// las rutas que los necesitan responden 500 de configuración.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	log := logger.Named("wiring")
	var closers []func() error
	cleanup := func() error {
		var first error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	// 1. Store
	conn := opts.Store
	if conn == nil {
		var err error
		conn, err = store.Open(ctx, store.Config{
			Driver:      cfg.Storage.Driver,
			DSN:         cfg.Storage.DSN,
			FSRoot:      cfg.Storage.FSRoot,
			MaxConns:    cfg.Storage.MaxConns,
			AutoMigrate: cfg.Storage.AutoMigrate,
		})
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		closers = append(closers, conn.Close)
	}

	// 2. Métricas
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	mcfg := metrics.Config{Registry: reg, Gatherer: reg}
	if pp, ok := conn.(poolProvider); ok {
		mcfg.Pool = pp.Pool
	}
	m, err := metrics.New(mcfg)
	if err != nil {
		_ = cleanup()
		return nil, fmt.Errorf("metrics: %w", err)
	}

	// 3. Seguridad
	hasher, err := password.NewHasher(password.HasherConfig{
		Pepper:        cfg.Security.Pepper,
		Params:        cfg.Argon2Params(),
		MaxConcurrent: cfg.Security.MaxConcurrentHashes,
	})
	if err != nil {
		_ = cleanup()
		return nil, fmt.Errorf("hasher: %w", err)
	}
	if hasher.Ready() != nil {
		log.Warn("PEPPER not set: argon2 hashing disabled until configured")
	}
	blacklist, err := password.LoadBlacklist(cfg.Security.BlacklistPath)
	if err != nil {
		_ = cleanup()
		return nil, fmt.Errorf("password blacklist: %w", err)
	}
	gate := clientauth.NewGate(cfg.Security.ClientID, cfg.Security.SecretKey)
	tokens := jwtx.NewService(jwtx.Config{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		AccessTTL:  cfg.AccessTTL(),
		RefreshTTL: cfg.RefreshTTL(),
	})

	// 4. Rate limiter: redis si hay addr, memoria si no
	var limiter mw.RateLimiter
	var redisPing health.Pinger
	if cfg.Rate.Enabled {
		if cfg.Rate.Redis.Addr != "" {
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.Rate.Redis.Addr,
				DB:       cfg.Rate.Redis.DB,
				Password: cfg.Rate.Redis.Password,
			})
			closers = append(closers, client.Close)
			rl := rate.NewRedisLimiter(client, cfg.Rate.Redis.Prefix, cfg.Rate.MaxRequests, cfg.RateWindow())
			limiter, redisPing = rl, rl
		} else {
			limiter = rate.NewMemoryLimiter(cfg.Rate.MaxRequests, cfg.RateWindow())
		}
	}

	// 5. Notificaciones
	sender := opts.Sender
	if sender == nil {
		if cfg.SMTPEnabled() {
			sender = email.NewSMTPSender(email.SMTPConfig{
				Host:               cfg.SMTP.Host,
				Port:               cfg.SMTP.Port,
				From:               cfg.SMTP.From,
				User:               cfg.SMTP.User,
				Pass:               cfg.SMTP.Pass,
				TLSMode:            cfg.SMTP.TLSMode,
				InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
			})
		} else {
			sender = email.NoopSender{}
		}
	}

	// 6. Services → controllers → router
	svcs := services.New(services.Deps{
		OTPRepo:  conn.OTP(),
		Users:    conn.Users(),
		Store:    conn,
		Redis:    redisPing,
		Hasher:   hasher,
		Tokens:   tokens,
		Gate:     gate,
		Policy:   password.Policy{MinLength: cfg.Security.MinPasswordLength, Blacklist: blacklist},
		Notifier: email.NewNotifier(sender),
		Metrics:  m,
		OTP: otp.Config{
			DefaultTTL: secondsOf(cfg.OTP.DefaultTTLSeconds),
			MinTTL:     secondsOf(cfg.OTP.MinTTLSeconds),
			Cooldown:   cfg.OTPCooldown(),
		},
		RehashLegacy: cfg.RehashLegacy(),
		ServiceName:  cfg.App.ServiceName,
		Version:      cfg.App.Version,
	})

	cookies := helpers.CookieConfig{
		AccessName:  cfg.Auth.Cookies.AccessName,
		RefreshName: cfg.Auth.Cookies.RefreshName,
		Domain:      cfg.Auth.Cookies.Domain,
		Secure:      cfg.Auth.Cookies.Secure || cfg.IsProd(), // en prod siempre Secure
		SameSite:    cfg.Auth.Cookies.SameSite,
	}
	ctrls := controllers.New(svcs, controllers.Options{Cookies: cookies, Tokens: tokens})

	handler := router.New(router.Deps{
		Controllers:   ctrls,
		RateLimiter:   limiter,
		AuthVerifier:  tokens,
		AccessCookie:  cookies.AccessName,
		TrustProxy:    cfg.Server.TrustProxy,
		CORSOrigins:   cfg.Server.CORSAllowedOrigins,
		Metrics:       m,
		ExposeMetrics: cfg.Server.MetricsAddr == "",
	})

	log.Info("http handler ready",
		logger.String("store", conn.Name()),
		logger.Bool("rate_limit", limiter != nil),
		logger.Bool("smtp", cfg.SMTPEnabled()),
	)

	return &App{
		Handler:        handler,
		MetricsHandler: m.Handler(),
		Store:          conn,
		Services:       svcs,
		Cleanup:        cleanup,
	}, nil
}

func secondsOf(n int) time.Duration { return time.Duration(n) * time.Second }
