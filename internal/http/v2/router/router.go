// Package router arma el router chi con las rutas V2 y sus cadenas de middlewares.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/procurauth/internal/http/v2/controllers"
	"github.com/dropDatabas3/procurauth/internal/http/v2/errors"
	mw "github.com/dropDatabas3/procurauth/internal/http/v2/middlewares"
	"github.com/dropDatabas3/procurauth/internal/metrics"
)

// Deps contiene todo lo necesario para registrar las rutas.
type Deps struct {
	Controllers *controllers.Controllers

	// Middlewares
	RateLimiter   mw.RateLimiter // opcional
	AuthVerifier  mw.AccessVerifier
	AccessCookie  string
	TrustProxy    bool
	CORSOrigins   []string
	Metrics       *metrics.Metrics // opcional
	ExposeMetrics bool             // /metrics en el mismo listener
}

// New registra todas las rutas y devuelve el handler raíz.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	if cors := mw.WithCORS(deps.CORSOrigins); cors != nil {
		r.Use(cors)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		errors.WriteError(w, errors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		errors.WriteError(w, errors.ErrMethodNotAllowed)
	})

	c := deps.Controllers
	registerOTPRoutes(r, deps, c.OTP)
	registerPasswordRoutes(r, deps, c.Password)
	registerAuthRoutes(r, deps, c.Auth)
	registerHealthRoutes(r, deps, c.Health)

	if deps.ExposeMetrics && deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}
	return r
}

// baseChain: Recover → RequestID → Metrics → SecurityHeaders → NoStore.
func baseChain(deps Deps) []mw.Middleware {
	return []mw.Middleware{
		mw.WithRecover(),
		mw.WithRequestID(),
		deps.Metrics.WithMetrics,
		mw.WithSecurityHeaders(deps.TrustProxy),
		mw.WithNoStore(),
	}
}

func (d Deps) rateKey() mw.RateKeyFunc {
	if d.TrustProxy {
		return mw.IPOnlyRateKey
	}
	return mw.RemoteAddrRateKey
}

// publicHandler crea el middleware chain para endpoints públicos con rate limit por IP.
func publicHandler(deps Deps, handler http.Handler) http.Handler {
	chain := baseChain(deps)

	if deps.RateLimiter != nil {
		chain = append(chain, mw.WithRateLimit(mw.RateLimitConfig{
			Limiter:   deps.RateLimiter,
			KeyFunc:   deps.rateKey(),
			OnLimited: deps.Metrics.RecordRateLimited,
		}))
	}

	// Logging al final
	chain = append(chain, mw.WithLogging())

	return mw.Chain(handler, chain...)
}

// authedHandler agrega RequireAuth después del logging.
func authedHandler(deps Deps, handler http.Handler) http.Handler {
	return publicHandler(deps, mw.RequireAuth(deps.AuthVerifier, deps.AccessCookie)(handler))
}
