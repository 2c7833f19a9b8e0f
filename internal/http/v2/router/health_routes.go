package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	ctrl "github.com/dropDatabas3/procurauth/internal/http/v2/controllers/health"
	mw "github.com/dropDatabas3/procurauth/internal/http/v2/middlewares"
)

// registerHealthRoutes: sin rate limit ni logging (muy frecuentes).
func registerHealthRoutes(r chi.Router, deps Deps, c *ctrl.Controllers) {
	r.Method(http.MethodGet, "/healthz", healthBaseHandler(http.HandlerFunc(c.Health.Healthz)))
	r.Method(http.MethodGet, "/readyz", healthBaseHandler(http.HandlerFunc(c.Health.Readyz)))
}

func healthBaseHandler(handler http.Handler) http.Handler {
	return mw.Chain(handler,
		mw.WithRecover(),
		mw.WithRequestID(),
	)
}
