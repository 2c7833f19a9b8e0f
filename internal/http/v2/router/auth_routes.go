package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	ctrl "github.com/dropDatabas3/procurauth/internal/http/v2/controllers/auth"
)

func registerAuthRoutes(r chi.Router, deps Deps, c *ctrl.Controllers) {
	// POST /auth/login
	r.Method(http.MethodPost, "/auth/login", publicHandler(deps, http.HandlerFunc(c.Login.Login)))

	// POST /auth/refresh (body o cookie)
	r.Method(http.MethodPost, "/auth/refresh", publicHandler(deps, http.HandlerFunc(c.Refresh.Refresh)))

	// POST /auth/logout
	r.Method(http.MethodPost, "/auth/logout", publicHandler(deps, http.HandlerFunc(c.Logout.Logout)))

	// GET /auth/me (requires auth)
	r.Method(http.MethodGet, "/auth/me", authedHandler(deps, http.HandlerFunc(c.Me.Me)))
}
