package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	ctrl "github.com/dropDatabas3/procurauth/internal/http/v2/controllers/password"
)

func registerPasswordRoutes(r chi.Router, deps Deps, c *ctrl.Controllers) {
	r.Route("/auth/password", func(r chi.Router) {
		r.Method(http.MethodPost, "/reset", publicHandler(deps, http.HandlerFunc(c.Password.Reset)))
		r.Method(http.MethodPost, "/change", publicHandler(deps, http.HandlerFunc(c.Password.Change)))
	})
}
