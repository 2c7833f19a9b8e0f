package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	ctrl "github.com/dropDatabas3/procurauth/internal/http/v2/controllers/otp"
)

func registerOTPRoutes(r chi.Router, deps Deps, c *ctrl.Controllers) {
	// POST /2fa/generate
	r.Method(http.MethodPost, "/2fa/generate", publicHandler(deps, http.HandlerFunc(c.OTP.Generate)))

	// POST /2fa/validate
	r.Method(http.MethodPost, "/2fa/validate", publicHandler(deps, http.HandlerFunc(c.OTP.Validate)))
}
