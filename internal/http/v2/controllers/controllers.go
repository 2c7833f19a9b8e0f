// Package controllers agrupa todos los controllers HTTP V2.
// Cada dominio tiene su sub-paquete con un aggregator (controllers.go) y
// este paquete los arma a partir de services.Services.
package controllers

import (
	"github.com/dropDatabas3/procurauth/internal/http/v2/controllers/auth"
	"github.com/dropDatabas3/procurauth/internal/http/v2/controllers/health"
	"github.com/dropDatabas3/procurauth/internal/http/v2/controllers/otp"
	"github.com/dropDatabas3/procurauth/internal/http/v2/controllers/password"
	"github.com/dropDatabas3/procurauth/internal/http/v2/helpers"
	"github.com/dropDatabas3/procurauth/internal/http/v2/services"
	jwtx "github.com/dropDatabas3/procurauth/internal/jwt"
)

// Options son los datos de transporte que no viven en los services.
type Options struct {
	Cookies helpers.CookieConfig
	Tokens  *jwtx.Service // para los Max-Age de las cookies
}

// Controllers agrupa todos los sub-controllers por dominio.
type Controllers struct {
	OTP      *otp.Controllers      // /2fa/generate, /2fa/validate
	Password *password.Controllers // /auth/password/reset, /auth/password/change
	Auth     *auth.Controllers     // login, refresh, logout, me
	Health   *health.Controllers   // healthz, readyz
}

func New(svc *services.Services, opts Options) *Controllers {
	authDeps := auth.Deps{Service: svc.Auth, Cookies: opts.Cookies}
	if opts.Tokens != nil {
		authDeps.AccessTTL = opts.Tokens.AccessTTL()
		authDeps.RefreshTTL = opts.Tokens.RefreshTTL()
	}
	return &Controllers{
		OTP:      otp.NewControllers(svc.OTP),
		Password: password.NewControllers(svc.Password),
		Auth:     auth.NewControllers(authDeps),
		Health:   health.NewControllers(svc.Health),
	}
}
