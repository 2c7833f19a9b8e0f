// Package auth contiene los controllers de sesión: login, refresh, logout y me.
package auth

import (
	"time"

	"github.com/dropDatabas3/procurauth/internal/http/v2/helpers"
	svc "github.com/dropDatabas3/procurauth/internal/http/v2/services/auth"
)

// Deps de los controllers auth.
type Deps struct {
	Service    svc.Service
	Cookies    helpers.CookieConfig
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Controllers agrupa todos los controllers del dominio auth.
type Controllers struct {
	Login   *LoginController
	Refresh *RefreshController
	Logout  *LogoutController
	Me      *MeController
}

func NewControllers(d Deps) *Controllers {
	return &Controllers{
		Login:   NewLoginController(d),
		Refresh: NewRefreshController(d),
		Logout:  NewLogoutController(d.Cookies),
		Me:      NewMeController(d.Service),
	}
}
