package auth

import (
	"net/http"

	"github.com/dropDatabas3/procurauth/internal/http/v2/helpers"
)

// LogoutController maneja POST /auth/logout. No hay revocación server-side: solo se borran las cookies.
type LogoutController struct {
	cookies helpers.CookieConfig
}

func NewLogoutController(cookies helpers.CookieConfig) *LogoutController {
	return &LogoutController{cookies: cookies}
}

func (c *LogoutController) Logout(w http.ResponseWriter, r *http.Request) {
	if !helpers.RequireMethod(w, r, http.MethodPost) {
		return
	}
	c.cookies.ClearSessionCookies(w)
	helpers.WriteMessage(w, "Logged out")
}
