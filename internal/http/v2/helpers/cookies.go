package helpers

import (
	"net/http"
	"strings"
	"time"
)

// CookieConfig describe las cookies de sesión (access y refresh).
type CookieConfig struct {
	AccessName  string
	RefreshName string
	Domain      string
	Secure      bool
	SameSite    string // "lax" | "strict" | "none"
}

func (c CookieConfig) sameSite() http.SameSite {
	switch strings.ToLower(c.SameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func (c CookieConfig) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		// SameSite=None exige Secure
		Secure:   c.Secure || c.sameSite() == http.SameSiteNoneMode,
		SameSite: c.sameSite(),
	}
}

// SetSessionCookies escribe access y refresh como HttpOnly.
func (c CookieConfig) SetSessionCookies(w http.ResponseWriter, access, refresh string, accessTTL, refreshTTL time.Duration) {
	http.SetCookie(w, c.cookie(c.AccessName, access, int(accessTTL/time.Second)))
	http.SetCookie(w, c.cookie(c.RefreshName, refresh, int(refreshTTL/time.Second)))
}

// ClearSessionCookies expira ambas cookies.
func (c CookieConfig) ClearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(c.AccessName, "", -1))
	http.SetCookie(w, c.cookie(c.RefreshName, "", -1))
}
