package middlewares

import (
	"net/http"
	"strings"
)

// apiHeaders son fijos: el servicio solo responde JSON.
var apiHeaders = map[string]string{
	"Referrer-Policy":                   "no-referrer",
	"X-Content-Type-Options":            "nosniff",
	"X-Frame-Options":                   "DENY",
	"X-Permitted-Cross-Domain-Policies": "none",
	"Cross-Origin-Resource-Policy":      "same-site",
	"Content-Security-Policy":           "default-src 'none'; frame-ancestors 'none'; base-uri 'none'",
}

const hstsValue = "max-age=15552000; includeSubDomains"

// overTLS: TLS directo, o X-Forwarded-Proto=https solo si el proxy es de confianza.
func overTLS(r *http.Request, trustProxy bool) bool {
	if r.TLS != nil {
		return true
	}
	if !trustProxy {
		return false
	}
	proto, _, _ := strings.Cut(r.Header.Get("X-Forwarded-Proto"), ",")
	return strings.EqualFold(strings.TrimSpace(proto), "https")
}

// WithSecurityHeaders agrega las cabeceras de API y HSTS cuando el request vino por HTTPS.
func WithSecurityHeaders(trustProxy bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for k, v := range apiHeaders {
				h.Set(k, v)
			}
			if overTLS(r, trustProxy) {
				h.Set("Strict-Transport-Security", hstsValue)
			}
			next.ServeHTTP(w, r)
		})
	}
}
