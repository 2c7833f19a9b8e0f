package jwt

import (
	"net/url"
	"strings"
)

// ExtractTokenFromHeader acepta "Bearer <token>" o el token pelado.
func ExtractTokenFromHeader(h string) (string, bool) {
	h = strings.TrimSpace(h)
	if h == "" || strings.EqualFold(h, "Bearer") {
		return "", false
	}
	if scheme, rest, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
		h = strings.TrimSpace(rest)
	}
	if h == "" {
		return "", false
	}
	return h, true
}

// ParseCookieHeader parsea un header Cookie crudo a nombre→valor.
// Los valores se percent-decodifican; si el decode falla se conserva el crudo.
// Ante nombres repetidos gana el primero.
func ParseCookieHeader(header string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, seen := out[name]; seen {
			continue
		}
		value = strings.TrimSpace(value)
		if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			value = value[1 : len(value)-1]
		}
		if dec, err := url.PathUnescape(value); err == nil {
			value = dec
		}
		out[name] = value
	}
	return out
}

// ExtractTokenFromCookies devuelve la cookie name del header Cookie.
func ExtractTokenFromCookies(cookieHeader, name string) (string, bool) {
	if cookieHeader == "" || name == "" {
		return "", false
	}
	v, ok := ParseCookieHeader(cookieHeader)[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
