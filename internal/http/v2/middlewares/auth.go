package middlewares

import (
	stderrors "errors"
	"net/http"

	"github.com/dropDatabas3/procurauth/internal/http/v2/errors"
	jwtx "github.com/dropDatabas3/procurauth/internal/jwt"
)

// AccessVerifier verifica access tokens. Lo implementa *jwt.Service.
type AccessVerifier interface {
	VerifyAccessToken(token string) (*jwtx.Claims, error)
}

// RequireAuth toma el token de Authorization (Bearer o pelado) y, si no hay,
// de la cookie cookieName. Guarda las claims en el contexto o responde 401.
func RequireAuth(verifier AccessVerifier, cookieName string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := jwtx.ExtractTokenFromHeader(r.Header.Get("Authorization"))
			if !ok {
				raw, ok = jwtx.ExtractTokenFromCookies(r.Header.Get("Cookie"), cookieName)
			}
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				errors.WriteError(w, errors.ErrTokenMissing)
				return
			}

			claims, err := verifier.VerifyAccessToken(raw)
			if err != nil {
				appErr := TokenError(err)
				if appErr.HTTPStatus == http.StatusUnauthorized {
					w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				}
				errors.WriteError(w, appErr)
				return
			}

			ctx := WithClaims(r.Context(), claims)
			if claims.UserID != "" {
				ctx = WithUserID(ctx, claims.UserID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenError traduce errores del servicio de tokens a AppError.
func TokenError(err error) *errors.AppError {
	switch {
	case stderrors.Is(err, jwtx.ErrTokenExpired):
		return errors.ErrTokenExpired
	case stderrors.Is(err, jwtx.ErrInvalidTokenType):
		return errors.ErrInvalidTokenType
	case stderrors.Is(err, jwtx.ErrSecretMissing):
		return errors.ErrConfiguration.WithCause(err)
	default:
		return errors.ErrTokenInvalid
	}
}
