package auth

import (
	stderrors "errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dropDatabas3/procurauth/internal/http/v2/errors"
	"github.com/dropDatabas3/procurauth/internal/http/v2/middlewares"
	svc "github.com/dropDatabas3/procurauth/internal/http/v2/services/auth"
	jwtx "github.com/dropDatabas3/procurauth/internal/jwt"
	"github.com/dropDatabas3/procurauth/internal/observability/logger"
	pwd "github.com/dropDatabas3/procurauth/internal/security/password"
)

// handleError mapea errores del service auth a respuestas HTTP.
func handleError(w http.ResponseWriter, err error, log *zap.Logger) {
	switch {
	case stderrors.Is(err, svc.ErrMissingFields):
		errors.WriteError(w, errors.ErrMissingFields)
	case stderrors.Is(err, svc.ErrInvalidCredentials):
		errors.WriteError(w, errors.ErrInvalidCredentials)
	case stderrors.Is(err, svc.ErrUserNotFound):
		// token válido de un usuario que ya no existe
		errors.WriteError(w, errors.ErrTokenInvalid.WithDetail("user no longer exists"))
	case stderrors.Is(err, jwtx.ErrSecretMissing), stderrors.Is(err, pwd.ErrPepperMissing):
		log.Error("auth not configured", logger.Err(err))
		errors.WriteError(w, errors.ErrConfiguration.WithCause(err))
	case stderrors.Is(err, jwtx.ErrTokenExpired), stderrors.Is(err, jwtx.ErrTokenInvalid), stderrors.Is(err, jwtx.ErrInvalidTokenType):
		errors.WriteError(w, middlewares.TokenError(err))
	default:
		log.Error("unexpected auth error", logger.Err(err))
		errors.WriteError(w, errors.ErrInternalServerError.WithCause(err))
	}
}
