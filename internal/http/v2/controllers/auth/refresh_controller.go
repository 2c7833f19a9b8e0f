package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/procurauth/internal/http/v2/dto/auth"
	"github.com/dropDatabas3/procurauth/internal/http/v2/errors"
	"github.com/dropDatabas3/procurauth/internal/http/v2/helpers"
	jwtx "github.com/dropDatabas3/procurauth/internal/jwt"
	"github.com/dropDatabas3/procurauth/internal/observability/logger"
)

// RefreshController maneja POST /auth/refresh. El token sale del body y, si no viene, de la cookie.
type RefreshController struct {
	deps Deps
}

func NewRefreshController(d Deps) *RefreshController {
	return &RefreshController{deps: d}
}

func (c *RefreshController) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RefreshController.Refresh"))

	if !helpers.RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.RefreshRequest
	if appErr := helpers.ReadJSON(w, r, &req); appErr != nil {
		errors.WriteError(w, appErr)
		return
	}
	token := req.RefreshToken
	if token == "" {
		token, _ = jwtx.ExtractTokenFromCookies(r.Header.Get("Cookie"), c.deps.Cookies.RefreshName)
	}
	if token == "" {
		errors.WriteError(w, errors.ErrTokenMissing)
		return
	}

	sess, err := c.deps.Service.Refresh(ctx, token)
	if err != nil {
		handleError(w, err, log)
		return
	}
	writeSession(w, c.deps, sess)
}
