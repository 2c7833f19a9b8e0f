package auth

import (
	"net/http"

	"github.com/dropDatabas3/procurauth/internal/http/v2/errors"
	"github.com/dropDatabas3/procurauth/internal/http/v2/helpers"
	"github.com/dropDatabas3/procurauth/internal/http/v2/middlewares"
	svc "github.com/dropDatabas3/procurauth/internal/http/v2/services/auth"
	"github.com/dropDatabas3/procurauth/internal/observability/logger"
)

// MeController maneja GET /auth/me. Requiere RequireAuth antes.
type MeController struct {
	service svc.Service
}

func NewMeController(service svc.Service) *MeController {
	return &MeController{service: service}
}

func (c *MeController) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("MeController.Me"))

	if !helpers.RequireMethod(w, r, http.MethodGet) {
		return
	}

	userID := middlewares.GetUserID(ctx)
	if userID == "" {
		errors.WriteError(w, errors.ErrTokenMissing)
		return
	}

	user, err := c.service.Me(ctx, userID)
	if err != nil {
		handleError(w, err, log)
		return
	}
	helpers.WriteData(w, userInfo(user))
}
