// Package health contiene el controller para health checks.
package health

import (
	"net/http"

	dto "github.com/dropDatabas3/procurauth/internal/http/v2/dto/health"
	"github.com/dropDatabas3/procurauth/internal/http/v2/helpers"
	svc "github.com/dropDatabas3/procurauth/internal/http/v2/services/health"
	"github.com/dropDatabas3/procurauth/internal/observability/logger"
)

// HealthController maneja las rutas de health check.
type HealthController struct {
	service svc.Service
}

func NewHealthController(service svc.Service) *HealthController {
	return &HealthController{service: service}
}

// Healthz maneja GET /healthz: el proceso responde.
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	if !helpers.RequireMethod(w, r, http.MethodGet) {
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "status": "ok"})
}

// Readyz maneja GET /readyz
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("HealthController.Readyz"))

	if !helpers.RequireMethod(w, r, http.MethodGet) {
		return
	}

	response := c.service.Check(ctx)

	if response.Version != "" {
		w.Header().Set("X-Service-Version", response.Version)
	}

	// Status code según estado
	statusCode := http.StatusOK
	if response.Status == dto.StatusUnavailable {
		statusCode = http.StatusServiceUnavailable
	}

	log.Debug("health check completed",
		logger.String("status", response.Status),
		logger.Int("components_count", len(response.Components)),
	)

	helpers.WriteJSON(w, statusCode, map[string]any{
		"success": statusCode == http.StatusOK,
		"data":    response,
	})
}
