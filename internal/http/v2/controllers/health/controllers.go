package health

import svc "github.com/dropDatabas3/procurauth/internal/http/v2/services/health"

type Controllers struct {
	Health *HealthController
}

func NewControllers(s svc.Service) *Controllers {
	return &Controllers{Health: NewHealthController(s)}
}
