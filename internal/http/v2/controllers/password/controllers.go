// Package password contiene los controllers de /auth/password.
package password

import svc "github.com/dropDatabas3/procurauth/internal/http/v2/services/password"

type Controllers struct {
	Password *PasswordController
}

func NewControllers(s svc.Service) *Controllers {
	return &Controllers{Password: NewPasswordController(s)}
}
