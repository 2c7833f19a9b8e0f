// Package otp contiene los controllers de /2fa.
package otp

import svc "github.com/dropDatabas3/procurauth/internal/http/v2/services/otp"

// Controllers agrupa los controllers del dominio otp.
type Controllers struct {
	OTP *OTPController
}

func NewControllers(s svc.Service) *Controllers {
	return &Controllers{OTP: NewOTPController(s)}
}
