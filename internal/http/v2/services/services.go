// Package services agrupa todos los services HTTP V2.
// Este es el "composition root" de services: wiring.go arma Deps y los
// controllers reciben los services ya construidos.
//
//	deps := services.Deps{...}
//	svcs := services.New(deps)
//	ctrls := controllers.New(svcs, controllers.Options{...})
package services

import (
	"time"

	"github.com/dropDatabas3/procurauth/internal/domain/repository"
	"github.com/dropDatabas3/procurauth/internal/http/v2/services/auth"
	"github.com/dropDatabas3/procurauth/internal/http/v2/services/health"
	"github.com/dropDatabas3/procurauth/internal/http/v2/services/otp"
	"github.com/dropDatabas3/procurauth/internal/http/v2/services/password"
	jwtx "github.com/dropDatabas3/procurauth/internal/jwt"
	"github.com/dropDatabas3/procurauth/internal/metrics"
	"github.com/dropDatabas3/procurauth/internal/security/clientauth"
	pwd "github.com/dropDatabas3/procurauth/internal/security/password"
	"github.com/dropDatabas3/procurauth/internal/util/keylock"
)

// Deps contiene las dependencias base para crear los services.
type Deps struct {
	// ─── Infraestructura ───
	OTPRepo repository.OTPRepository
	Users   repository.UserRepository
	Store   health.Pinger
	Redis   health.Pinger // nil si el limiter es en memoria

	// ─── Seguridad ───
	Hasher *pwd.Hasher
	Tokens *jwtx.Service
	Gate   *clientauth.Gate
	Policy pwd.Policy

	// ─── Opcionales ───
	Notifier password.Notifier
	Metrics  *metrics.Metrics

	// ─── Configuración ───
	OTP          otp.Config
	RehashLegacy bool
	ServiceName  string
	Version      string
	Now          func() time.Time
}

// Services agrupa los services por dominio.
type Services struct {
	OTP      otp.Service
	Password password.Service
	Auth     auth.Service
	Health   health.Service
}

// New crea todos los services. OTP y Password comparten el mismo servicio OTP,
// así el reset consume códigos bajo los mismos locks que /2fa/validate.
func New(d Deps) *Services {
	otpSvc := otp.NewService(otp.Deps{
		Repo:    d.OTPRepo,
		Gate:    d.Gate,
		Locks:   keylock.New(),
		Metrics: d.Metrics,
		Now:     d.Now,
		Config:  d.OTP,
	})
	return &Services{
		OTP: otpSvc,
		Password: password.NewService(password.Deps{
			Users:    d.Users,
			OTP:      otpSvc,
			Hasher:   d.Hasher,
			Gate:     d.Gate,
			Policy:   d.Policy,
			Notifier: d.Notifier,
			Metrics:  d.Metrics,
			Now:      d.Now,
		}),
		Auth: auth.NewService(auth.Deps{
			Users:        d.Users,
			Hasher:       d.Hasher,
			Tokens:       d.Tokens,
			RehashLegacy: d.RehashLegacy,
			Metrics:      d.Metrics,
			Now:          d.Now,
		}),
		Health: health.NewService(health.Deps{
			Store:   d.Store,
			Redis:   d.Redis,
			Tokens:  d.Tokens,
			Hasher:  d.Hasher,
			Service: d.ServiceName,
			Version: d.Version,
			Now:     d.Now,
		}),
	}
}
