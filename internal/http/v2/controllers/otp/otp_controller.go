package otp

import (
	stderrors "errors"
	"net/http"

	"go.uber.org/zap"

	dto "github.com/dropDatabas3/procurauth/internal/http/v2/dto/otp"
	"github.com/dropDatabas3/procurauth/internal/http/v2/errors"
	"github.com/dropDatabas3/procurauth/internal/http/v2/helpers"
	svc "github.com/dropDatabas3/procurauth/internal/http/v2/services/otp"
	"github.com/dropDatabas3/procurauth/internal/observability/logger"
	"github.com/dropDatabas3/procurauth/internal/security/clientauth"
)

// OTPController maneja POST /2fa/generate y POST /2fa/validate.
type OTPController struct {
	service svc.Service
}

func NewOTPController(service svc.Service) *OTPController {
	return &OTPController{service: service}
}

// Generate maneja POST /2fa/generate
func (c *OTPController) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("OTPController.Generate"))

	if !helpers.RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.GenerateRequest
	if appErr := helpers.ReadJSON(w, r, &req); appErr != nil {
		errors.WriteError(w, appErr)
		return
	}

	out, err := c.service.Generate(ctx, svc.GenerateInput{
		UserID:     req.UserID,
		ClientID:   req.ClientID,
		SecretKey:  req.SecretKey,
		TTLSeconds: req.TTLSeconds,
	})
	if err != nil {
		writeServiceError(w, err, log)
		return
	}

	helpers.WriteData(w, dto.GenerateResponse{
		UserID:     out.UserID,
		ExpiresAt:  out.ExpiresAt.UTC(),
		Code:       out.Code,
		TTLSeconds: out.TTLSeconds,
	})
}

// Validate maneja POST /2fa/validate
func (c *OTPController) Validate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("OTPController.Validate"))

	if !helpers.RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.ValidateRequest
	if appErr := helpers.ReadJSON(w, r, &req); appErr != nil {
		errors.WriteError(w, appErr)
		return
	}

	err := c.service.Validate(ctx, svc.ValidateInput{
		UserID:    req.UserID,
		Code:      req.Code,
		ClientID:  req.ClientID,
		SecretKey: req.SecretKey,
	})
	if err != nil {
		writeServiceError(w, err, log)
		return
	}
	helpers.WriteMessage(w, "2FA code verified")
}

// ServiceError traduce errores del flujo OTP a AppError. Lo reusa el reset de password.
func ServiceError(err error) *errors.AppError {
	var limited *svc.RateLimitedError
	switch {
	case stderrors.As(err, &limited):
		return errors.ErrTooSoon.WithRetryAfter(limited.RetryAfter)
	case stderrors.Is(err, clientauth.ErrNotConfigured):
		return errors.ErrConfiguration.WithCause(err)
	case stderrors.Is(err, clientauth.ErrMismatch):
		return errors.ErrUnauthorized
	case stderrors.Is(err, svc.ErrMissingUserID):
		return errors.ErrMissingFields.WithDetail("userId is required")
	case stderrors.Is(err, svc.ErrMissingFields):
		return errors.ErrMissingFields.WithDetail("userId and code are required")
	case stderrors.Is(err, svc.ErrNotFound):
		return errors.ErrCodeNotFound
	case stderrors.Is(err, svc.ErrExpired):
		return errors.ErrExpired
	case stderrors.Is(err, svc.ErrInvalidCode):
		return errors.ErrInvalidCode
	default:
		return nil
	}
}

func writeServiceError(w http.ResponseWriter, err error, log *zap.Logger) {
	if appErr := ServiceError(err); appErr != nil {
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			log.Error("otp request failed", logger.Err(err))
		}
		errors.WriteError(w, appErr)
		return
	}
	log.Error("unexpected otp error", logger.Err(err))
	errors.WriteError(w, errors.ErrInternalServerError.WithCause(err))
}
