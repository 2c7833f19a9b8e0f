package password

import (
	stderrors "errors"
	"net/http"

	"go.uber.org/zap"

	otpctrl "github.com/dropDatabas3/procurauth/internal/http/v2/controllers/otp"
	dto "github.com/dropDatabas3/procurauth/internal/http/v2/dto/password"
	"github.com/dropDatabas3/procurauth/internal/http/v2/errors"
	"github.com/dropDatabas3/procurauth/internal/http/v2/helpers"
	svc "github.com/dropDatabas3/procurauth/internal/http/v2/services/password"
	"github.com/dropDatabas3/procurauth/internal/observability/logger"
	pwd "github.com/dropDatabas3/procurauth/internal/security/password"
)

// PasswordController maneja reset y change.
type PasswordController struct {
	service svc.Service
}

func NewPasswordController(service svc.Service) *PasswordController {
	return &PasswordController{service: service}
}

// Reset maneja POST /auth/password/reset
func (c *PasswordController) Reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("PasswordController.Reset"))

	if !helpers.RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.ResetRequest
	if appErr := helpers.ReadJSON(w, r, &req); appErr != nil {
		errors.WriteError(w, appErr)
		return
	}

	err := c.service.Reset(ctx, svc.ResetInput{
		Username:        req.Username,
		Code:            req.Code,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		c.handleError(w, err, log)
		return
	}
	helpers.WriteMessage(w, "Password reset successfully")
}

// Change maneja POST /auth/password/change
func (c *PasswordController) Change(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("PasswordController.Change"))

	if !helpers.RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.ChangeRequest
	if appErr := helpers.ReadJSON(w, r, &req); appErr != nil {
		errors.WriteError(w, appErr)
		return
	}

	err := c.service.Change(ctx, svc.ChangeInput{
		ClientID:        req.ClientID,
		SecretKey:       req.SecretKey,
		Username:        req.Username,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		c.handleError(w, err, log)
		return
	}
	helpers.WriteMessage(w, "Password changed successfully")
}

func (c *PasswordController) handleError(w http.ResponseWriter, err error, log *zap.Logger) {
	var ve *svc.ValidationError
	switch {
	case stderrors.As(err, &ve):
		errors.WriteError(w, errors.ErrValidation.WithDetail(ve.Reason))
	case stderrors.Is(err, svc.ErrUserNotFound):
		errors.WriteError(w, errors.ErrUserNotFound)
	case stderrors.Is(err, svc.ErrInvalidCredential):
		errors.WriteError(w, errors.ErrInvalidCredential)
	case stderrors.Is(err, pwd.ErrPepperMissing):
		log.Error("password hashing not configured", logger.Err(err))
		errors.WriteError(w, errors.ErrConfiguration.WithCause(err))
	default:
		if appErr := otpctrl.ServiceError(err); appErr != nil {
			errors.WriteError(w, appErr)
			return
		}
		log.Error("unexpected password error", logger.Err(err))
		errors.WriteError(w, errors.ErrInternalServerError.WithCause(err))
	}
}
