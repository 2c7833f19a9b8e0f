package auth

import (
	"net/http"

	"github.com/dropDatabas3/procurauth/internal/domain/repository"
	dto "github.com/dropDatabas3/procurauth/internal/http/v2/dto/auth"
	"github.com/dropDatabas3/procurauth/internal/http/v2/errors"
	"github.com/dropDatabas3/procurauth/internal/http/v2/helpers"
	svc "github.com/dropDatabas3/procurauth/internal/http/v2/services/auth"
	"github.com/dropDatabas3/procurauth/internal/observability/logger"
)

// LoginController maneja POST /auth/login.
type LoginController struct {
	deps Deps
}

func NewLoginController(d Deps) *LoginController {
	return &LoginController{deps: d}
}

func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Login"))

	if !helpers.RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.LoginRequest
	if appErr := helpers.ReadJSON(w, r, &req); appErr != nil {
		errors.WriteError(w, appErr)
		return
	}

	sess, err := c.deps.Service.Login(ctx, svc.LoginInput{Username: req.Username, Password: req.Password})
	if err != nil {
		handleError(w, err, log)
		return
	}
	writeSession(w, c.deps, sess)
}

func userInfo(u *repository.User) *dto.UserInfo {
	return &dto.UserInfo{
		UserID:   u.ID,
		Email:    u.Email,
		Username: u.Username,
		Name:     u.Name,
		Role:     u.Role,
	}
}

// writeSession setea las cookies y escribe el par de tokens.
func writeSession(w http.ResponseWriter, d Deps, sess *svc.Session) {
	d.Cookies.SetSessionCookies(w, sess.Tokens.AccessToken, sess.Tokens.RefreshToken, d.AccessTTL, d.RefreshTTL)
	helpers.WriteData(w, dto.TokenResponse{
		AccessToken:  sess.Tokens.AccessToken,
		RefreshToken: sess.Tokens.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    sess.Tokens.ExpiresIn,
		User:         userInfo(sess.User),
	})
}
