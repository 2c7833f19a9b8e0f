// Package auth contiene DTOs para login, refresh y me.
package auth

// LoginRequest: username acepta email o username.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest: el token puede venir en el body o en la cookie de refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// UserInfo es la vista pública del usuario.
type UserInfo struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"`
}

// TokenResponse es la respuesta de login y refresh.
type TokenResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	TokenType    string    `json:"tokenType"` // "Bearer"
	ExpiresIn    int64     `json:"expiresIn"` // segundos
	User         *UserInfo `json:"user,omitempty"`
}
