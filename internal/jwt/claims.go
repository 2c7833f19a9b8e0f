// Package jwt emite y verifica los access/refresh tokens (HS256) del servicio.
package jwt

import (
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// TypeRefresh marca los refresh tokens. Los access tokens no llevan "type".
const TypeRefresh = "refresh"

// Identity son los datos del usuario que viajan en el token.
type Identity struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

// Claims del token.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role,omitempty"`
	Type   string `json:"type,omitempty"`
	jwtv5.RegisteredClaims
}

// Identity devuelve la identidad contenida en las claims.
func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, Email: c.Email, Name: c.Name, Role: c.Role}
}

// IsRefresh indica si el token es un refresh token.
func (c *Claims) IsRefresh() bool { return c.Type == TypeRefresh }
