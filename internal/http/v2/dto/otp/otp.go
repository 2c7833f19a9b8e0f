// Package otp contiene DTOs de /2fa.
package otp

import "time"

// GenerateRequest. TTLSeconds es opcional; puede venir fraccionario.
type GenerateRequest struct {
	UserID     string   `json:"userId"`
	ClientID   string   `json:"clientId"`
	SecretKey  string   `json:"secretKey"`
	TTLSeconds *float64 `json:"ttlSeconds,omitempty"`
}

type GenerateResponse struct {
	UserID     string    `json:"userId"`
	ExpiresAt  time.Time `json:"expiresAt"`
	Code       string    `json:"code"`
	TTLSeconds int       `json:"ttlSeconds"`
}

type ValidateRequest struct {
	UserID    string `json:"userId"`
	Code      string `json:"code"`
	ClientID  string `json:"clientId"`
	SecretKey string `json:"secretKey"`
}
