// Package password contiene DTOs de /auth/password.
package password

type ResetRequest struct {
	Username        string `json:"username"`
	Code            string `json:"code"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type ChangeRequest struct {
	ClientID        string `json:"clientId"`
	SecretKey       string `json:"secretKey"`
	Username        string `json:"username"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
}
