// Package clientauth valida el par compartido client-id/secret que protege los
// endpoints server-to-server (generación/validación de OTP, cambio de password).
package clientauth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
)

var (
	// ErrNotConfigured: CLIENT_ID o SECRET_KEY faltan del lado servidor (500).
	ErrNotConfigured = errors.New("clientauth: server credentials not configured")
	// ErrMismatch: el caller envió credenciales que no coinciden (401).
	ErrMismatch = errors.New("clientauth: invalid client credentials")
)

// Gate compara contra CLIENT_ID/SECRET_KEY.
type Gate struct {
	clientID  string
	secretKey string
}

func NewGate(clientID, secretKey string) *Gate {
	return &Gate{clientID: clientID, secretKey: secretKey}
}

// Check no tiene efectos secundarios; se llama antes de tocar cualquier store.
func (g *Gate) Check(clientID, secretKey string) error {
	if g == nil || g.clientID == "" || g.secretKey == "" {
		return ErrNotConfigured
	}
	// ambas comparaciones siempre se evalúan
	idOK := equal(clientID, g.clientID)
	secretOK := equal(secretKey, g.secretKey)
	if idOK&secretOK != 1 {
		return ErrMismatch
	}
	return nil
}

// equal compara digests para no filtrar el largo del secreto.
func equal(a, b string) int {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:])
}
