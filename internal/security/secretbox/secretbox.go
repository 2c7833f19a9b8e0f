// Package secretbox cifra secretos de configuración (password SMTP, DSN) con AES-256-GCM.
// Formato: base64(nonce)|base64(ciphertext).
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	nonceSizeGCM      = 12  // AES-GCM nonce size recomendado (96 bits)
	requiredKeyLength = 32  // 32 bytes => AES-256
	sep               = "|" // nonce|ciphertext (ambos en base64)
)

var (
	ErrKeyMissing = errors.New("secretbox: master key not configured")
	ErrFormat     = errors.New("secretbox: expected base64(nonce)|base64(ciphertext)")
)

// Key es una clave AES-256 ya decodificada.
type Key []byte

// ParseKey acepta base64 (con o sin padding), hex de 64 chars o 32 bytes crudos.
// Genere una con: openssl rand -base64 32
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrKeyMissing
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil && len(b) == requiredKeyLength {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(s); err == nil && len(b) == requiredKeyLength {
		return b, nil
	}
	if len(s) == 2*requiredKeyLength {
		if b, err := hex.DecodeString(s); err == nil {
			return b, nil
		}
	}
	if len(s) == requiredKeyLength {
		return Key(s), nil
	}
	return nil, fmt.Errorf("secretbox: invalid key: need %d bytes", requiredKeyLength)
}

func (k Key) gcm() (cipher.AEAD, error) {
	if len(k) != requiredKeyLength {
		return nil, ErrKeyMissing
	}
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// Seal cifra plainText con un nonce aleatorio.
func (k Key) Seal(plainText string) (string, error) {
	aesgcm, err := k.gcm()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, nonceSizeGCM)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce random: %w", err)
	}
	ct := aesgcm.Seal(nil, nonce, []byte(plainText), nil)
	return base64.StdEncoding.EncodeToString(nonce) + sep + base64.StdEncoding.EncodeToString(ct), nil
}

// Open descifra lo producido por Seal. Un ciphertext alterado falla.
func (k Key) Open(cipherText string) (string, error) {
	nonceB64, ctB64, ok := strings.Cut(strings.TrimSpace(cipherText), sep)
	if !ok {
		return "", ErrFormat
	}
	nonce, err := base64.StdEncoding.DecodeString(nonceB64)
	if err != nil {
		return "", fmt.Errorf("decode nonce: %w", err)
	}
	ct, err := base64.StdEncoding.DecodeString(ctB64)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(nonce) != nonceSizeGCM {
		return "", fmt.Errorf("%w: nonce of %d bytes", ErrFormat, len(nonce))
	}
	aesgcm, err := k.gcm()
	if err != nil {
		return "", err
	}
	pt, err := aesgcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("gcm auth/decrypt: %w", err)
	}
	return string(pt), nil
}
