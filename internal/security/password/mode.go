package password

import (
	"fmt"
	"strings"
)

// Mode identifica el algoritmo con el que se guardó un password.
type Mode string

const (
	// ModeNone guarda el password en claro. INSEGURO: solo dev/test y datos legacy.
	ModeNone Mode = "none"
	// ModeArgon2 usa Argon2id + pepper, serializado en formato PHC.
	ModeArgon2 Mode = "argon2"
)

// ParseMode valida un hashType persistido. Vacío se trata como desconocido.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeNone:
		return ModeNone, nil
	case ModeArgon2:
		return ModeArgon2, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) String() string { return string(m) }

// DetectMode infiere el modo a partir del prefijo del hash guardado.
// Sin marcador reconocible se asume ModeNone.
func DetectMode(stored string) Mode {
	if strings.HasPrefix(stored, "$argon2") {
		return ModeArgon2
	}
	return ModeNone
}

// ResolveMode usa el hashType persistido si es válido; si no, lo detecta del hash.
func ResolveMode(hashType, stored string) Mode {
	if m, err := ParseMode(hashType); err == nil {
		return m
	}
	return DetectMode(stored)
}
