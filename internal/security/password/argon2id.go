package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Params son los costos de Argon2id.
type Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	KeyLen      uint32
	SaltLen     uint32
}

// Default: 64 MiB, 3 iteraciones, 4 lanes, 256 bits.
var Default = Params{Memory: 64 * 1024, Time: 3, Parallelism: 4, KeyLen: 32, SaltLen: 16}

// Mínimos aceptados para producción.
const (
	MinMemoryKiB   = 32 * 1024
	MinTime        = 3
	MinParallelism = 4
	MinKeyLen      = 32
)

// Techos: un hash guardado no puede pedir más que esto al verificar.
const (
	MaxMemoryKiB = 1 << 22 // 4 GiB
	MaxTime      = 16
	MaxKeyLen    = 1024
	MaxSaltLen   = 1024
)

// Validate rechaza parámetros por debajo de los mínimos.
func (p Params) Validate() error {
	switch {
	case p.Memory < MinMemoryKiB:
		return fmt.Errorf("argon2: memory %d KiB below %d", p.Memory, MinMemoryKiB)
	case p.Time < MinTime:
		return fmt.Errorf("argon2: time %d below %d", p.Time, MinTime)
	case p.Parallelism < MinParallelism:
		return fmt.Errorf("argon2: parallelism %d below %d", p.Parallelism, MinParallelism)
	case p.KeyLen < MinKeyLen:
		return fmt.Errorf("argon2: key length %d below %d", p.KeyLen, MinKeyLen)
	case p.SaltLen < 8:
		return errors.New("argon2: salt too short")
	case p.Memory > MaxMemoryKiB:
		return fmt.Errorf("argon2: memory %d KiB above %d", p.Memory, MaxMemoryKiB)
	case p.Time > MaxTime:
		return fmt.Errorf("argon2: time %d above %d", p.Time, MaxTime)
	case p.KeyLen > MaxKeyLen || p.SaltLen > MaxSaltLen:
		return errors.New("argon2: key or salt too long")
	}
	return nil
}

// hashPHC deriva Argon2id y devuelve el string PHC autodescriptivo.
func hashPHC(p Params, input []byte) (string, error) {
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("argon2: salt: %w", err)
	}
	key := argon2.IDKey(input, salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// phc es un hash PHC ya parseado.
type phc struct {
	params Params
	salt   []byte
	key    []byte
}

// parsePHC acepta solo "$argon2id$v=19$m=..,t=..,p=..$salt$key".
func parsePHC(s string) (*phc, error) {
	parts := strings.Split(s, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, errors.New("argon2: not a PHC argon2id string")
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return nil, errors.New("argon2: unsupported version")
	}

	var p Params
	for _, kv := range strings.Split(parts[3], ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, errors.New("argon2: bad params")
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil || n == 0 {
			return nil, errors.New("argon2: bad params")
		}
		switch k {
		case "m":
			if n > MaxMemoryKiB {
				return nil, errors.New("argon2: bad memory")
			}
			p.Memory = uint32(n)
		case "t":
			if n > MaxTime {
				return nil, errors.New("argon2: bad time")
			}
			p.Time = uint32(n)
		case "p":
			if n > 255 {
				return nil, errors.New("argon2: bad parallelism")
			}
			p.Parallelism = uint8(n)
		default:
			return nil, errors.New("argon2: unknown param " + k)
		}
	}
	if p.Memory == 0 || p.Time == 0 || p.Parallelism == 0 {
		return nil, errors.New("argon2: missing params")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 || len(salt) > MaxSaltLen {
		return nil, errors.New("argon2: bad salt")
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > MaxKeyLen {
		return nil, errors.New("argon2: bad key")
	}
	p.SaltLen = uint32(len(salt))
	p.KeyLen = uint32(len(key))
	return &phc{params: p, salt: salt, key: key}, nil
}

// matches re-deriva con los parámetros embebidos y compara en tiempo constante.
func (h *phc) matches(input []byte) bool {
	got := argon2.IDKey(input, h.salt, h.params.Time, h.params.Memory, h.params.Parallelism, h.params.KeyLen)
	return subtle.ConstantTimeCompare(got, h.key) == 1
}
