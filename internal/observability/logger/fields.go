package logger

import (
	"time"

	"go.uber.org/zap"
)

// Field evita que los callers importen zap solo para armar slices de campos.
type Field = zap.Field

// ─── HTTP ───

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field  { return zap.String("client_ip", v) }
func UserAgent(v string) zap.Field { return zap.String("user_agent", v) }

// DurationMs crea un campo con la duración en milisegundos.
func DurationMs(d time.Duration) zap.Field {
	return zap.Int64("duration_ms", d.Milliseconds())
}

// ─── Negocio ───

func UserID(v string) zap.Field { return zap.String("user_id", v) }

// ClientID identifica al caller del gate client-id/secret. Nunca loguear el secret.
func ClientID(v string) zap.Field { return zap.String("client_id", v) }

// HashMode registra el modo de hash ("none" | "argon2"), nunca el hash.
func HashMode(v string) zap.Field { return zap.String("hash_mode", v) }

// OTPState registra el estado de una entrada OTP.
func OTPState(v string) zap.Field { return zap.String("otp_state", v) }

// RetryAfter registra el tiempo de espera de un throttle.
func RetryAfter(d time.Duration) zap.Field { return zap.Duration("retry_after", d) }

// ─── Sistema ───

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }

// Layer: controller | service | repository.
func Layer(v string) zap.Field { return zap.String("layer", v) }
func Err(err error) zap.Field  { return zap.Error(err) }

// ─── Genéricos ───

func Count(v int) zap.Field             { return zap.Int("count", v) }
func String(key, v string) zap.Field    { return zap.String(key, v) }
func Int(key string, v int) zap.Field   { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
func Any(key string, v any) zap.Field   { return zap.Any(key, v) }
