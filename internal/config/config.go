package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/procurauth/internal/security/password"
	"github.com/dropDatabas3/procurauth/internal/security/secretbox"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env         string `yaml:"app_env"`
		ServiceName string `yaml:"service_name"`
		Version     string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Addr            string `yaml:"addr"`
		MetricsAddr     string `yaml:"metrics_addr"` // vacío: /metrics en el listener principal
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
		TrustProxy      bool   `yaml:"trust_proxy"`
		// CORS; vacío = sin headers CORS
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Storage struct {
		Driver      string `yaml:"driver"` // memory | fs | postgres
		DSN         string `yaml:"dsn"`
		DSNEnc      string `yaml:"dsn_enc"` // secretbox; pisa a dsn
		FSRoot      string `yaml:"fs_root"`
		MaxConns    int32  `yaml:"max_conns"`
		AutoMigrate bool   `yaml:"auto_migrate"`
	} `yaml:"storage"`

	Security struct {
		ClientID  string `yaml:"client_id"`
		SecretKey string `yaml:"secret_key"`
		Pepper    string `yaml:"pepper"`
		Argon2    struct {
			MemoryKiB   uint32 `yaml:"memory_kib"`
			Time        uint32 `yaml:"time"`
			Parallelism uint8  `yaml:"parallelism"`
			KeyLen      uint32 `yaml:"key_len"`
			SaltLen     uint32 `yaml:"salt_len"`
		} `yaml:"argon2"`
		MaxConcurrentHashes int64  `yaml:"max_concurrent_hashes"`
		MinPasswordLength   int    `yaml:"min_password_length"`
		BlacklistPath       string `yaml:"blacklist_path"`
		// MasterKey descifra los campos *_enc (SECRETBOX_MASTER_KEY).
		MasterKey string `yaml:"master_key"`
	} `yaml:"security"`

	JWT struct {
		Secret     string `yaml:"secret"`
		Issuer     string `yaml:"issuer"`
		AccessTTL  string `yaml:"access_ttl"`
		RefreshTTL string `yaml:"refresh_ttl"`
	} `yaml:"jwt"`

	Auth struct {
		RehashLegacy *bool `yaml:"rehash_legacy"`
		Cookies      struct {
			AccessName  string `yaml:"access_name"`
			RefreshName string `yaml:"refresh_name"`
			Domain      string `yaml:"domain"`
			Secure      bool   `yaml:"secure"`
			SameSite    string `yaml:"samesite"` // lax | strict | none
		} `yaml:"cookies"`
	} `yaml:"auth"`

	OTP struct {
		DefaultTTLSeconds  int    `yaml:"default_ttl_seconds"`
		MinTTLSeconds      int    `yaml:"min_ttl_seconds"`
		RegenerateCooldown string `yaml:"regenerate_cooldown"`
	} `yaml:"otp"`

	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		Window      string `yaml:"window"`
		MaxRequests int    `yaml:"max_requests"`
		Redis       struct {
			Addr     string `yaml:"addr"` // vacío: limiter en memoria
			DB       int    `yaml:"db"`
			Password string `yaml:"password"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"rate"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		From               string `yaml:"from"`
		User               string `yaml:"user"`
		Pass               string `yaml:"pass"`
		PassEnc            string `yaml:"pass_enc"`
		TLSMode            string `yaml:"tls_mode"`
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	} `yaml:"smtp"`
}

// Load lee path (si no es vacío), aplica defaults y luego overrides de entorno.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	c.applyDefaults()
	c.applyEnvOverrides()
	if err := c.resolveSecrets(); err != nil {
		return nil, err
	}
	return &c, nil
}

// resolveSecrets descifra smtp.pass_enc y storage.dsn_enc con la master key.
func (c *Config) resolveSecrets() error {
	if c.SMTP.PassEnc == "" && c.Storage.DSNEnc == "" {
		return nil
	}
	key, err := secretbox.ParseKey(c.Security.MasterKey)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.SMTP.PassEnc != "" {
		if c.SMTP.Pass, err = key.Open(c.SMTP.PassEnc); err != nil {
			return fmt.Errorf("config: smtp.pass_enc: %w", err)
		}
	}
	if c.Storage.DSNEnc != "" {
		if c.Storage.DSN, err = key.Open(c.Storage.DSNEnc); err != nil {
			return fmt.Errorf("config: storage.dsn_enc: %w", err)
		}
	}
	return nil
}

// FromEnv arma la config solo desde defaults + entorno.
func FromEnv() *Config {
	c, _ := Load("")
	return c
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.ServiceName == "" {
		c.App.ServiceName = "procurauth"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "15s"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "fs"
	}
	if c.Storage.FSRoot == "" {
		c.Storage.FSRoot = "data"
	}

	a := &c.Security.Argon2
	if a.MemoryKiB == 0 {
		a.MemoryKiB = password.Default.Memory
	}
	if a.Time == 0 {
		a.Time = password.Default.Time
	}
	if a.Parallelism == 0 {
		a.Parallelism = password.Default.Parallelism
	}
	if a.KeyLen == 0 {
		a.KeyLen = password.Default.KeyLen
	}
	if a.SaltLen == 0 {
		a.SaltLen = password.Default.SaltLen
	}
	if c.Security.MaxConcurrentHashes == 0 {
		c.Security.MaxConcurrentHashes = 4
	}
	if c.Security.MinPasswordLength == 0 {
		c.Security.MinPasswordLength = password.DefaultPolicy.MinLength
	}

	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "15m"
	}
	if c.JWT.RefreshTTL == "" {
		c.JWT.RefreshTTL = "168h" // 7d
	}
	if c.Auth.RehashLegacy == nil {
		t := true
		c.Auth.RehashLegacy = &t
	}
	if c.Auth.Cookies.AccessName == "" {
		c.Auth.Cookies.AccessName = "accessToken"
	}
	if c.Auth.Cookies.RefreshName == "" {
		c.Auth.Cookies.RefreshName = "refreshToken"
	}
	if c.Auth.Cookies.SameSite == "" {
		c.Auth.Cookies.SameSite = "lax"
	}

	if c.OTP.DefaultTTLSeconds == 0 {
		c.OTP.DefaultTTLSeconds = 300
	}
	if c.OTP.MinTTLSeconds == 0 {
		c.OTP.MinTTLSeconds = 30
	}
	if c.OTP.RegenerateCooldown == "" {
		c.OTP.RegenerateCooldown = "30s"
	}

	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 60
	}
	if c.Rate.Redis.Prefix == "" {
		c.Rate.Redis.Prefix = "rl:"
	}

	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SMTP.TLSMode == "" {
		c.SMTP.TLSMode = "auto"
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVICE_NAME"); ok {
		c.App.ServiceName = v
	}
	if v, ok := getEnvStr("SERVICE_VERSION"); ok {
		c.App.Version = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("METRICS_ADDR"); ok {
		c.Server.MetricsAddr = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}
	if v, ok := getEnvBool("SERVER_TRUST_PROXY"); ok {
		c.Server.TrustProxy = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("STORAGE_DSN_ENC"); ok {
		c.Storage.DSNEnc = v
	}
	if v, ok := getEnvStr("FS_ROOT"); ok {
		c.Storage.FSRoot = v
	}
	if v, ok := getEnvBool("STORAGE_AUTO_MIGRATE"); ok {
		c.Storage.AutoMigrate = v
	}

	// SECURITY (secretos: solo por entorno en prod)
	if v, ok := getEnvStr("CLIENT_ID"); ok {
		c.Security.ClientID = v
	}
	if v, ok := getEnvStr("SECRET_KEY"); ok {
		c.Security.SecretKey = v
	}
	if v, ok := getEnvStr("PEPPER"); ok {
		c.Security.Pepper = v
	}
	if v, ok := getEnvInt("ARGON2_MEMORY_KIB"); ok && v > 0 {
		c.Security.Argon2.MemoryKiB = uint32(v)
	}
	if v, ok := getEnvInt("ARGON2_TIME"); ok && v > 0 {
		c.Security.Argon2.Time = uint32(v)
	}
	if v, ok := getEnvInt("ARGON2_PARALLELISM"); ok && v > 0 && v < 256 {
		c.Security.Argon2.Parallelism = uint8(v)
	}
	if v, ok := getEnvInt("MAX_CONCURRENT_HASHES"); ok {
		c.Security.MaxConcurrentHashes = int64(v)
	}
	if v, ok := getEnvInt("PASSWORD_MIN_LENGTH"); ok {
		c.Security.MinPasswordLength = v
	}
	if v, ok := getEnvStr("PASSWORD_BLACKLIST_PATH"); ok {
		c.Security.BlacklistPath = v
	}

	// JWT
	if v, ok := getEnvStr("JWT_SECRET"); ok {
		c.JWT.Secret = v
	}
	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvStr("JWT_ACCESS_TTL"); ok {
		c.JWT.AccessTTL = v
	}
	if v, ok := getEnvStr("JWT_REFRESH_TTL"); ok {
		c.JWT.RefreshTTL = v
	}

	// AUTH
	if v, ok := getEnvBool("AUTH_REHASH_LEGACY"); ok {
		c.Auth.RehashLegacy = &v
	}
	if v, ok := getEnvBool("AUTH_COOKIE_SECURE"); ok {
		c.Auth.Cookies.Secure = v
	}
	if v, ok := getEnvStr("AUTH_COOKIE_DOMAIN"); ok {
		c.Auth.Cookies.Domain = v
	}

	// OTP
	if v, ok := getEnvInt("OTP_DEFAULT_TTL_SECONDS"); ok {
		c.OTP.DefaultTTLSeconds = v
	}
	if v, ok := getEnvInt("OTP_MIN_TTL_SECONDS"); ok {
		c.OTP.MinTTLSeconds = v
	}
	if v, ok := getEnvStr("OTP_REGENERATE_COOLDOWN"); ok {
		c.OTP.RegenerateCooldown = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Rate.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Rate.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Rate.Redis.Password = v
	}

	// SMTP
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("SMTP_USER"); ok {
		c.SMTP.User = v
	}
	if v, ok := getEnvStr("SMTP_PASS"); ok {
		c.SMTP.Pass = v
	}
	if v, ok := getEnvStr("SMTP_PASS_ENC"); ok {
		c.SMTP.PassEnc = v
	}
	if v, ok := getEnvStr("SECRETBOX_MASTER_KEY"); ok {
		c.Security.MasterKey = v
	}
	if v, ok := getEnvStr("SMTP_TLS_MODE"); ok {
		c.SMTP.TLSMode = strings.ToLower(v)
	}
}

// ---- Accesos tipados ----

func (c *Config) IsProd() bool { return c.App.Env == "prod" || c.App.Env == "production" }

// Argon2Params devuelve los costos configurados.
func (c *Config) Argon2Params() password.Params {
	a := c.Security.Argon2
	return password.Params{Memory: a.MemoryKiB, Time: a.Time, Parallelism: a.Parallelism, KeyLen: a.KeyLen, SaltLen: a.SaltLen}
}

func (c *Config) RehashLegacy() bool { return c.Auth.RehashLegacy == nil || *c.Auth.RehashLegacy }

func (c *Config) AccessTTL() time.Duration  { return mustDur(c.JWT.AccessTTL, 15*time.Minute) }
func (c *Config) RefreshTTL() time.Duration { return mustDur(c.JWT.RefreshTTL, 7*24*time.Hour) }
func (c *Config) RateWindow() time.Duration { return mustDur(c.Rate.Window, time.Minute) }
func (c *Config) OTPCooldown() time.Duration {
	return mustDur(c.OTP.RegenerateCooldown, 30*time.Second)
}
func (c *Config) ReadTimeout() time.Duration  { return mustDur(c.Server.ReadTimeout, 10*time.Second) }
func (c *Config) WriteTimeout() time.Duration { return mustDur(c.Server.WriteTimeout, 15*time.Second) }
func (c *Config) ShutdownTimeout() time.Duration {
	return mustDur(c.Server.ShutdownTimeout, 10*time.Second)
}

// SMTPEnabled: sin host no se mandan mails.
func (c *Config) SMTPEnabled() bool { return c.SMTP.Host != "" && c.SMTP.From != "" }

func mustDur(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// Validate revisa valores críticos. Los secretos faltantes NO son error acá:
// el servicio arranca y responde 500 en las operaciones que los necesitan.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case "memory", "fs":
	case "postgres":
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q not supported", c.Storage.Driver))
	}

	for name, v := range map[string]string{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"jwt.access_ttl":          c.JWT.AccessTTL,
		"jwt.refresh_ttl":         c.JWT.RefreshTTL,
		"otp.regenerate_cooldown": c.OTP.RegenerateCooldown,
		"rate.window":             c.Rate.Window,
	} {
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", name, v))
		}
	}

	if err := c.Argon2Params().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Security.MinPasswordLength < password.DefaultPolicy.MinLength {
		errs = append(errs, fmt.Errorf("security.min_password_length must be >= %d", password.DefaultPolicy.MinLength))
	}
	if c.OTP.MinTTLSeconds < 1 || c.OTP.DefaultTTLSeconds < c.OTP.MinTTLSeconds {
		errs = append(errs, errors.New("otp: default_ttl_seconds must be >= min_ttl_seconds >= 1"))
	}
	if c.Rate.Enabled && c.Rate.MaxRequests <= 0 {
		errs = append(errs, errors.New("rate.max_requests must be > 0"))
	}
	switch c.Auth.Cookies.SameSite {
	case "lax", "strict", "none":
	default:
		errs = append(errs, fmt.Errorf("auth.cookies.samesite %q not supported", c.Auth.Cookies.SameSite))
	}
	return errors.Join(errs...)
}
