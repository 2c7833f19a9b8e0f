package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/procurauth/internal/security/secretbox"
)

func TestFromEnv_Defaults(t *testing.T) {
	c := FromEnv()
	require.NoError(t, c.Validate())

	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "fs", c.Storage.Driver)
	assert.Equal(t, 15*time.Minute, c.AccessTTL())
	assert.Equal(t, 7*24*time.Hour, c.RefreshTTL())
	assert.Equal(t, 300, c.OTP.DefaultTTLSeconds)
	assert.Equal(t, 30, c.OTP.MinTTLSeconds)
	assert.Equal(t, 30*time.Second, c.OTPCooldown())
	assert.Equal(t, 8, c.Security.MinPasswordLength)
	assert.True(t, c.RehashLegacy())
	assert.False(t, c.SMTPEnabled())
	assert.EqualValues(t, 64*1024, c.Argon2Params().Memory)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
app:
  app_env: prod
server:
  addr: ":9000"
storage:
  driver: postgres
  dsn: postgres://yaml
security:
  client_id: yaml-client
jwt:
  access_ttl: 5m
auth:
  rehash_legacy: false
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("CLIENT_ID", "env-client")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("RATE_MAX_REQUESTS", "5")

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.True(t, c.IsProd())
	assert.Equal(t, ":9000", c.Server.Addr)
	assert.Equal(t, "postgres://yaml", c.Storage.DSN)
	assert.Equal(t, "env-client", c.Security.ClientID)
	assert.Equal(t, "s3cret", c.JWT.Secret)
	assert.Equal(t, 5*time.Minute, c.AccessTTL())
	assert.Equal(t, 5, c.Rate.MaxRequests)
	assert.False(t, c.RehashLegacy())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate_Errors(t *testing.T) {
	c := FromEnv()
	c.Storage.Driver = "postgres"
	c.JWT.AccessTTL = "soon"
	c.Security.Argon2.MemoryKiB = 1024
	c.Security.MinPasswordLength = 4

	err := c.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "storage.dsn")
	assert.Contains(t, msg, "jwt.access_ttl")
	assert.Contains(t, msg, "argon2: memory")
	assert.Contains(t, msg, "min_password_length")

	c = FromEnv()
	c.Storage.Driver = "mongo"
	require.ErrorContains(t, c.Validate(), "not supported")
}

func TestMissingSecretsAreNotConfigErrors(t *testing.T) {
	c := FromEnv()
	c.Security.ClientID, c.Security.SecretKey, c.Security.Pepper, c.JWT.Secret = "", "", "", ""
	require.NoError(t, c.Validate())
}

func TestLoad_DecryptsEncryptedSecrets(t *testing.T) {
	const master = "0123456789abcdef0123456789abcdef"
	key, err := secretbox.ParseKey(master)
	require.NoError(t, err)
	dsnEnc, err := key.Seal("postgres://u:p@db/auth")
	require.NoError(t, err)
	passEnc, err := key.Seal("smtp-pass")
	require.NoError(t, err)

	t.Setenv("SECRETBOX_MASTER_KEY", master)
	t.Setenv("STORAGE_DSN_ENC", dsnEnc)
	t.Setenv("SMTP_PASS_ENC", passEnc)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db/auth", c.Storage.DSN)
	assert.Equal(t, "smtp-pass", c.SMTP.Pass)

	t.Setenv("SECRETBOX_MASTER_KEY", "")
	_, err = Load("")
	require.ErrorIs(t, err, secretbox.ErrKeyMissing)
}
