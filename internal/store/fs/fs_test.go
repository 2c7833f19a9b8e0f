package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/procurauth/internal/domain/repository"
	"github.com/dropDatabas3/procurauth/internal/store/storetest"
)

func openTemp(t *testing.T) *Conn {
	t.Helper()
	c, err := Open(t.TempDir())
	require.NoError(t, err)
	return c
}

func TestOTPRepo_Contract(t *testing.T) {
	storetest.RunOTPRepository(t, func(t *testing.T) repository.OTPRepository { return openTemp(t).OTP() })
}

func TestUserRepo_Contract(t *testing.T) {
	storetest.RunUserRepository(t, func(t *testing.T) repository.UserRepository { return openTemp(t).Users() })
}

func TestOTPFile_Layout(t *testing.T) {
	c := openTemp(t)
	exp := time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC)
	require.NoError(t, c.OTP().Put(context.Background(), repository.OTPEntry{
		ID: "e1", UserID: "u1", CodeHash: "abc", ExpiresAt: exp, GeneratedAt: exp.Add(-5 * time.Minute),
		State: repository.OTPStateConsumed,
	}))

	b, err := os.ReadFile(filepath.Join(c.root, "otp.json"))
	require.NoError(t, err)
	var raw []map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, "u1", raw[0]["userId"])
	assert.Equal(t, "abc", raw[0]["codeHash"])
	assert.Equal(t, true, raw[0]["consumedOrExpired"])
	assert.Equal(t, "consumed", raw[0]["state"])
	assert.Equal(t, "2026-03-01T10:05:00Z", raw[0]["expiresAt"])
}

func TestOTPFile_LegacyRecordsWithoutState(t *testing.T) {
	c := openTemp(t)
	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	legacy := `[
	  {"userId":"active","codeHash":"h1","expiresAt":"` + future + `","consumedOrExpired":false,"generatedAt":"` + past + `"},
	  {"userId":"used","codeHash":"h2","expiresAt":"` + future + `","consumedOrExpired":true,"generatedAt":"` + past + `"},
	  {"userId":"old","codeHash":"h3","expiresAt":"` + past + `","consumedOrExpired":true,"generatedAt":"` + past + `"}
	]`
	require.NoError(t, os.WriteFile(filepath.Join(c.root, "otp.json"), []byte(legacy), 0o600))

	ctx := context.Background()
	want := map[string]repository.OTPState{
		"active": repository.OTPStateActive,
		"used":   repository.OTPStateConsumed,
		"old":    repository.OTPStateExpired,
	}
	for user, state := range want {
		e, err := c.OTP().Get(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, state, e.State, user)
	}
}

func TestUsersFile_PasswordField(t *testing.T) {
	c := openTemp(t)
	_, err := c.Users().Create(context.Background(), repository.User{ID: "u1", Email: "a@x.com", PasswordHash: "plain", HashType: "none"})
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(c.root, "users.json"))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"password": "plain"`)
	assert.Contains(t, string(b), `"hashType": "none"`)
}

func TestOpen_RootIsFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(f, nil, 0o600))
	_, err := Open(f)
	require.Error(t, err)
}
