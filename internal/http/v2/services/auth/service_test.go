package auth

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/procurauth/internal/domain/repository"
	jwtx "github.com/dropDatabas3/procurauth/internal/jwt"
	"github.com/dropDatabas3/procurauth/internal/metrics"
	pwd "github.com/dropDatabas3/procurauth/internal/security/password"
	"github.com/dropDatabas3/procurauth/internal/store/memory"
)

var testParams = pwd.Params{
	Memory:      pwd.MinMemoryKiB,
	Time:        pwd.MinTime,
	Parallelism: pwd.MinParallelism,
	KeyLen:      pwd.MinKeyLen,
	SaltLen:     16,
}

type fixture struct {
	svc    Service
	users  *memory.UserRepo
	hasher *pwd.Hasher
	tokens *jwtx.Service
}

func newFixture(t *testing.T, rehash bool) *fixture {
	t.Helper()
	hasher, err := pwd.NewHasher(pwd.HasherConfig{Pepper: "pepper", Params: testParams})
	require.NoError(t, err)
	users := memory.NewUserRepo()
	tokens := jwtx.NewService(jwtx.Config{Secret: "jwt-secret", Issuer: "test"})
	return &fixture{
		svc:    NewService(Deps{Users: users, Hasher: hasher, Tokens: tokens, RehashLegacy: rehash}),
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

func (f *fixture) createUser(t *testing.T, hash, hashType string) *repository.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), repository.User{
		Email: "carol@example.com", Username: "carol", Name: "Carol", Role: "admin",
		PasswordHash: hash, HashType: hashType,
	})
	require.NoError(t, err)
	return u
}

func TestLogin_Argon2User(t *testing.T) {
	f := newFixture(t, true)
	hash, err := f.hasher.Hash(context.Background(), "s3cret-pass", pwd.ModeArgon2)
	require.NoError(t, err)
	u := f.createUser(t, hash, "argon2")

	sess, err := f.svc.Login(context.Background(), LoginInput{Username: "CAROL@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, sess.User.ID)
	assert.Equal(t, int64(15*60), sess.Tokens.ExpiresIn)

	claims, err := f.tokens.VerifyAccessToken(sess.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	_, err = f.tokens.VerifyRefreshToken(sess.Tokens.RefreshToken)
	require.NoError(t, err)

	stored, err := f.users.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, hash, stored.PasswordHash, "argon2 actual no se rehashea")
}

func TestLogin_LegacyUserIsRehashed(t *testing.T) {
	f := newFixture(t, true)
	u := f.createUser(t, "legacy-pass-1", "none")

	_, err := f.svc.Login(context.Background(), LoginInput{Username: "carol", Password: "legacy-pass-1"})
	require.NoError(t, err)

	stored, err := f.users.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "argon2", stored.HashType)
	assert.Equal(t, pwd.ModeArgon2, pwd.DetectMode(stored.PasswordHash))

	// sigue entrando con el mismo password
	_, err = f.svc.Login(context.Background(), LoginInput{Username: "carol", Password: "legacy-pass-1"})
	require.NoError(t, err)
}

func TestLogin_RehashDisabled(t *testing.T) {
	f := newFixture(t, false)
	u := f.createUser(t, "legacy-pass-1", "none")

	_, err := f.svc.Login(context.Background(), LoginInput{Username: "carol", Password: "legacy-pass-1"})
	require.NoError(t, err)

	stored, err := f.users.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "legacy-pass-1", stored.PasswordHash)
}

func TestLogin_Rejections(t *testing.T) {
	f := newFixture(t, true)
	f.createUser(t, "legacy-pass-1", "none")

	_, err := f.svc.Login(context.Background(), LoginInput{Username: "carol", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(context.Background(), LoginInput{Username: "nobody", Password: "legacy-pass-1"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(context.Background(), LoginInput{Username: " ", Password: "x"})
	require.ErrorIs(t, err, ErrMissingFields)
}

// hashSamples cuenta observaciones de password_hash_duration_seconds{op="verify",mode="argon2"}.
func hashSamples(t *testing.T, reg prometheus.Gatherer) uint64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "password_hash_duration_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["op"] == "verify" && labels["mode"] == "argon2" {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func TestLogin_UnknownUserPaysArgon2Verify(t *testing.T) {
	f := newFixture(t, false)
	reg := prometheus.NewRegistry()
	m, err := metrics.New(metrics.Config{Registry: reg})
	require.NoError(t, err)
	svc := NewService(Deps{Users: f.users, Hasher: f.hasher, Tokens: f.tokens, Metrics: m})

	hash, err := f.hasher.Hash(context.Background(), "s3cret-pass", pwd.ModeArgon2)
	require.NoError(t, err)
	f.createUser(t, hash, "argon2")

	_, err = svc.Login(context.Background(), LoginInput{Username: "carol", Password: "wrong-pass"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.EqualValues(t, 1, hashSamples(t, reg))

	_, err = svc.Login(context.Background(), LoginInput{Username: "nobody", Password: "wrong-pass"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.EqualValues(t, 2, hashSamples(t, reg))
}

func TestLogin_MissingJWTSecret(t *testing.T) {
	f := newFixture(t, false)
	f.createUser(t, "legacy-pass-1", "none")
	svc := NewService(Deps{Users: f.users, Hasher: f.hasher, Tokens: jwtx.NewService(jwtx.Config{})})

	_, err := svc.Login(context.Background(), LoginInput{Username: "carol", Password: "legacy-pass-1"})
	require.ErrorIs(t, err, jwtx.ErrSecretMissing)
}

func TestRefresh(t *testing.T) {
	f := newFixture(t, false)
	u := f.createUser(t, "legacy-pass-1", "none")
	sess, err := f.svc.Login(context.Background(), LoginInput{Username: "carol", Password: "legacy-pass-1"})
	require.NoError(t, err)

	next, err := f.svc.Refresh(context.Background(), sess.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, next.User.ID)
	_, err = f.tokens.VerifyAccessToken(next.Tokens.AccessToken)
	require.NoError(t, err)

	// un access token no sirve para refrescar
	_, err = f.svc.Refresh(context.Background(), sess.Tokens.AccessToken)
	require.ErrorIs(t, err, jwtx.ErrInvalidTokenType)

	_, err = f.svc.Refresh(context.Background(), "garbage")
	require.ErrorIs(t, err, jwtx.ErrTokenInvalid)

	_, err = f.svc.Refresh(context.Background(), "")
	require.ErrorIs(t, err, ErrMissingFields)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	f := newFixture(t, false)
	f.createUser(t, "legacy-pass-1", "none")
	sess, err := f.svc.Login(context.Background(), LoginInput{Username: "carol", Password: "legacy-pass-1"})
	require.NoError(t, err)

	f.tokens.Now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	_, err = f.svc.Refresh(context.Background(), sess.Tokens.RefreshToken)
	require.ErrorIs(t, err, jwtx.ErrTokenExpired)
}

func TestRefresh_DeletedUser(t *testing.T) {
	f := newFixture(t, false)
	pair, err := f.tokens.CreateTokenPair(jwtx.Identity{UserID: "ghost", Email: "g@example.com"})
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestMe(t *testing.T) {
	f := newFixture(t, false)
	u := f.createUser(t, "legacy-pass-1", "none")

	got, err := f.svc.Me(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", got.Email)

	_, err = f.svc.Me(context.Background(), "missing")
	require.ErrorIs(t, err, ErrUserNotFound)
	_, err = f.svc.Me(context.Background(), "")
	require.ErrorIs(t, err, ErrUserNotFound)
}
