package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alice = Identity{UserID: "u1", Email: "alice@x.com", Name: "Alice", Role: "buyer"}

func newTestService(now time.Time) *Service {
	s := NewService(Config{Secret: "test-secret", Issuer: "procurauth", AccessTTL: 15 * time.Minute, RefreshTTL: 24 * time.Hour})
	s.Now = func() time.Time { return now }
	return s
}

func TestCreateTokenPair_RoundTrip(t *testing.T) {
	now := time.Now()
	s := newTestService(now)

	pair, err := s.CreateTokenPair(alice)
	require.NoError(t, err)
	assert.EqualValues(t, 900, pair.ExpiresIn)

	access, err := s.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, alice, access.Identity())
	assert.Empty(t, access.Type)
	assert.NotEmpty(t, access.ID)

	refresh, err := s.VerifyRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TypeRefresh, refresh.Type)
	assert.Equal(t, alice, refresh.Identity())
}

func TestVerify_TokenTypeDiscrimination(t *testing.T) {
	s := newTestService(time.Now())
	pair, err := s.CreateTokenPair(alice)
	require.NoError(t, err)

	_, err = s.VerifyAccessToken(pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidTokenType)

	_, err = s.VerifyRefreshToken(pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidTokenType)

	_, _, err = s.Refresh(pair.AccessToken, nil)
	require.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestVerify_ExpiredVsInvalid(t *testing.T) {
	issued := time.Now()
	s := newTestService(issued)
	token, err := s.CreateAccessToken(alice)
	require.NoError(t, err)

	s.Now = func() time.Time { return issued.Add(16 * time.Minute) }
	_, err = s.VerifyToken(token)
	require.ErrorIs(t, err, ErrTokenExpired)

	s.Now = func() time.Time { return issued }
	_, err = s.VerifyToken(token + "x")
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, err = s.VerifyToken("not.a.jwt")
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, err = s.VerifyToken("")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_WrongSecretOrIssuer(t *testing.T) {
	now := time.Now()
	token, err := newTestService(now).CreateAccessToken(alice)
	require.NoError(t, err)

	other := NewService(Config{Secret: "another-secret", Issuer: "procurauth"})
	other.Now = func() time.Time { return now }
	_, err = other.VerifyToken(token)
	require.ErrorIs(t, err, ErrTokenInvalid)

	otherIss := NewService(Config{Secret: "test-secret", Issuer: "someone-else"})
	otherIss.Now = func() time.Time { return now }
	_, err = otherIss.VerifyToken(token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_RejectsAlgNone(t *testing.T) {
	s := newTestService(time.Now())
	claims := Claims{UserID: "u1", RegisteredClaims: jwtv5.RegisteredClaims{
		Issuer:    "procurauth",
		ExpiresAt: jwtv5.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	unsigned, err := jwtv5.NewWithClaims(jwtv5.SigningMethodNone, claims).SignedString(jwtv5.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = s.VerifyToken(unsigned)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_RequiresExpiration(t *testing.T) {
	s := newTestService(time.Now())
	claims := Claims{UserID: "u1", RegisteredClaims: jwtv5.RegisteredClaims{Issuer: "procurauth"}}
	token, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = s.VerifyToken(token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefresh_IssuesNewPair(t *testing.T) {
	s := newTestService(time.Now())
	pair, err := s.CreateTokenPair(alice)
	require.NoError(t, err)

	next, claims, err := s.Refresh(pair.RefreshToken, nil)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.NotEqual(t, pair.AccessToken, next.AccessToken)

	_, err = s.VerifyAccessToken(next.AccessToken)
	require.NoError(t, err)
}

func TestRefresh_ResolverReloadsIdentity(t *testing.T) {
	s := newTestService(time.Now())
	pair, err := s.CreateTokenPair(alice)
	require.NoError(t, err)

	next, _, err := s.Refresh(pair.RefreshToken, func(c *Claims) (Identity, error) {
		id := c.Identity()
		id.Role = "admin"
		return id, nil
	})
	require.NoError(t, err)
	c, err := s.VerifyAccessToken(next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", c.Role)

	gone := errors.New("gone")
	_, _, err = s.Refresh(pair.RefreshToken, func(*Claims) (Identity, error) { return Identity{}, gone })
	require.ErrorIs(t, err, gone)
}

func TestMissingSecret(t *testing.T) {
	s := NewService(Config{})
	_, err := s.CreateAccessToken(alice)
	require.ErrorIs(t, err, ErrSecretMissing)
	_, err = s.VerifyToken("a.b.c")
	require.ErrorIs(t, err, ErrSecretMissing)
}

func TestCreate_RequiresUserID(t *testing.T) {
	s := newTestService(time.Now())
	_, err := s.CreateAccessToken(Identity{Email: "x@y.z"})
	require.Error(t, err)
}

func TestTokensAreThreePartJWS(t *testing.T) {
	tok, err := newTestService(time.Now()).CreateAccessToken(alice)
	require.NoError(t, err)
	require.Len(t, strings.Split(tok, "."), 3)
}
