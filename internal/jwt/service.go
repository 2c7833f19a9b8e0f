package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrSecretMissing: JWT_SECRET no configurado (error de configuración).
	ErrSecretMissing = errors.New("jwt: signing secret not configured")
	// ErrTokenExpired: firma válida pero exp vencido; el cliente debería refrescar.
	ErrTokenExpired = errors.New("jwt: token expired")
	// ErrTokenInvalid: cualquier otro problema; el cliente debe re-autenticarse.
	ErrTokenInvalid = errors.New("jwt: token invalid")
	// ErrInvalidTokenType: refresh usado como access o viceversa.
	ErrInvalidTokenType = errors.New("jwt: invalid token type")
)

// Config del servicio de tokens.
type Config struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration // default 15m
	RefreshTTL time.Duration // default 7d
}

// TokenPair es el resultado de CreateTokenPair. ExpiresIn es el TTL del access en segundos.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// Service firma y valida tokens HS256. No guarda estado server-side.
type Service struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration

	// Now se puede reemplazar en tests.
	Now func() time.Time
}

func NewService(cfg Config) *Service {
	s := &Service{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		Now:        time.Now,
	}
	if s.accessTTL <= 0 {
		s.accessTTL = 15 * time.Minute
	}
	if s.refreshTTL <= 0 {
		s.refreshTTL = 7 * 24 * time.Hour
	}
	return s
}

// AccessTTL devuelve el TTL configurado para access tokens.
func (s *Service) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL devuelve el TTL configurado para refresh tokens.
func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *Service) CreateAccessToken(id Identity) (string, error) {
	return s.sign(id, "", s.accessTTL)
}

func (s *Service) CreateRefreshToken(id Identity) (string, error) {
	return s.sign(id, TypeRefresh, s.refreshTTL)
}

func (s *Service) CreateTokenPair(id Identity) (TokenPair, error) {
	access, err := s.CreateAccessToken(id)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.CreateRefreshToken(id)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTTL / time.Second),
	}, nil
}

func (s *Service) sign(id Identity, typ string, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrSecretMissing
	}
	if strings.TrimSpace(id.UserID) == "" {
		return "", errors.New("jwt: userId required")
	}
	now := s.Now()
	claims := Claims{
		UserID: id.UserID,
		Email:  id.Email,
		Name:   id.Name,
		Role:   id.Role,
		Type:   typ,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   id.UserID,
			ID:        uuid.NewString(),
			IssuedAt:  jwtv5.NewNumericDate(now),
			NotBefore: jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
		},
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := tk.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign: %w", err)
	}
	return signed, nil
}

// VerifyToken valida firma, alg y exp. Devuelve ErrTokenExpired o ErrTokenInvalid.
func (s *Service) VerifyToken(token string) (*Claims, error) {
	if len(s.secret) == 0 {
		return nil, ErrSecretMissing
	}
	if strings.TrimSpace(token) == "" {
		return nil, ErrTokenInvalid
	}

	opts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(s.Now),
	}
	if s.issuer != "" {
		opts = append(opts, jwtv5.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	tk, err := jwtv5.ParseWithClaims(token, claims, func(*jwtv5.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	switch {
	case err == nil && tk.Valid:
	case errors.Is(err, jwtv5.ErrTokenExpired):
		return nil, ErrTokenExpired
	default:
		return nil, ErrTokenInvalid
	}
	if claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// VerifyAccessToken rechaza refresh tokens.
func (s *Service) VerifyAccessToken(token string) (*Claims, error) {
	c, err := s.VerifyToken(token)
	if err != nil {
		return nil, err
	}
	if c.Type != "" {
		return nil, ErrInvalidTokenType
	}
	return c, nil
}

// VerifyRefreshToken exige type=refresh.
func (s *Service) VerifyRefreshToken(token string) (*Claims, error) {
	c, err := s.VerifyToken(token)
	if err != nil {
		return nil, err
	}
	if !c.IsRefresh() {
		return nil, ErrInvalidTokenType
	}
	return c, nil
}

// IdentityResolver recarga la identidad actual a partir de las claims verificadas.
type IdentityResolver func(*Claims) (Identity, error)

// Refresh valida un refresh token y emite un par nuevo. Con resolve nil reusa la
// identidad de las claims; un error de resolve corta sin emitir.
func (s *Service) Refresh(refreshToken string, resolve IdentityResolver) (TokenPair, *Claims, error) {
	c, err := s.VerifyRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, nil, err
	}
	id := c.Identity()
	if resolve != nil {
		if id, err = resolve(c); err != nil {
			return TokenPair{}, c, err
		}
	}
	pair, err := s.CreateTokenPair(id)
	if err != nil {
		return TokenPair{}, nil, err
	}
	return pair, c, nil
}
