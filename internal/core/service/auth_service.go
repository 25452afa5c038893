package service

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/99minutos/catalog-api/internal/core/domain"
)

// Credentials is the single operator identity allowed to log in.
type Credentials struct {
	Email    string
	Password string
}

// tokenClaims is the JWT payload.
type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService issues and verifies HS256 bearer tokens. It holds no token
// state: rotating the secret invalidates every outstanding token.
type AuthService struct {
	operator  Credentials
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewAuthService(operator Credentials, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		operator:  operator,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// Login compares the credentials against the configured operator and returns a
// signed token. A wrong email and a wrong password fail the same way.
func (s *AuthService) Login(_ context.Context, email, password string) (*domain.Session, error) {
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(s.operator.Email))
	passwordOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.operator.Password))
	if emailOK&passwordOK != 1 || s.operator.Email == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user := domain.Identity{Email: email, Role: domain.RoleAdmin}
	token, expiresAt, err := s.generateToken(user)
	if err != nil {
		return nil, domain.Internal(err)
	}

	return &domain.Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Verify checks the signature, algorithm and expiry of token. Every failure
// is reported as domain.ErrInvalidToken.
func (s *AuthService) Verify(token string) (*domain.TokenClaims, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.Email == "" {
		return nil, domain.ErrInvalidToken
	}

	out := &domain.TokenClaims{
		Identity:  domain.Identity{Email: claims.Email, Role: claims.Role},
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

func (s *AuthService) generateToken(user domain.Identity) (string, time.Time, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.tokenTTL)

	claims := tokenClaims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
