package ports

import (
	"context"

	"github.com/99minutos/catalog-api/internal/core/domain"
)

// TokenVerifier decodes bearer tokens. It is all the auth middleware needs.
type TokenVerifier interface {
	Verify(token string) (*domain.TokenClaims, error)
}

// AuthService issues and verifies bearer tokens for the configured operator.
type AuthService interface {
	TokenVerifier
	Login(ctx context.Context, email, password string) (*domain.Session, error)
}
