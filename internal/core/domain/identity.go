package domain

import (
	"context"
	"time"
)

// RoleAdmin is the only role this service issues.
const RoleAdmin = "admin"

// Identity is the authenticated operator embedded in a token.
type Identity struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// TokenClaims is what a verified token decodes to.
type TokenClaims struct {
	Identity
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      Identity
}

type identityKey struct{}

// ContextWithIdentity attaches id to ctx.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity attached by the auth middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
