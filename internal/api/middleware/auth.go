package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/catalog-api/internal/api/metrics"
	"github.com/99minutos/catalog-api/internal/core/domain"
	"github.com/99minutos/catalog-api/internal/core/ports"
)

// Context keys set by Auth for downstream handlers.
const (
	ContextKeyEmail = "email"
	ContextKeyRole  = "role"
)

const bearerScheme = "Bearer"

// Auth requires an "Authorization: Bearer <token>" header, verifies the token
// and injects the decoded identity into the echo and request contexts.
// Failures are returned as tagged domain errors; next is not called.
func Auth(tokens ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				metrics.AuthRejectionsTotal.WithLabelValues("missing_token").Inc()
				return domain.ErrMissingToken
			}

			// Exactly two space-separated parts, case-sensitive scheme.
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != bearerScheme || parts[1] == "" {
				metrics.AuthRejectionsTotal.WithLabelValues("invalid_format").Inc()
				return domain.ErrInvalidTokenFormat
			}

			claims, err := tokens.Verify(parts[1])
			if err != nil {
				metrics.AuthRejectionsTotal.WithLabelValues("invalid_token").Inc()
				return err
			}

			c.Set(ContextKeyEmail, claims.Email)
			c.Set(ContextKeyRole, claims.Role)

			req := c.Request()
			c.SetRequest(req.WithContext(domain.ContextWithIdentity(req.Context(), claims.Identity)))

			return next(c)
		}
	}
}
