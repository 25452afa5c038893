package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/catalog-api/internal/core/domain"
)

// ctxIdentity returns the identity the Auth middleware attached to the
// request. A missing identity is reported as an unauthenticated request.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	id, ok := domain.IdentityFromContext(c.Request().Context())
	if !ok || id.Email == "" {
		return domain.Identity{}, domain.ErrMissingToken
	}
	return id, nil
}
