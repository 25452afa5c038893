package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/catalog-api/internal/api/metrics"
	"github.com/99minutos/catalog-api/internal/core/domain"
	"github.com/99minutos/catalog-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      userResponse `json:"user"`
}

// Login authenticates the operator and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_payload").Inc()
		return domain.InvalidInput("invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_payload").Inc()
		return domain.InvalidInput(err.Error())
	}

	session, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		result := "error"
		if domain.KindOf(err) == domain.KindUnauthorized {
			result = "invalid_credentials"
		}
		metrics.LoginAttemptsTotal.WithLabelValues(result).Inc()
		return err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, loginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      userResponse{Email: session.User.Email, Role: session.User.Role},
	})
}

// Me returns the identity decoded from the caller's token.
//
// @Summary      Current identity
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{Email: id.Email, Role: id.Role})
}
