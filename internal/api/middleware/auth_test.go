package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/catalog-api/internal/core/domain"
	"github.com/99minutos/catalog-api/internal/core/service"
)

type countingVerifier struct {
	calls int
}

func (v *countingVerifier) Verify(string) (*domain.TokenClaims, error) {
	v.calls++
	return nil, domain.ErrInvalidToken
}

func newTokens() *service.AuthService {
	return service.NewAuthService(service.Credentials{Email: "admin@test.com", Password: "admin123"}, "secret", time.Hour)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	tokens := newTokens()
	session, err := tokens.Login(context.Background(), "admin@test.com", "admin123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(tokens)(func(c echo.Context) error {
		called = true
		if c.Get(ContextKeyEmail) != "admin@test.com" {
			t.Fatalf("email not set")
		}
		if c.Get(ContextKeyRole) != domain.RoleAdmin {
			t.Fatalf("role not set")
		}
		id, ok := domain.IdentityFromContext(c.Request().Context())
		if !ok || id.Email != "admin@test.com" || id.Role != domain.RoleAdmin {
			t.Fatalf("identity not attached to request context: %+v", id)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	cases := []struct {
		name       string
		header     string
		want       error
		reachesSvc bool
	}{
		{"missing header", "", domain.ErrMissingToken, false},
		{"wrong scheme", "Token abc", domain.ErrInvalidTokenFormat, false},
		{"lowercase scheme", "bearer abc", domain.ErrInvalidTokenFormat, false},
		{"no token part", "Bearer", domain.ErrInvalidTokenFormat, false},
		{"empty token part", "Bearer ", domain.ErrInvalidTokenFormat, false},
		{"extra component", "Bearer a b", domain.ErrInvalidTokenFormat, false},
		{"double space", "Bearer  abc", domain.ErrInvalidTokenFormat, false},
		{"invalid token", "Bearer not-a-token", domain.ErrInvalidToken, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodDelete, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			c := e.NewContext(req, httptest.NewRecorder())

			verifier := &countingVerifier{}
			handler := Auth(verifier)(func(c echo.Context) error {
				t.Fatalf("should not reach next")
				return nil
			})

			err := handler(c)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if domain.KindOf(err) != domain.KindUnauthorized {
				t.Fatalf("expected unauthorized, got %s", domain.KindOf(err))
			}
			if (verifier.calls > 0) != tc.reachesSvc {
				t.Fatalf("verifier calls = %d, reachesSvc = %v", verifier.calls, tc.reachesSvc)
			}
		})
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	tokens := newTokens().WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	session, err := tokens.Login(context.Background(), "admin@test.com", "admin123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	tokens.WithClock(time.Now)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	c := e.NewContext(req, httptest.NewRecorder())

	err = Auth(tokens)(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})(c)
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
