package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type indexResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// Index handles GET / with a short description of the API.
func Index(version string) echo.HandlerFunc {
	resp := indexResponse{
		Message: "Product catalog API",
		Version: version,
		Endpoints: map[string]string{
			"auth":     "/auth/login",
			"products": "/api/products",
			"docs":     "/swagger/index.html",
		},
	}
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, resp)
	}
}
