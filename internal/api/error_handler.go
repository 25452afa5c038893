package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/catalog-api/internal/core/domain"
)

const internalErrorMessage = "an unexpected error occurred"

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Path    string `json:"path,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain error kinds to HTTP status codes.
//   - Logs internal faults without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (router 404/405, body limit, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code == http.StatusNotFound {
			return http.StatusNotFound, errorResponse{Error: "route not found", Path: c.Request().URL.Path}
		}
		if he.Code >= http.StatusInternalServerError {
			logInternal(log, c, err)
			return he.Code, errorResponse{Error: "internal server error", Message: internalErrorMessage}
		}
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	switch domain.KindOf(err) {
	case domain.KindInvalidInput:
		return http.StatusBadRequest, errorResponse{Error: domain.MessageOf(err)}
	case domain.KindUnauthorized:
		return http.StatusUnauthorized, errorResponse{Error: domain.MessageOf(err)}
	case domain.KindForbidden:
		return http.StatusForbidden, errorResponse{Error: domain.MessageOf(err)}
	case domain.KindNotFound:
		return http.StatusNotFound, errorResponse{Error: domain.MessageOf(err)}
	case domain.KindConflict:
		return http.StatusConflict, errorResponse{Error: domain.MessageOf(err)}
	}

	logInternal(log, c, err)
	return http.StatusInternalServerError, errorResponse{Error: "internal server error", Message: internalErrorMessage}
}

func logInternal(log zerolog.Logger, c echo.Context, err error) {
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")
}
