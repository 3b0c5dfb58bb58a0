package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/eventhub/auth-gateway/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, middleware rejections).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	if be, ok := domain.AsBackendError(err); ok {
		return http.StatusBadRequest, be.FirstMessage()
	}

	switch {
	case errors.Is(err, domain.ErrMissingCredential), errors.Is(err, domain.ErrInvalidCredential):
		return http.StatusUnauthorized, "Not authenticated"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "Too many requests. Please try again later."
	case errors.Is(err, domain.ErrBackendUnavailable):
		log.Warn().Err(err).Str("path", c.Path()).Msg("backend unavailable")
		return http.StatusBadGateway, "upstream service unavailable"
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "Internal server error"
}
