package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/eventhub/auth-gateway/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"echo error", echo.NewHTTPError(http.StatusForbidden, "forbidden"), http.StatusForbidden, `{"error":"forbidden"}`},
		{"missing credential", domain.ErrMissingCredential, http.StatusUnauthorized, `{"error":"Not authenticated"}`},
		{"invalid credential", fmt.Errorf("verify: %w", domain.ErrInvalidCredential), http.StatusUnauthorized, `{"error":"Not authenticated"}`},
		{"backend error", &domain.BackendError{Operation: "me", Errors: []domain.GraphQLError{{Message: "boom"}}}, http.StatusBadRequest, `{"error":"boom"}`},
		{"backend down", fmt.Errorf("dial: %w", domain.ErrBackendUnavailable), http.StatusBadGateway, `{"error":"upstream service unavailable"}`},
		{"unexpected", errors.New("kaboom"), http.StatusInternalServerError, `{"error":"Internal server error"}`},
	}

	h := NewHTTPErrorHandler(zerolog.Nop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			h(tt.err, c)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}
