package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eventhub/auth-gateway/internal/api/middleware"
	"github.com/eventhub/auth-gateway/internal/core/domain"
)

// ctxClaims extracts the claims injected by the Credential middleware and
// fails fast when the route was wired without it or the subject is empty.
func ctxClaims(c echo.Context) (*domain.Claims, error) {
	claims, _ := c.Get(middleware.ClaimsKey).(*domain.Claims)
	if claims == nil || claims.Principal() == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return claims, nil
}
