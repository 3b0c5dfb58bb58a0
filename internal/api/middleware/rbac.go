package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eventhub/auth-gateway/internal/core/domain"
)

// RBAC admits requests whose verified credential carries one of
// allowedRoles. It must run after Credential.
//
// A credential minted for an impersonation session never passes, even when
// the impersonated user holds an allowed role: admin routes need the admin's
// own credential.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, _ := c.Get(ClaimsKey).(*domain.Claims)
			if claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}
			if claims.ImpersonatorID != "" {
				return echo.NewHTTPError(http.StatusForbidden, "not available while impersonating")
			}
			if !allowed[claims.Role] {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}
