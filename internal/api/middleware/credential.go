package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eventhub/auth-gateway/internal/core/domain"
)

// ClaimsKey is the context key under which Credential stores *domain.Claims.
const ClaimsKey = "claims"

// Verifier checks a raw credential.
type Verifier interface {
	Verify(token string) (*domain.Claims, error)
}

// Credential reads the credential cookie, verifies it, and injects the claims
// into the context. Missing and invalid credentials get the same 401 so
// callers cannot tell them apart.
func Credential(v Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ck, err := c.Cookie(domain.CredentialCookie)
			if err != nil || strings.TrimSpace(ck.Value) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}

			claims, err := v.Verify(ck.Value)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}

			c.Set(ClaimsKey, claims)

			return next(c)
		}
	}
}
