package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eventhub/auth-gateway/internal/core/domain"
)

const defaultCookieMaxAge = 7 * 24 * time.Hour

// CookiePolicy decides the flags of the credential cookies. Every cookie the
// gateway writes is SameSite=Lax so navigation-triggered re-auth keeps working.
type CookiePolicy struct {
	Secure bool
	Domain string
	MaxAge time.Duration
}

// NewCookiePolicy marks cookies Secure in production only.
func NewCookiePolicy(production bool, domain string, maxAge time.Duration) CookiePolicy {
	if maxAge <= 0 {
		maxAge = defaultCookieMaxAge
	}
	return CookiePolicy{Secure: production, Domain: domain, MaxAge: maxAge}
}

// Issue writes the credential cookie with the login flags.
func (p CookiePolicy) Issue(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     domain.CredentialCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(p.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the credential and refresh cookies.
func (p CookiePolicy) Clear(c echo.Context) {
	for _, name := range []string{domain.CredentialCookie, domain.RefreshCookie} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   p.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// ForceClear emits every deletion variant browsers may need to drop the
// credential and refresh cookies. A cookie set with one combination of path,
// domain and flags is only removed by a matching deletion, so all are sent.
func (p CookiePolicy) ForceClear(c echo.Context) {
	epoch := time.Unix(0, 0).UTC()

	for _, name := range []string{domain.CredentialCookie, domain.RefreshCookie} {
		variants := []*http.Cookie{
			{Name: name, MaxAge: -1},
			{Name: name, Path: "/", MaxAge: -1},
			{Name: name, Path: "/", MaxAge: -1, HttpOnly: true, Secure: p.Secure, SameSite: http.SameSiteLaxMode},
			{Name: name, Path: "/", MaxAge: -1, HttpOnly: true, Secure: true, SameSite: http.SameSiteStrictMode},
			{Name: name, Path: "/", MaxAge: -1, HttpOnly: true, Secure: true, SameSite: http.SameSiteNoneMode},
			{Name: name, Path: "/", Expires: epoch, HttpOnly: true, Secure: p.Secure, SameSite: http.SameSiteLaxMode},
		}
		if p.Domain != "" {
			variants = append(variants,
				&http.Cookie{Name: name, Path: "/", Domain: p.Domain, MaxAge: -1},
				&http.Cookie{Name: name, Path: "/", Domain: p.Domain, Expires: epoch, HttpOnly: true, Secure: p.Secure, SameSite: http.SameSiteLaxMode},
			)
		}
		for _, ck := range variants {
			c.SetCookie(ck)
		}
	}
}

// readCredential returns the raw credential cookie value, or "" when absent.
func readCredential(c echo.Context) string {
	ck, err := c.Cookie(domain.CredentialCookie)
	if err != nil || ck == nil || strings.TrimSpace(ck.Value) == "" {
		return ""
	}
	return ck.Value
}

// requestMeta extracts the caller details recorded on audit events.
func requestMeta(c echo.Context) domain.RequestMeta {
	return domain.RequestMeta{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}

// noCache marks a response as never cacheable.
func noCache(c echo.Context) {
	h := c.Response().Header()
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}
