package api

import (
	"fmt"
	"net"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/eventhub/auth-gateway/docs"
	"github.com/eventhub/auth-gateway/internal/api/handler"
	"github.com/eventhub/auth-gateway/internal/api/middleware"
	"github.com/eventhub/auth-gateway/internal/core/domain"
	"github.com/eventhub/auth-gateway/internal/core/ports"
)

// Dependencies are the collaborators the HTTP layer is built from.
// Limiter and Registerer are optional; Audit is optional and disables the
// audit route when nil. A nil IPExtractor uses the peer address.
type Dependencies struct {
	Sessions    ports.SessionService
	Verifier    middleware.Verifier
	Audit       ports.AuditReader
	Limiter     ports.RateLimiter
	Cookies     handler.CookiePolicy
	Health      map[string]handler.Pinger
	Log         zerolog.Logger
	Registerer  prometheus.Registerer
	IPExtractor echo.IPExtractor
}

// NewIPExtractor returns how the client address is derived for rate limiting
// and audit records. X-Forwarded-For is only read when the peer is one of
// trustedProxies; private and loopback ranges are not trusted implicitly.
func NewIPExtractor(trustedProxies []string) (echo.IPExtractor, error) {
	if len(trustedProxies) == 0 {
		return echo.ExtractIPDirect(), nil
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, cidr := range trustedProxies {
		_, ipNet, err := net.ParseCIDR(strings.TrimSpace(cidr))
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", cidr, err)
		}
		opts = append(opts, echo.TrustIPRange(ipNet))
	}
	return echo.ExtractIPFromXFFHeader(opts...), nil
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)
	e.IPExtractor = deps.IPExtractor
	if e.IPExtractor == nil {
		e.IPExtractor = echo.ExtractIPDirect()
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(deps.Log))
	if deps.Registerer != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Namespace:  "authgw",
			Registerer: deps.Registerer,
		}))
	}

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Sessions, deps.Cookies, deps.Log)
	impersonationHandler := handler.NewImpersonationHandler(deps.Sessions, deps.Cookies, deps.Log)

	limited := []echo.MiddlewareFunc{}
	if deps.Limiter != nil {
		limited = append(limited, middleware.RateLimit(deps.Limiter, deps.Log))
	}

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	auth.GET("/backup-token", authHandler.BackupToken, limited...)
	auth.GET("/me", authHandler.Me, limited...)
	auth.POST("/login", authHandler.Login, limited...)
	auth.POST("/check-email", authHandler.CheckEmail, limited...)
	auth.POST("/restore", authHandler.Restore, limited...)
	auth.POST("/logout", authHandler.Logout, limited...)
	auth.POST("/clear", authHandler.Clear, limited...)
	auth.POST("/refresh", authHandler.Refresh, limited...)

	// Force logout is the recovery path of last resort and is never limited.
	auth.GET("/force-logout", authHandler.ForceLogout)
	auth.POST("/force-logout", authHandler.ForceLogout)

	// --- Impersonation routes ---
	impersonate := auth.Group("/impersonate")
	impersonate.GET("/current", impersonationHandler.Current, limited...)
	impersonate.POST("/end", impersonationHandler.End, limited...)

	if deps.Audit != nil && deps.Verifier != nil {
		auditHandler := handler.NewAuditHandler(deps.Audit)
		impersonate.GET("/audit", auditHandler.List,
			middleware.Credential(deps.Verifier),
			middleware.RBAC(domain.RoleAdmin, domain.RoleSuperAdmin),
		)
	}

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Health)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are dependencies up?

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
