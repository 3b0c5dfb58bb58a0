package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/eventhub/auth-gateway/internal/core/ports"
	"github.com/eventhub/auth-gateway/internal/pkg/metrics"
)

// RateLimit refuses callers that exceed the limiter's budget for a route.
// The key is the matched route plus the client IP. When the limiter itself
// fails the request is let through.
func RateLimit(limiter ports.RateLimiter, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			decision, err := limiter.Allow(c.Request().Context(), route+":"+c.RealIP())
			if err != nil {
				log.Warn().Err(err).Str("route", route).Msg("rate limiter unavailable, allowing request")
				return next(c)
			}

			if !decision.Allowed {
				metrics.RateLimitedTotal.WithLabelValues(route).Inc()
				secs := int(math.Ceil(decision.RetryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "Too many requests. Please try again later."})
			}

			c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			return next(c)
		}
	}
}
