package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/eventhub/auth-gateway/internal/core/domain"
	"github.com/eventhub/auth-gateway/internal/core/ports"
	"github.com/eventhub/auth-gateway/internal/pkg/metrics"
)

type ImpersonationHandler struct {
	sessions ports.SessionService
	cookies  CookiePolicy
	log      zerolog.Logger
}

func NewImpersonationHandler(sessions ports.SessionService, cookies CookiePolicy, log zerolog.Logger) *ImpersonationHandler {
	return &ImpersonationHandler{
		sessions: sessions,
		cookies:  cookies,
		log:      log.With().Str("component", "impersonation_handler").Logger(),
	}
}

type currentImpersonationResponse struct {
	CurrentImpersonation *domain.ImpersonationSession `json:"currentImpersonation"`
}

type endImpersonationResponse struct {
	Success bool         `json:"success"`
	User    *domain.User `json:"user"`
	Message string       `json:"message"`
}

type backendErrorResponse struct {
	Error  string                `json:"error"`
	Errors []domain.GraphQLError `json:"errors"`
}

// Current reports whether the current credential is impersonating someone.
// It never fails: anything that prevents an answer yields null.
//
// @Summary      Current impersonation session
// @Tags         impersonation
// @Produce      json
// @Success      200  {object}  currentImpersonationResponse
// @Router       /api/auth/impersonate/current [get]
func (h *ImpersonationHandler) Current(c echo.Context) error {
	status := h.sessions.CurrentImpersonation(c.Request().Context(), readCredential(c))
	metrics.ImpersonationProbesTotal.WithLabelValues(string(status.State.Kind)).Inc()

	return c.JSON(http.StatusOK, currentImpersonationResponse{CurrentImpersonation: status.Session})
}

// End closes the impersonation session and swaps the cookie back to the
// admin's restored credential. The cookie is only written on success.
//
// @Summary      End impersonation
// @Tags         impersonation
// @Produce      json
// @Success      200  {object}  endImpersonationResponse
// @Failure      400  {object}  backendErrorResponse
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/auth/impersonate/end [post]
func (h *ImpersonationHandler) End(c echo.Context) error {
	noCache(c)

	res, err := h.sessions.EndImpersonation(c.Request().Context(), readCredential(c), requestMeta(c))
	if err != nil {
		be, isBackend := domain.AsBackendError(err)
		switch {
		case errors.Is(err, domain.ErrMissingCredential):
			metrics.ImpersonationTerminationsTotal.WithLabelValues("missing_credential").Inc()
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "No active session"})
		case errors.Is(err, domain.ErrInvalidCredential):
			metrics.ImpersonationTerminationsTotal.WithLabelValues("invalid_credential").Inc()
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
		case isBackend:
			metrics.ImpersonationTerminationsTotal.WithLabelValues("backend_error").Inc()
			return c.JSON(http.StatusBadRequest, backendErrorResponse{Error: be.FirstMessage(), Errors: be.Errors})
		default:
			metrics.ImpersonationTerminationsTotal.WithLabelValues("unexpected").Inc()
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to end impersonation"})
		}
	}

	h.cookies.Issue(c, res.Token)
	metrics.ImpersonationTerminationsTotal.WithLabelValues("ok").Inc()

	return c.JSON(http.StatusOK, endImpersonationResponse{
		Success: true,
		User:    res.User,
		Message: res.Message,
	})
}
