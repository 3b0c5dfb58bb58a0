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

const (
	msgNotAuthenticated = "Not authenticated"
	msgInternal         = "Internal server error"
	msgRefreshDisabled  = "Refresh token functionality not implemented. Please log in again."
)

type AuthHandler struct {
	sessions ports.SessionService
	cookies  CookiePolicy
	log      zerolog.Logger
}

func NewAuthHandler(sessions ports.SessionService, cookies CookiePolicy, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		cookies:  cookies,
		log:      log.With().Str("component", "auth_handler").Logger(),
	}
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=256"`
}

type checkEmailRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

type restoreRequest struct {
	Token string `json:"token" validate:"required,jwt"`
}

type backupTokenResponse struct {
	Token     string `json:"token"`
	Timestamp int64  `json:"timestamp"`
	Purpose   string `json:"purpose"`
}

type userResponse struct {
	User *domain.User `json:"user"`
}

type loginResponse struct {
	Success bool         `json:"success"`
	User    *domain.User `json:"user"`
}

type messageResponse struct {
	Success bool   `json:"success,omitempty"`
	Message string `json:"message"`
}

// BackupToken returns the current credential so the caller can hold on to it
// before starting an impersonation session.
//
// @Summary      Fetch a backup of the current credential
// @Tags         auth
// @Produce      json
// @Success      200  {object}  backupTokenResponse
// @Failure      401  {object}  map[string]string
// @Router       /api/auth/backup-token [get]
func (h *AuthHandler) BackupToken(c echo.Context) error {
	noCache(c)

	backup, err := h.sessions.BackupToken(c.Request().Context(), readCredential(c), requestMeta(c))
	if err != nil {
		if errors.Is(err, domain.ErrMissingCredential) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "No authentication token found"})
		}
		return err
	}

	return c.JSON(http.StatusOK, backupTokenResponse{
		Token:     backup.Token,
		Timestamp: backup.Timestamp.UnixMilli(),
		Purpose:   backup.Purpose,
	})
}

// Me returns the profile of the current principal.
//
// @Summary      Current user profile
// @Tags         auth
// @Produce      json
// @Success      200  {object}  userResponse
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.sessions.Me(c.Request().Context(), readCredential(c))
	if err != nil {
		_, isBackend := domain.AsBackendError(err)
		switch {
		case errors.Is(err, domain.ErrMissingCredential), errors.Is(err, domain.ErrInvalidCredential):
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": msgNotAuthenticated})
		case isBackend:
			h.log.Warn().Err(err).Msg("backend rejected me query")
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": msgNotAuthenticated})
		default:
			h.log.Error().Err(err).Msg("me query failed")
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": msgInternal})
		}
	}

	return c.JSON(http.StatusOK, userResponse{User: user})
}

// Login authenticates against the backend and stores the credential cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	res, err := h.sessions.Login(c.Request().Context(), req.Email, req.Password, requestMeta(c))
	if err != nil {
		if be, ok := domain.AsBackendError(err); ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": be.FirstMessage()})
		}
		h.log.Error().Err(err).Msg("login failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": msgInternal})
	}

	h.cookies.Issue(c, res.Token)
	return c.JSON(http.StatusOK, loginResponse{Success: true, User: res.User})
}

// CheckEmail reports whether an account exists for an email address.
//
// @Summary      Check whether an email is registered
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      checkEmailRequest  true  "Email to check"
// @Success      200   {object}  map[string]bool
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/auth/check-email [post]
func (h *AuthHandler) CheckEmail(c echo.Context) error {
	var req checkEmailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	exists, err := h.sessions.CheckEmailExists(c.Request().Context(), req.Email)
	if err != nil {
		if be, ok := domain.AsBackendError(err); ok {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": be.FirstMessage()})
		}
		h.log.Error().Err(err).Msg("check email failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": msgInternal})
	}

	return c.JSON(http.StatusOK, map[string]bool{"exists": exists})
}

// Restore puts a previously fetched backup credential back into the cookie
// jar. It is the last step of recovering from a failed end-impersonation.
//
// @Summary      Restore a backup credential
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      restoreRequest  true  "Backup credential"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/auth/restore [post]
func (h *AuthHandler) Restore(c echo.Context) error {
	noCache(c)

	var req restoreRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	cred, err := h.sessions.Restore(c.Request().Context(), req.Token, requestMeta(c))
	if err != nil {
		if errors.Is(err, domain.ErrMissingCredential) || errors.Is(err, domain.ErrInvalidCredential) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
		}
		return err
	}

	h.cookies.Issue(c, cred.Token)
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "Session restored"})
}

// Logout clears the credential cookies.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Failure      500  {object}  map[string]string
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	h.sessions.RecordSignOut(c.Request().Context(), domain.AuditLogout, readCredential(c), requestMeta(c))
	h.cookies.Clear(c)
	metrics.CookieClearsTotal.WithLabelValues("logout").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

// Clear wipes the credential cookies without any further bookkeeping.
//
// @Summary      Clear auth cookies
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Failure      500  {object}  map[string]string
// @Router       /api/auth/clear [post]
func (h *AuthHandler) Clear(c echo.Context) error {
	h.cookies.Clear(c)
	metrics.CookieClearsTotal.WithLabelValues("clear").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "Cookies cleared"})
}

// ForceLogout is the last-resort recovery action. It always answers 200,
// whatever state the caller's cookies are in.
//
// @Summary      Force logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /api/auth/force-logout [get]
// @Router       /api/auth/force-logout [post]
func (h *AuthHandler) ForceLogout(c echo.Context) (err error) {
	resp := messageResponse{Success: true, Message: "All authentication cookies cleared"}

	defer func() {
		if r := recover(); r != nil {
			h.log.Error().Interface("panic", r).Msg("force logout recovered")
			if !c.Response().Committed {
				noCache(c)
				err = c.JSON(http.StatusOK, resp)
			}
		}
	}()

	noCache(c)
	h.cookies.ForceClear(c)
	metrics.CookieClearsTotal.WithLabelValues("force_logout").Inc()
	h.sessions.RecordSignOut(c.Request().Context(), domain.AuditForceLogout, readCredential(c), requestMeta(c))

	return c.JSON(http.StatusOK, resp)
}

// Refresh is permanently disabled; clients must log in again.
//
// @Summary      Refresh credential (disabled)
// @Tags         auth
// @Produce      json
// @Failure      401  {object}  map[string]string
// @Router       /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": msgRefreshDisabled})
}
