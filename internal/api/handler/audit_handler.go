package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/eventhub/auth-gateway/internal/core/domain"
	"github.com/eventhub/auth-gateway/internal/core/ports"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 100
)

type AuditHandler struct {
	reader ports.AuditReader
}

func NewAuditHandler(reader ports.AuditReader) *AuditHandler {
	return &AuditHandler{reader: reader}
}

type auditListResponse struct {
	Events []domain.AuditEvent `json:"events"`
}

// List returns the caller's own credential and impersonation trail.
//
// @Summary      Impersonation audit trail of the current admin
// @Tags         impersonation
// @Produce      json
// @Param        limit  query     int  false  "Max events (1-100)"
// @Success      200    {object}  auditListResponse
// @Failure      401    {object}  map[string]string
// @Failure      403    {object}  map[string]string
// @Router       /api/auth/impersonate/audit [get]
func (h *AuditHandler) List(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	limit := int64(defaultAuditLimit)
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
		}
		limit = min(n, maxAuditLimit)
	}

	events, err := h.reader.ListBySubject(c.Request().Context(), claims.Principal(), limit)
	if err != nil {
		return err
	}
	if events == nil {
		events = []domain.AuditEvent{}
	}
	return c.JSON(http.StatusOK, auditListResponse{Events: events})
}
