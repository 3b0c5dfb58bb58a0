package ports

import (
	"context"

	"github.com/eventhub/auth-gateway/internal/core/domain"
)

// AuditRepository persists audit events.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
}

// AuditSink accepts audit events without blocking the caller.
type AuditSink interface {
	Enqueue(event domain.AuditEvent)
}

// AuditReader lists stored audit events for a principal, newest first.
type AuditReader interface {
	ListBySubject(ctx context.Context, subject string, limit int64) ([]domain.AuditEvent, error)
}
