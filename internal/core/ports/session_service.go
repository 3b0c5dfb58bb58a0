package ports

import (
	"context"

	"github.com/eventhub/auth-gateway/internal/core/domain"
)

// SessionService drives the credential and impersonation lifecycle. Token
// arguments are the raw value of the credential cookie, possibly empty.
type SessionService interface {
	BackupToken(ctx context.Context, token string, meta domain.RequestMeta) (*domain.BackupToken, error)
	CurrentImpersonation(ctx context.Context, token string) domain.ImpersonationStatus
	EndImpersonation(ctx context.Context, token string, meta domain.RequestMeta) (*domain.EndImpersonationResult, error)
	Me(ctx context.Context, token string) (*domain.User, error)
	Login(ctx context.Context, email, password string, meta domain.RequestMeta) (*domain.LoginResult, error)
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	Restore(ctx context.Context, token string, meta domain.RequestMeta) (*domain.Credential, error)
	RecordSignOut(ctx context.Context, kind domain.AuditKind, token string, meta domain.RequestMeta)
}
