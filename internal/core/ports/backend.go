package ports

import (
	"context"

	"github.com/eventhub/auth-gateway/internal/core/domain"
)

// Backend is the remote GraphQL API. Every method returns either a
// *domain.BackendError (the backend answered with an errors array), an error
// wrapping domain.ErrBackendUnavailable (transport failure) or an error
// wrapping domain.ErrMalformedResponse (the answer could not be decoded).
type Backend interface {
	Me(ctx context.Context, token string) (*domain.User, error)
	CurrentImpersonation(ctx context.Context, token string) (*domain.ImpersonationSession, error)
	EndImpersonation(ctx context.Context, token string) (*domain.EndImpersonationResult, error)
	Login(ctx context.Context, email, password string) (*domain.LoginResult, error)
	CheckEmailExists(ctx context.Context, email string) (bool, error)
}
