package graphql

import (
	"context"
	"fmt"

	"github.com/eventhub/auth-gateway/internal/core/domain"
)

const userFields = `id email firstName lastName role avatarUrl`

const (
	meQuery = `query Me { me { ` + userFields + ` } }`

	currentImpersonationQuery = `query CurrentImpersonation {
  currentImpersonation {
    id adminId targetUserId isActive startedAt endedAt reason
    admin { ` + userFields + ` }
    targetUser { ` + userFields + ` }
  }
}`

	endImpersonationMutation = `mutation EndImpersonation {
  endImpersonation { token message user { ` + userFields + ` } }
}`

	loginMutation = `mutation Login($input: LoginInput!) {
  login(input: $input) { token user { ` + userFields + ` } }
}`

	checkEmailExistsQuery = `query CheckEmailExists($email: String!) { checkEmailExists(email: $email) }`
)

// Backend implements ports.Backend on top of Client.
type Backend struct {
	client *Client
}

func NewBackend(client *Client) *Backend {
	return &Backend{client: client}
}

func (b *Backend) Me(ctx context.Context, token string) (*domain.User, error) {
	var out struct {
		Me *domain.User `json:"me"`
	}
	if err := b.client.Execute(ctx, "me", meQuery, nil, token).Decode("me", &out); err != nil {
		return nil, err
	}
	return out.Me, nil
}

// CurrentImpersonation returns nil when the credential is not impersonating.
func (b *Backend) CurrentImpersonation(ctx context.Context, token string) (*domain.ImpersonationSession, error) {
	var out struct {
		CurrentImpersonation *domain.ImpersonationSession `json:"currentImpersonation"`
	}
	res := b.client.Execute(ctx, "currentImpersonation", currentImpersonationQuery, nil, token)
	if err := res.Decode("currentImpersonation", &out); err != nil {
		return nil, err
	}
	return out.CurrentImpersonation, nil
}

func (b *Backend) EndImpersonation(ctx context.Context, token string) (*domain.EndImpersonationResult, error) {
	var out struct {
		EndImpersonation *struct {
			Token   string       `json:"token"`
			Message string       `json:"message"`
			User    *domain.User `json:"user"`
		} `json:"endImpersonation"`
	}
	res := b.client.Execute(ctx, "endImpersonation", endImpersonationMutation, nil, token)
	if err := res.Decode("endImpersonation", &out); err != nil {
		return nil, err
	}
	if out.EndImpersonation == nil {
		return nil, fmt.Errorf("endImpersonation: %w: empty payload", domain.ErrMalformedResponse)
	}
	return &domain.EndImpersonationResult{
		Token:   out.EndImpersonation.Token,
		User:    out.EndImpersonation.User,
		Message: out.EndImpersonation.Message,
	}, nil
}

func (b *Backend) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	vars := map[string]any{
		"input": map[string]any{"email": email, "password": password},
	}
	var out struct {
		Login *struct {
			Token string       `json:"token"`
			User  *domain.User `json:"user"`
		} `json:"login"`
	}
	if err := b.client.Execute(ctx, "login", loginMutation, vars, "").Decode("login", &out); err != nil {
		return nil, err
	}
	if out.Login == nil {
		return nil, fmt.Errorf("login: %w: empty payload", domain.ErrMalformedResponse)
	}
	return &domain.LoginResult{Token: out.Login.Token, User: out.Login.User}, nil
}

func (b *Backend) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	var out struct {
		CheckEmailExists bool `json:"checkEmailExists"`
	}
	vars := map[string]any{"email": email}
	if err := b.client.Execute(ctx, "checkEmailExists", checkEmailExistsQuery, vars, "").Decode("checkEmailExists", &out); err != nil {
		return false, err
	}
	return out.CheckEmailExists, nil
}
