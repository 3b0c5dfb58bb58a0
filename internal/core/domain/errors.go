package domain

import (
	"errors"
	"strings"
)

var (
	ErrMissingCredential  = errors.New("no authentication token found")
	ErrInvalidCredential  = errors.New("invalid or expired token")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrMalformedResponse  = errors.New("malformed backend response")
	ErrRateLimited        = errors.New("too many requests")
)

// GraphQLError is one entry of a GraphQL "errors" array.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// BackendError is a business error reported by the backend. It always holds
// at least one entry.
type BackendError struct {
	Operation string
	Errors    []GraphQLError
}

func (e *BackendError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ge := range e.Errors {
		msgs = append(msgs, ge.Message)
	}
	return e.Operation + ": " + strings.Join(msgs, "; ")
}

// FirstMessage returns the message surfaced to callers of mutations.
func (e *BackendError) FirstMessage() string {
	if len(e.Errors) == 0 || e.Errors[0].Message == "" {
		return "request failed"
	}
	return e.Errors[0].Message
}

// AsBackendError unwraps err into a *BackendError when it is one.
func AsBackendError(err error) (*BackendError, bool) {
	var be *BackendError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
