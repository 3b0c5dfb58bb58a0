// Package graphql talks to the remote GraphQL backend over HTTPS.
//
// Every call produces a Result that is exactly one of: data, a GraphQL
// errors array, or a transport failure. Callers go through Result.Decode,
// which maps each shape onto the domain error taxonomy.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/eventhub/auth-gateway/internal/core/domain"
	"github.com/eventhub/auth-gateway/internal/pkg/metrics"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// ResultKind tells which shape a Result holds.
type ResultKind int

const (
	ResultOK ResultKind = iota
	ResultGraphQLError
	ResultTransportError
)

func (k ResultKind) String() string {
	switch k {
	case ResultOK:
		return "ok"
	case ResultGraphQLError:
		return "graphql_error"
	default:
		return "transport_error"
	}
}

// Result is the outcome of one GraphQL operation.
type Result struct {
	Kind   ResultKind
	Data   json.RawMessage
	Errors []domain.GraphQLError
	Cause  error
}

// Decode unmarshals the data of a successful result into out, or converts
// the failure into a domain error.
func (r Result) Decode(operation string, out any) error {
	switch r.Kind {
	case ResultOK:
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(r.Data, out); err != nil {
			return fmt.Errorf("%s: %w: %v", operation, domain.ErrMalformedResponse, err)
		}
		return nil
	case ResultGraphQLError:
		return &domain.BackendError{Operation: operation, Errors: r.Errors}
	case ResultTransportError:
		if errors.Is(r.Cause, domain.ErrMalformedResponse) {
			return fmt.Errorf("%s: %w", operation, r.Cause)
		}
		return fmt.Errorf("%s: %w: %v", operation, domain.ErrBackendUnavailable, r.Cause)
	default:
		return fmt.Errorf("%s: unknown result kind %d", operation, r.Kind)
	}
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type envelope struct {
	Data   json.RawMessage       `json:"data"`
	Errors []domain.GraphQLError `json:"errors"`
}

// Client posts GraphQL envelopes to a single endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	log      zerolog.Logger
}

func NewClient(endpoint string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		log:      log.With().Str("component", "graphql").Logger(),
	}
}

// Execute runs one operation. token, when non-empty, is sent as a Bearer
// credential.
func (c *Client) Execute(ctx context.Context, operation, query string, variables map[string]any, token string) Result {
	start := time.Now()
	res := c.execute(ctx, query, variables, token)

	metrics.BackendRequestDuration.
		WithLabelValues(operation, res.Kind.String()).
		Observe(time.Since(start).Seconds())

	evt := c.log.Debug()
	if res.Kind == ResultTransportError {
		evt = c.log.Warn().Err(res.Cause)
	}
	evt.Str("operation", operation).
		Str("outcome", res.Kind.String()).
		Dur("elapsed", time.Since(start)).
		Msg("backend call")

	return res
}

func (c *Client) execute(ctx context.Context, query string, variables map[string]any, token string) Result {
	body, err := json.Marshal(request{Query: query, Variables: variables})
	if err != nil {
		return Result{Kind: ResultTransportError, Cause: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{Kind: ResultTransportError, Cause: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{Kind: ResultTransportError, Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Result{Kind: ResultTransportError, Cause: fmt.Errorf("read response: %w", err)}
	}

	// GraphQL servers may answer business errors with a 4xx; the errors
	// array wins over the status code whenever the body carries one.
	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	if decodeErr == nil && len(env.Errors) > 0 {
		return Result{Kind: ResultGraphQLError, Data: env.Data, Errors: env.Errors}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{Kind: ResultTransportError, Cause: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	if decodeErr != nil {
		return Result{Kind: ResultTransportError, Cause: fmt.Errorf("%w: %v", domain.ErrMalformedResponse, decodeErr)}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return Result{Kind: ResultTransportError, Cause: fmt.Errorf("%w: response has no data", domain.ErrMalformedResponse)}
	}
	return Result{Kind: ResultOK, Data: env.Data}
}
