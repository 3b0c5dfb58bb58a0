// Package authclient is a Go client for the gateway's credential endpoints.
//
// It keeps the credential cookie in its own jar, so one Client stands for one
// browser session. Callers that start an impersonation session elsewhere must
// fetch a BackupToken first; EndImpersonationWithRecovery needs it to get the
// admin back when ending the session fails.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	credentialCookie = "token"
	defaultTimeout   = 10 * time.Second
)

// ErrNoBackup is returned when recovery is attempted without a backup token.
var ErrNoBackup = errors.New("authclient: no backup token")

// User is a dashboard account as the gateway returns it.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Session is an impersonation session. The gateway relays the backend's JSON
// as-is, so timestamps are accepted as RFC 3339 strings or epoch milliseconds.
type Session struct {
	ID           string     `json:"id"`
	AdminID      string     `json:"adminId"`
	TargetUserID string     `json:"targetUserId"`
	Admin        *User      `json:"admin,omitempty"`
	TargetUser   *User      `json:"targetUser,omitempty"`
	IsActive     bool       `json:"isActive"`
	StartedAt    time.Time  `json:"startedAt"`
	EndedAt      *time.Time `json:"endedAt"`
	Reason       string     `json:"reason,omitempty"`
}

func (s *Session) UnmarshalJSON(data []byte) error {
	type fields Session
	var view struct {
		*fields
		StartedAt json.RawMessage `json:"startedAt"`
		EndedAt   json.RawMessage `json:"endedAt"`
	}
	view.fields = (*fields)(s)
	if err := json.Unmarshal(data, &view); err != nil {
		return err
	}
	s.StartedAt, s.EndedAt = time.Time{}, nil
	if t, ok := parseTimestamp(view.StartedAt); ok {
		s.StartedAt = t
	}
	if t, ok := parseTimestamp(view.EndedAt); ok {
		s.EndedAt = &t
	}
	return nil
}

func parseTimestamp(raw json.RawMessage) (time.Time, bool) {
	v := strings.TrimSpace(string(raw))
	if v == "" || v == "null" {
		return time.Time{}, false
	}
	if unq, err := strconv.Unquote(v); err == nil {
		if t, err := time.Parse(time.RFC3339Nano, unq); err == nil {
			return t, true
		}
		v = unq
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}

// BackupToken is the admin credential saved before impersonating.
type BackupToken struct {
	Token    string
	IssuedAt time.Time
	Purpose  string
}

// EndResult is the answer to a successful end-impersonation call.
type EndResult struct {
	User    *User
	Message string
}

// APIError is a non-2xx answer from the gateway.
type APIError struct {
	StatusCode int
	Message    string
	Errors     []BackendMessage
}

// BackendMessage is one backend error relayed by the gateway.
type BackendMessage struct {
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("authclient: status %d", e.StatusCode)
	}
	return fmt.Sprintf("authclient: status %d: %s", e.StatusCode, e.Message)
}

// Client talks to one gateway on behalf of one cookie jar.
type Client struct {
	base *url.URL
	http *http.Client
	log  zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. A cookie jar is added when
// the client has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			cp := *hc
			c.http = &cp
		}
	}
}

// WithLogger sets the logger used to report recovery steps.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a Client for the gateway at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("authclient: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("authclient: base url %q must be absolute", baseURL)
	}

	c := &Client{
		base: base,
		http: &http.Client{Timeout: defaultTimeout},
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("authclient: cookie jar: %w", err)
		}
		c.http.Jar = jar
	}
	return c, nil
}

// Token returns the credential currently held in the jar, or "".
func (c *Client) Token() string {
	for _, ck := range c.http.Jar.Cookies(c.base) {
		if ck.Name == credentialCookie {
			return ck.Value
		}
	}
	return ""
}

// SetToken puts a credential into the jar, as a browser would after a login
// or an impersonation start handled elsewhere.
func (c *Client) SetToken(token string) {
	c.http.Jar.SetCookies(c.base, []*http.Cookie{{Name: credentialCookie, Value: token, Path: "/"}})
}

// Login signs in and keeps the credential cookie.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var resp struct {
		User *User `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// FetchBackupToken saves the current credential. Call it before starting an
// impersonation session.
func (c *Client) FetchBackupToken(ctx context.Context) (BackupToken, error) {
	var resp struct {
		Token     string `json:"token"`
		Timestamp int64  `json:"timestamp"`
		Purpose   string `json:"purpose"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/backup-token", nil, &resp); err != nil {
		return BackupToken{}, err
	}
	return BackupToken{
		Token:    resp.Token,
		IssuedAt: time.UnixMilli(resp.Timestamp).UTC(),
		Purpose:  resp.Purpose,
	}, nil
}

// CurrentImpersonation returns the active session, or nil when there is none
// or the gateway could not tell.
func (c *Client) CurrentImpersonation(ctx context.Context) (*Session, error) {
	var resp struct {
		CurrentImpersonation *Session `json:"currentImpersonation"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/impersonate/current", nil, &resp); err != nil {
		return nil, err
	}
	return resp.CurrentImpersonation, nil
}

// EndImpersonation ends the session. On success the jar holds the admin's new
// credential; on failure the jar is untouched.
func (c *Client) EndImpersonation(ctx context.Context) (*EndResult, error) {
	var resp struct {
		Success bool   `json:"success"`
		User    *User  `json:"user"`
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/impersonate/end", nil, &resp); err != nil {
		return nil, err
	}
	return &EndResult{User: resp.User, Message: resp.Message}, nil
}

// Me returns the profile of the principal in the jar.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var resp struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// ForceLogout wipes every credential cookie.
func (c *Client) ForceLogout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/force-logout", nil, nil)
}

// Restore puts a backup credential back into the jar through the gateway,
// which rejects it if it no longer verifies.
func (c *Client) Restore(ctx context.Context, backup BackupToken) error {
	if backup.Token == "" {
		return ErrNoBackup
	}
	return c.do(ctx, http.MethodPost, "/api/auth/restore", map[string]string{"token": backup.Token}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("authclient: encode %s: %w", path, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return fmt.Errorf("authclient: build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("authclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("authclient: read %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Error  string           `json:"error"`
			Errors []BackendMessage `json:"errors"`
		}
		if json.Unmarshal(raw, &envelope) == nil {
			apiErr.Message = envelope.Error
			apiErr.Errors = envelope.Errors
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("authclient: decode %s: %w", path, err)
	}
	return nil
}
