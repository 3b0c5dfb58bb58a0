package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/eventhub/auth-gateway/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubBackend struct {
	meFn      func(ctx context.Context, token string) (*domain.User, error)
	currentFn func(ctx context.Context, token string) (*domain.ImpersonationSession, error)
	endFn     func(ctx context.Context, token string) (*domain.EndImpersonationResult, error)
	loginFn   func(ctx context.Context, email, password string) (*domain.LoginResult, error)
	emailFn   func(ctx context.Context, email string) (bool, error)
	calls     int
}

func (b *stubBackend) Me(ctx context.Context, token string) (*domain.User, error) {
	b.calls++
	return b.meFn(ctx, token)
}

func (b *stubBackend) CurrentImpersonation(ctx context.Context, token string) (*domain.ImpersonationSession, error) {
	b.calls++
	return b.currentFn(ctx, token)
}

func (b *stubBackend) EndImpersonation(ctx context.Context, token string) (*domain.EndImpersonationResult, error) {
	b.calls++
	return b.endFn(ctx, token)
}

func (b *stubBackend) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	b.calls++
	return b.loginFn(ctx, email, password)
}

func (b *stubBackend) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	b.calls++
	return b.emailFn(ctx, email)
}

type recordingSink struct {
	events []domain.AuditEvent
}

func (s *recordingSink) Enqueue(e domain.AuditEvent) { s.events = append(s.events, e) }

func (s *recordingSink) last(t *testing.T) domain.AuditEvent {
	t.Helper()
	if len(s.events) == 0 {
		t.Fatalf("expected an audit event")
	}
	return s.events[len(s.events)-1]
}

func newTestService(b *stubBackend) (*SessionService, *recordingSink) {
	sink := &recordingSink{}
	svc := NewSessionService(b, NewCredentialVerifier(testSecret, 0), sink, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc, sink
}

func impersonationToken(t *testing.T, targetID, adminID string) string {
	t.Helper()
	return signToken(t, testSecret, &domain.Claims{
		Role:           domain.RoleUser,
		ImpersonatorID: adminID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   targetID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
}

// ---------------------------------------------------------------------------
// BackupToken
// ---------------------------------------------------------------------------

func TestSessionService_BackupToken(t *testing.T) {
	svc, sink := newTestService(&stubBackend{})
	admin := tokenFor(t, "admin-1", time.Hour)

	backup, err := svc.BackupToken(context.Background(), admin, domain.RequestMeta{IP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("BackupToken returned error: %v", err)
	}
	if backup.Token != admin {
		t.Fatalf("expected backup token to equal the current credential")
	}
	if backup.Purpose != domain.BackupPurpose {
		t.Fatalf("unexpected purpose %q", backup.Purpose)
	}
	if !backup.Timestamp.Equal(svc.now()) {
		t.Fatalf("unexpected timestamp %v", backup.Timestamp)
	}

	ev := sink.last(t)
	if ev.Kind != domain.AuditBackupIssued || ev.Subject != "admin-1" || ev.IP != "10.0.0.1" {
		t.Fatalf("unexpected audit event: %+v", ev)
	}
	if ev.Fingerprint != Fingerprint(admin) {
		t.Fatalf("expected fingerprint of the credential")
	}
}

func TestSessionService_BackupToken_Missing(t *testing.T) {
	svc, sink := newTestService(&stubBackend{})

	if _, err := svc.BackupToken(context.Background(), "", domain.RequestMeta{}); !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if len(sink.events) != 0 {
		t.Fatalf("expected no audit event")
	}
}

// ---------------------------------------------------------------------------
// CurrentImpersonation
// ---------------------------------------------------------------------------

func TestSessionService_CurrentImpersonation_NoCredential(t *testing.T) {
	b := &stubBackend{}
	svc, _ := newTestService(b)

	st := svc.CurrentImpersonation(context.Background(), "")
	if st.State.Kind != domain.SessionNormal || st.Session != nil {
		t.Fatalf("unexpected status: %+v", st)
	}
	if b.calls != 0 {
		t.Fatalf("backend must not be called without a credential")
	}
}

func TestSessionService_CurrentImpersonation_Garbage(t *testing.T) {
	b := &stubBackend{}
	svc, _ := newTestService(b)

	st := svc.CurrentImpersonation(context.Background(), "\x00\x01garbage")
	if st.State.Kind != domain.SessionUnknown || st.Session != nil {
		t.Fatalf("unexpected status: %+v", st)
	}
	if b.calls != 0 {
		t.Fatalf("backend must not be called with an unverifiable credential")
	}
}

func TestSessionService_CurrentImpersonation_Active(t *testing.T) {
	started := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	token := impersonationToken(t, "user-2", "admin-1")
	b := &stubBackend{
		currentFn: func(_ context.Context, got string) (*domain.ImpersonationSession, error) {
			if got != token {
				t.Fatalf("expected credential to be forwarded")
			}
			return &domain.ImpersonationSession{
				ID: "imp-1", AdminID: "admin-1", TargetUserID: "user-2",
				IsActive: true, StartedAt: started, Reason: "support",
			}, nil
		},
	}
	svc, _ := newTestService(b)

	st := svc.CurrentImpersonation(context.Background(), token)
	if st.State.Kind != domain.SessionImpersonating {
		t.Fatalf("expected impersonating, got %s", st.State.Kind)
	}
	if st.State.AdminID != "admin-1" || st.State.TargetUserID != "user-2" || !st.State.StartedAt.Equal(started) {
		t.Fatalf("unexpected state: %+v", st.State)
	}
	if st.Session == nil || st.Session.ID != "imp-1" || st.Session.Reason != "support" {
		t.Fatalf("expected session to be relayed, got %+v", st.Session)
	}
}

func TestSessionService_CurrentImpersonation_NotImpersonating(t *testing.T) {
	b := &stubBackend{
		currentFn: func(context.Context, string) (*domain.ImpersonationSession, error) { return nil, nil },
	}
	svc, _ := newTestService(b)

	st := svc.CurrentImpersonation(context.Background(), tokenFor(t, "admin-1", time.Hour))
	if st.State.Kind != domain.SessionNormal || st.Session != nil {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestSessionService_CurrentImpersonation_BackendFailureDegrades(t *testing.T) {
	for name, backendErr := range map[string]error{
		"graphql":   &domain.BackendError{Operation: "currentImpersonation", Errors: []domain.GraphQLError{{Message: "boom"}}},
		"transport": fmt.Errorf("post: %w", domain.ErrBackendUnavailable),
	} {
		t.Run(name, func(t *testing.T) {
			b := &stubBackend{
				currentFn: func(context.Context, string) (*domain.ImpersonationSession, error) { return nil, backendErr },
			}
			svc, _ := newTestService(b)

			st := svc.CurrentImpersonation(context.Background(), tokenFor(t, "admin-1", time.Hour))
			if st.State.Kind != domain.SessionUnknown || st.Session != nil {
				t.Fatalf("unexpected status: %+v", st)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// EndImpersonation
// ---------------------------------------------------------------------------

func TestSessionService_EndImpersonation_Success(t *testing.T) {
	imp := impersonationToken(t, "user-2", "admin-1")
	fresh := tokenFor(t, "admin-1", 7*24*time.Hour)
	b := &stubBackend{
		endFn: func(_ context.Context, got string) (*domain.EndImpersonationResult, error) {
			if got != imp {
				t.Fatalf("expected impersonation credential to be forwarded")
			}
			return &domain.EndImpersonationResult{
				Token:   fresh,
				User:    &domain.User{ID: "admin-1", Role: domain.RoleAdmin},
				Message: "Impersonation ended",
			}, nil
		},
	}
	svc, sink := newTestService(b)

	res, err := svc.EndImpersonation(context.Background(), imp, domain.RequestMeta{})
	if err != nil {
		t.Fatalf("EndImpersonation returned error: %v", err)
	}
	if res.Token != fresh || res.User.ID != "admin-1" || res.Message != "Impersonation ended" {
		t.Fatalf("unexpected result: %+v", res)
	}

	ev := sink.last(t)
	if ev.Kind != domain.AuditImpersonationEnded || ev.AdminID != "admin-1" || ev.TargetUserID != "user-2" {
		t.Fatalf("unexpected audit event: %+v", ev)
	}
}

// The backend owns role naming; only the restored subject is checked.
func TestSessionService_EndImpersonation_AcceptsAnyRoleSpelling(t *testing.T) {
	imp := impersonationToken(t, "user-2", "admin-1")

	for _, role := range []string{"admin", "Super_Admin", ""} {
		t.Run("role "+role, func(t *testing.T) {
			b := &stubBackend{
				endFn: func(context.Context, string) (*domain.EndImpersonationResult, error) {
					return &domain.EndImpersonationResult{
						Token: tokenFor(t, "admin-1", time.Hour),
						User:  &domain.User{ID: "admin-1", Role: role},
					}, nil
				},
			}
			svc, _ := newTestService(b)

			res, err := svc.EndImpersonation(context.Background(), imp, domain.RequestMeta{})
			if err != nil {
				t.Fatalf("EndImpersonation returned error: %v", err)
			}
			if res.User.ID != "admin-1" || res.User.Role != role {
				t.Fatalf("unexpected user: %+v", res.User)
			}
		})
	}
}

func TestSessionService_EndImpersonation_Missing(t *testing.T) {
	b := &stubBackend{}
	svc, _ := newTestService(b)

	if _, err := svc.EndImpersonation(context.Background(), "", domain.RequestMeta{}); !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if b.calls != 0 {
		t.Fatalf("backend must not be called")
	}
}

func TestSessionService_EndImpersonation_Invalid(t *testing.T) {
	b := &stubBackend{}
	svc, _ := newTestService(b)

	if _, err := svc.EndImpersonation(context.Background(), tokenFor(t, "user-2", -time.Hour), domain.RequestMeta{}); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
	if b.calls != 0 {
		t.Fatalf("backend must not be called")
	}
}

func TestSessionService_EndImpersonation_BackendError(t *testing.T) {
	backendErr := &domain.BackendError{
		Operation: "endImpersonation",
		Errors:    []domain.GraphQLError{{Message: "No active impersonation session"}, {Message: "second"}},
	}
	b := &stubBackend{
		endFn: func(context.Context, string) (*domain.EndImpersonationResult, error) { return nil, backendErr },
	}
	svc, sink := newTestService(b)

	_, err := svc.EndImpersonation(context.Background(), impersonationToken(t, "user-2", "admin-1"), domain.RequestMeta{})
	be, ok := domain.AsBackendError(err)
	if !ok {
		t.Fatalf("expected BackendError, got %v", err)
	}
	if be.FirstMessage() != "No active impersonation session" || len(be.Errors) != 2 {
		t.Fatalf("unexpected backend error: %+v", be)
	}
	if ev := sink.last(t); ev.Kind != domain.AuditImpersonationEndError || ev.Outcome != "error" {
		t.Fatalf("unexpected audit event: %+v", ev)
	}
}

func TestSessionService_EndImpersonation_Transport(t *testing.T) {
	b := &stubBackend{
		endFn: func(context.Context, string) (*domain.EndImpersonationResult, error) {
			return nil, fmt.Errorf("dial: %w", domain.ErrBackendUnavailable)
		},
	}
	svc, _ := newTestService(b)

	_, err := svc.EndImpersonation(context.Background(), impersonationToken(t, "user-2", "admin-1"), domain.RequestMeta{})
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if _, ok := domain.AsBackendError(err); ok {
		t.Fatalf("transport failure must not look like a backend error")
	}
}

func TestSessionService_EndImpersonation_MalformedRestore(t *testing.T) {
	imp := impersonationToken(t, "user-2", "admin-1")

	cases := map[string]*domain.EndImpersonationResult{
		"nil result":   nil,
		"empty token":  {User: &domain.User{ID: "admin-1"}},
		"no user":      {Token: tokenFor(t, "admin-1", time.Hour)},
		"bad token":    {Token: "garbage", User: &domain.User{ID: "admin-1"}},
		"wrong secret": {Token: signToken(t, "other", jwt.MapClaims{"sub": "admin-1", "exp": time.Now().Add(time.Hour).Unix()}), User: &domain.User{ID: "admin-1"}},
		"subject is target user": {
			Token: tokenFor(t, "user-2", time.Hour),
			User:  &domain.User{ID: "admin-1", Role: domain.RoleAdmin},
		},
	}
	for name, result := range cases {
		t.Run(name, func(t *testing.T) {
			b := &stubBackend{
				endFn: func(context.Context, string) (*domain.EndImpersonationResult, error) { return result, nil },
			}
			svc, _ := newTestService(b)

			if _, err := svc.EndImpersonation(context.Background(), imp, domain.RequestMeta{}); !errors.Is(err, domain.ErrMalformedResponse) {
				t.Fatalf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Me
// ---------------------------------------------------------------------------

func TestSessionService_Me(t *testing.T) {
	token := tokenFor(t, "admin-1", time.Hour)
	b := &stubBackend{
		meFn: func(_ context.Context, got string) (*domain.User, error) {
			if got != token {
				t.Fatalf("expected credential to be forwarded")
			}
			return &domain.User{ID: "admin-1", Email: "admin@example.com"}, nil
		},
	}
	svc, _ := newTestService(b)

	user, err := svc.Me(context.Background(), token)
	if err != nil {
		t.Fatalf("Me returned error: %v", err)
	}
	if user.ID != "admin-1" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestSessionService_Me_Unauthenticated(t *testing.T) {
	b := &stubBackend{}
	svc, _ := newTestService(b)

	if _, err := svc.Me(context.Background(), ""); !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if _, err := svc.Me(context.Background(), "garbage"); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
	if b.calls != 0 {
		t.Fatalf("backend must not be called")
	}
}

func TestSessionService_Me_BackendError(t *testing.T) {
	b := &stubBackend{
		meFn: func(context.Context, string) (*domain.User, error) {
			return nil, &domain.BackendError{Operation: "me", Errors: []domain.GraphQLError{{Message: "Unauthorized"}}}
		},
	}
	svc, _ := newTestService(b)

	_, err := svc.Me(context.Background(), tokenFor(t, "admin-1", time.Hour))
	if _, ok := domain.AsBackendError(err); !ok {
		t.Fatalf("expected wrapped BackendError, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Login / CheckEmailExists / Restore / RecordSignOut
// ---------------------------------------------------------------------------

func TestSessionService_Login(t *testing.T) {
	token := tokenFor(t, "admin-1", time.Hour)
	b := &stubBackend{
		loginFn: func(_ context.Context, email, password string) (*domain.LoginResult, error) {
			if email != "admin@example.com" || password != "s3cret" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return &domain.LoginResult{Token: token, User: &domain.User{ID: "admin-1"}}, nil
		},
	}
	svc, sink := newTestService(b)

	res, err := svc.Login(context.Background(), "admin@example.com", "s3cret", domain.RequestMeta{})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if res.Token != token {
		t.Fatalf("unexpected token")
	}
	if ev := sink.last(t); ev.Kind != domain.AuditLogin || ev.Subject != "admin-1" || ev.Outcome != "ok" {
		t.Fatalf("unexpected audit event: %+v", ev)
	}
}

func TestSessionService_Login_Failures(t *testing.T) {
	for name, fn := range map[string]func(context.Context, string, string) (*domain.LoginResult, error){
		"rejected": func(context.Context, string, string) (*domain.LoginResult, error) {
			return nil, &domain.BackendError{Operation: "login", Errors: []domain.GraphQLError{{Message: "Invalid credentials"}}}
		},
		"empty token": func(context.Context, string, string) (*domain.LoginResult, error) {
			return &domain.LoginResult{User: &domain.User{ID: "admin-1"}}, nil
		},
	} {
		t.Run(name, func(t *testing.T) {
			svc, sink := newTestService(&stubBackend{loginFn: fn})

			if _, err := svc.Login(context.Background(), "a@example.com", "x", domain.RequestMeta{}); err == nil {
				t.Fatalf("expected error")
			}
			if ev := sink.last(t); ev.Outcome != "error" {
				t.Fatalf("expected failed login to be audited, got %+v", ev)
			}
		})
	}
}

func TestSessionService_CheckEmailExists(t *testing.T) {
	b := &stubBackend{
		emailFn: func(_ context.Context, email string) (bool, error) { return email == "taken@example.com", nil },
	}
	svc, _ := newTestService(b)

	exists, err := svc.CheckEmailExists(context.Background(), "taken@example.com")
	if err != nil || !exists {
		t.Fatalf("expected exists=true, got %v %v", exists, err)
	}
	exists, err = svc.CheckEmailExists(context.Background(), "free@example.com")
	if err != nil || exists {
		t.Fatalf("expected exists=false, got %v %v", exists, err)
	}
}

func TestSessionService_Restore(t *testing.T) {
	svc, sink := newTestService(&stubBackend{})
	backup := tokenFor(t, "admin-1", time.Hour)

	cred, err := svc.Restore(context.Background(), backup, domain.RequestMeta{})
	if err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}
	if cred.Token != backup || cred.Claims.Principal() != "admin-1" {
		t.Fatalf("unexpected credential: %+v", cred)
	}
	if ev := sink.last(t); ev.Kind != domain.AuditBackupRestored || ev.AdminID != "admin-1" {
		t.Fatalf("unexpected audit event: %+v", ev)
	}

	if _, err := svc.Restore(context.Background(), tokenFor(t, "admin-1", -time.Hour), domain.RequestMeta{}); !errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatalf("expected expired backup to be rejected, got %v", err)
	}
	if ev := sink.last(t); ev.Outcome != "rejected" {
		t.Fatalf("expected rejected restore to be audited, got %+v", ev)
	}
}

func TestSessionService_RecordSignOut(t *testing.T) {
	svc, sink := newTestService(&stubBackend{})

	svc.RecordSignOut(context.Background(), domain.AuditForceLogout, "", domain.RequestMeta{IP: "1.2.3.4"})
	if ev := sink.last(t); ev.Kind != domain.AuditForceLogout || ev.Subject != "" || ev.IP != "1.2.3.4" {
		t.Fatalf("unexpected audit event: %+v", ev)
	}

	svc.RecordSignOut(context.Background(), domain.AuditLogout, tokenFor(t, "admin-1", -time.Hour), domain.RequestMeta{})
	if ev := sink.last(t); ev.Subject != "admin-1" {
		t.Fatalf("expected subject from expired credential, got %+v", ev)
	}
}
