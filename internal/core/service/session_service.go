package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eventhub/auth-gateway/internal/core/domain"
	"github.com/eventhub/auth-gateway/internal/core/ports"
)

type nopAuditSink struct{}

func (nopAuditSink) Enqueue(domain.AuditEvent) {}

// SessionService implements the credential and impersonation lifecycle on
// top of the remote backend. It holds no session state of its own; every
// call works from the credential it is handed.
type SessionService struct {
	backend  ports.Backend
	verifier *CredentialVerifier
	audit    ports.AuditSink
	log      zerolog.Logger
	now      func() time.Time
}

func NewSessionService(backend ports.Backend, verifier *CredentialVerifier, audit ports.AuditSink, log zerolog.Logger) *SessionService {
	if audit == nil {
		audit = nopAuditSink{}
	}
	return &SessionService{
		backend:  backend,
		verifier: verifier,
		audit:    audit,
		log:      log.With().Str("component", "session_service").Logger(),
		now:      time.Now,
	}
}

// BackupToken hands the current credential back to the caller so it can be
// restored if ending a later impersonation fails. The credential is returned
// exactly as stored; it is not verified.
func (s *SessionService) BackupToken(_ context.Context, token string, meta domain.RequestMeta) (*domain.BackupToken, error) {
	if strings.TrimSpace(token) == "" {
		return nil, domain.ErrMissingCredential
	}

	ev := s.newEvent(domain.AuditBackupIssued, "ok", token, meta)
	if peeked := s.verifier.Peek(token); peeked != nil {
		ev.Subject = peeked.Principal()
	}
	s.audit.Enqueue(ev)

	return &domain.BackupToken{
		Token:     token,
		Timestamp: s.now().UTC(),
		Purpose:   domain.BackupPurpose,
	}, nil
}

// CurrentImpersonation is a best-effort probe: it never fails. Anything that
// prevents a trustworthy answer degrades to an unknown state with no session.
func (s *SessionService) CurrentImpersonation(ctx context.Context, token string) domain.ImpersonationStatus {
	if strings.TrimSpace(token) == "" {
		return domain.ImpersonationStatus{State: domain.NormalState()}
	}

	if _, err := s.verifier.Verify(token); err != nil {
		s.log.Debug().Err(err).Str("credential", Fingerprint(token)).Msg("impersonation probe with unverifiable credential")
		return domain.ImpersonationStatus{State: domain.UnknownState()}
	}

	session, err := s.backend.CurrentImpersonation(ctx, token)
	if err != nil {
		s.log.Warn().Err(err).Str("credential", Fingerprint(token)).Msg("impersonation probe failed")
		return domain.ImpersonationStatus{State: domain.UnknownState()}
	}

	return domain.ImpersonationStatus{State: domain.StateFromSession(session), Session: session}
}

// EndImpersonation asks the backend to close the impersonation session bound
// to token and returns the admin's restored credential. Callers must only
// write the cookie when err is nil.
func (s *SessionService) EndImpersonation(ctx context.Context, token string, meta domain.RequestMeta) (*domain.EndImpersonationResult, error) {
	if strings.TrimSpace(token) == "" {
		return nil, domain.ErrMissingCredential
	}

	claims, err := s.verifier.Verify(token)
	if err != nil {
		s.log.Info().Err(err).Str("credential", Fingerprint(token)).Msg("end impersonation rejected")
		return nil, err
	}

	ev := s.newEvent(domain.AuditImpersonationEnded, "ok", token, meta)
	ev.Subject = claims.Principal()
	ev.TargetUserID = claims.Principal()
	ev.AdminID = claims.ImpersonatorID

	res, err := s.backend.EndImpersonation(ctx, token)
	if err == nil {
		err = s.checkRestored(res)
	}
	if err != nil {
		ev.Kind = domain.AuditImpersonationEndError
		ev.Outcome = "error"
		ev.Detail = err.Error()
		s.audit.Enqueue(ev)

		if be, ok := domain.AsBackendError(err); ok {
			s.log.Warn().Err(be).Str("subject", claims.Principal()).Msg("backend refused to end impersonation")
			return nil, be
		}
		s.log.Error().Err(err).Str("subject", claims.Principal()).Msg("end impersonation failed")
		return nil, fmt.Errorf("end impersonation: %w", err)
	}

	ev.AdminID = res.User.ID
	s.audit.Enqueue(ev)

	s.log.Info().
		Str("admin_id", res.User.ID).
		Str("target_user_id", claims.Principal()).
		Msg("impersonation ended")

	return res, nil
}

// checkRestored makes sure the backend handed back a credential for the user
// it claims to have restored, so the cookie never ends up naming a different
// principal than the response body.
func (s *SessionService) checkRestored(res *domain.EndImpersonationResult) error {
	if res == nil || res.User == nil || res.User.ID == "" || strings.TrimSpace(res.Token) == "" {
		return fmt.Errorf("%w: missing token or user", domain.ErrMalformedResponse)
	}
	claims, err := s.verifier.Verify(res.Token)
	if err != nil {
		return fmt.Errorf("%w: restored credential rejected: %v", domain.ErrMalformedResponse, err)
	}
	if claims.Principal() != res.User.ID {
		return fmt.Errorf("%w: restored credential subject %q does not match user %q",
			domain.ErrMalformedResponse, claims.Principal(), res.User.ID)
	}
	return nil
}

// Me returns the profile of the principal the credential represents.
func (s *SessionService) Me(ctx context.Context, token string) (*domain.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, domain.ErrMissingCredential
	}
	if _, err := s.verifier.Verify(token); err != nil {
		return nil, err
	}

	user, err := s.backend.Me(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("me: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("me: %w: empty profile", domain.ErrMalformedResponse)
	}
	return user, nil
}

// Login exchanges email and password for a credential.
func (s *SessionService) Login(ctx context.Context, email, password string, meta domain.RequestMeta) (*domain.LoginResult, error) {
	res, err := s.backend.Login(ctx, email, password)
	if err == nil && (res == nil || res.User == nil || strings.TrimSpace(res.Token) == "") {
		err = fmt.Errorf("%w: missing token or user", domain.ErrMalformedResponse)
	}

	ev := s.newEvent(domain.AuditLogin, "ok", "", meta)
	ev.Detail = email
	if err != nil {
		ev.Outcome = "error"
		s.audit.Enqueue(ev)
		return nil, fmt.Errorf("login: %w", err)
	}

	ev.Subject = res.User.ID
	ev.Fingerprint = Fingerprint(res.Token)
	s.audit.Enqueue(ev)
	return res, nil
}

func (s *SessionService) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	exists, err := s.backend.CheckEmailExists(ctx, email)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

// Restore validates a previously fetched backup credential so it can be put
// back into the cookie jar.
func (s *SessionService) Restore(_ context.Context, token string, meta domain.RequestMeta) (*domain.Credential, error) {
	if strings.TrimSpace(token) == "" {
		return nil, domain.ErrMissingCredential
	}

	ev := s.newEvent(domain.AuditBackupRestored, "ok", token, meta)
	claims, err := s.verifier.Verify(token)
	if err != nil {
		ev.Outcome = "rejected"
		s.audit.Enqueue(ev)
		return nil, err
	}

	ev.Subject = claims.Principal()
	ev.AdminID = claims.Principal()
	s.audit.Enqueue(ev)
	return &domain.Credential{Token: token, Claims: claims}, nil
}

// RecordSignOut keeps a trail of logout, clear and force-logout calls.
func (s *SessionService) RecordSignOut(_ context.Context, kind domain.AuditKind, token string, meta domain.RequestMeta) {
	ev := s.newEvent(kind, "ok", token, meta)
	if token != "" {
		if peeked := s.verifier.Peek(token); peeked != nil {
			ev.Subject = peeked.Principal()
		}
	}
	s.audit.Enqueue(ev)
}

func (s *SessionService) newEvent(kind domain.AuditKind, outcome, token string, meta domain.RequestMeta) domain.AuditEvent {
	return domain.AuditEvent{
		ID:          uuid.NewString(),
		Kind:        kind,
		Outcome:     outcome,
		IP:          meta.IP,
		UserAgent:   meta.UserAgent,
		Fingerprint: Fingerprint(token),
		CreatedAt:   s.now().UTC(),
	}
}
