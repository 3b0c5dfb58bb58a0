package domain

import "time"

// AuditKind names a credential lifecycle action worth keeping a trail of.
type AuditKind string

const (
	AuditBackupIssued          AuditKind = "backup_token_issued"
	AuditImpersonationEnded    AuditKind = "impersonation_ended"
	AuditImpersonationEndError AuditKind = "impersonation_end_failed"
	AuditBackupRestored        AuditKind = "backup_restored"
	AuditLogin                 AuditKind = "login"
	AuditLogout                AuditKind = "logout"
	AuditForceLogout           AuditKind = "force_logout"
)

// AuditEvent records one lifecycle action. Raw credentials are never stored,
// only a short fingerprint.
type AuditEvent struct {
	ID           string    `json:"id"`
	Kind         AuditKind `json:"kind"`
	Subject      string    `json:"subject,omitempty"`
	AdminID      string    `json:"admin_id,omitempty"`
	TargetUserID string    `json:"target_user_id,omitempty"`
	Outcome      string    `json:"outcome"`
	Detail       string    `json:"detail,omitempty"`
	IP           string    `json:"ip,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	Fingerprint  string    `json:"credential_fingerprint,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// RequestMeta carries the caller details attached to audit events.
type RequestMeta struct {
	IP        string
	UserAgent string
}
