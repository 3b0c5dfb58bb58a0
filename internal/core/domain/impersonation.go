package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ImpersonationSession is the backend's record of an admin acting as another
// user. This service only reads it.
//
// When decoded from the backend, Raw keeps the exact JSON and marshalling
// returns it untouched; the typed fields are a read-only view. Timestamps may
// be RFC 3339 strings or epoch milliseconds. One that is neither leaves the
// field zero instead of failing the decode.
type ImpersonationSession struct {
	ID           string     `json:"id"`
	AdminID      string     `json:"adminId"`
	TargetUserID string     `json:"targetUserId"`
	Admin        *User      `json:"admin,omitempty"`
	TargetUser   *User      `json:"targetUser,omitempty"`
	IsActive     bool       `json:"isActive"`
	StartedAt    time.Time  `json:"startedAt"`
	EndedAt      *time.Time `json:"endedAt"`
	Reason       string     `json:"reason,omitempty"`

	Raw json.RawMessage `json:"-"`
}

func (s *ImpersonationSession) UnmarshalJSON(data []byte) error {
	var view struct {
		ID           string          `json:"id"`
		AdminID      string          `json:"adminId"`
		TargetUserID string          `json:"targetUserId"`
		Admin        *User           `json:"admin"`
		TargetUser   *User           `json:"targetUser"`
		IsActive     bool            `json:"isActive"`
		StartedAt    json.RawMessage `json:"startedAt"`
		EndedAt      json.RawMessage `json:"endedAt"`
		Reason       string          `json:"reason"`
	}
	if err := json.Unmarshal(data, &view); err != nil {
		return err
	}

	*s = ImpersonationSession{
		ID:           view.ID,
		AdminID:      view.AdminID,
		TargetUserID: view.TargetUserID,
		Admin:        view.Admin,
		TargetUser:   view.TargetUser,
		IsActive:     view.IsActive,
		Reason:       view.Reason,
		Raw:          append(json.RawMessage(nil), data...),
	}
	if t, ok := parseTimestamp(view.StartedAt); ok {
		s.StartedAt = t
	}
	if t, ok := parseTimestamp(view.EndedAt); ok {
		s.EndedAt = &t
	}
	return nil
}

func (s ImpersonationSession) MarshalJSON() ([]byte, error) {
	if len(s.Raw) > 0 {
		return s.Raw, nil
	}
	type plain ImpersonationSession
	return json.Marshal(plain(s))
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

// SessionKind is the lifecycle state of the browser session as seen from one
// request.
type SessionKind string

const (
	SessionNormal        SessionKind = "normal"
	SessionImpersonating SessionKind = "impersonating"
	SessionUnknown       SessionKind = "unknown"
)

// SessionState is derived once per request from the verified credential and
// the backend probe. AdminID, TargetUserID and StartedAt are only set when
// Kind is SessionImpersonating.
type SessionState struct {
	Kind         SessionKind
	AdminID      string
	TargetUserID string
	StartedAt    time.Time
}

// NormalState is the state of an anonymous or non-impersonating session.
func NormalState() SessionState { return SessionState{Kind: SessionNormal} }

// UnknownState is used when the credential or the backend could not be
// trusted to answer.
func UnknownState() SessionState { return SessionState{Kind: SessionUnknown} }

// StateFromSession derives the lifecycle state from a backend answer. A nil or
// inactive session means the credential is an ordinary one.
func StateFromSession(s *ImpersonationSession) SessionState {
	if s == nil || !s.IsActive {
		return NormalState()
	}
	return SessionState{
		Kind:         SessionImpersonating,
		AdminID:      s.AdminID,
		TargetUserID: s.TargetUserID,
		StartedAt:    s.StartedAt,
	}
}

// ImpersonationStatus is the resolver's answer: the state plus the session
// to relay, which is nil unless the backend returned one.
type ImpersonationStatus struct {
	State   SessionState
	Session *ImpersonationSession
}

// EndImpersonationResult is what the terminator hands back on success. Token
// is the admin's freshly issued credential.
type EndImpersonationResult struct {
	Token   string
	User    *User
	Message string
}

// LoginResult is the outcome of a successful backend login.
type LoginResult struct {
	Token string
	User  *User
}
