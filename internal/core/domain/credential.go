package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Cookie names shared with the dashboard front end.
const (
	CredentialCookie = "token"
	RefreshCookie    = "refreshToken"
)

// BackupPurpose tags a backup token response so clients cannot confuse it
// with a freshly issued credential.
const BackupPurpose = "impersonation-backup"

// Claims is the payload of a backend-issued credential. The backend puts the
// principal id in "sub"; older tokens carry it in "userId" instead.
type Claims struct {
	UserID         string `json:"userId,omitempty"`
	Role           string `json:"role,omitempty"`
	ImpersonatorID string `json:"impersonatorId,omitempty"`
	jwt.RegisteredClaims
}

// Principal returns the id of the identity the credential represents.
func (c *Claims) Principal() string {
	if c == nil {
		return ""
	}
	if c.Subject != "" {
		return c.Subject
	}
	return c.UserID
}

// Credential is a raw bearer token paired with its verified claims.
type Credential struct {
	Token  string
	Claims *Claims
}

// BackupToken is the admin's pre-impersonation credential handed back to the
// caller. It is never persisted server side.
type BackupToken struct {
	Token     string    `json:"token"`
	Timestamp time.Time `json:"timestamp"`
	Purpose   string    `json:"purpose"`
}
