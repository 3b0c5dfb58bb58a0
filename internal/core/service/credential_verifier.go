package service

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/blake2b"

	"github.com/eventhub/auth-gateway/internal/core/domain"
)

// CredentialVerifier checks signature and expiry of backend-issued
// credentials against the shared signing secret.
type CredentialVerifier struct {
	secret []byte
	leeway time.Duration
	now    func() time.Time
}

func NewCredentialVerifier(secret string, leeway time.Duration) *CredentialVerifier {
	if leeway < 0 {
		leeway = 0
	}
	return &CredentialVerifier{secret: []byte(secret), leeway: leeway, now: time.Now}
}

// Verify returns the claims of a valid credential. Every failure, whatever
// its cause, is reported as domain.ErrInvalidCredential.
func (v *CredentialVerifier) Verify(token string) (*domain.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrMissingCredential
	}
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("%w: signing secret not configured", domain.ErrInvalidCredential)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	)

	claims := &domain.Claims{}
	tkn, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCredential, err)
	}
	if claims.Principal() == "" {
		return nil, fmt.Errorf("%w: token has no subject", domain.ErrInvalidCredential)
	}
	return claims, nil
}

// Peek decodes claims without checking the signature. Only for labelling
// audit records; never for authorization.
func (v *CredentialVerifier) Peek(token string) *domain.Claims {
	claims := &domain.Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(strings.TrimSpace(token), claims); err != nil {
		return nil
	}
	return claims
}

// Fingerprint is a short BLAKE2b digest that identifies a credential in logs
// and audit records without revealing it.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}
