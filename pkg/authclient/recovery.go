package authclient

import (
	"context"
	"errors"
	"fmt"
)

// RecoveryPath says how the admin session was got back.
type RecoveryPath string

const (
	PathEnded          RecoveryPath = "ended"
	PathRetried        RecoveryPath = "retried"
	PathBackupRestored RecoveryPath = "backup_restored"
)

// Recovery is the outcome of EndImpersonationWithRecovery.
type Recovery struct {
	Path RecoveryPath
	User *User
	// EndErr is the last end-impersonation failure when Path is
	// PathBackupRestored.
	EndErr error
}

// EndImpersonationWithRecovery ends the impersonation session and, if that
// fails twice, wipes the cookies and restores backup. The restored credential
// is the admin's old one and may be close to expiry.
func (c *Client) EndImpersonationWithRecovery(ctx context.Context, backup BackupToken) (*Recovery, error) {
	if backup.Token == "" {
		return nil, ErrNoBackup
	}

	res, err := c.EndImpersonation(ctx)
	if err == nil {
		return &Recovery{Path: PathEnded, User: res.User}, nil
	}
	c.log.Warn().Err(err).Msg("end impersonation failed, retrying once")

	res, err = c.EndImpersonation(ctx)
	if err == nil {
		return &Recovery{Path: PathRetried, User: res.User}, nil
	}
	endErr := err
	c.log.Warn().Err(endErr).Msg("end impersonation failed again, restoring backup credential")

	if err := c.ForceLogout(ctx); err != nil {
		// The cookie is about to be overwritten anyway.
		c.log.Warn().Err(err).Msg("force logout failed during recovery")
	}
	if err := c.Restore(ctx, backup); err != nil {
		return nil, fmt.Errorf("authclient: restore backup after %v: %w", endErr, err)
	}

	user, err := c.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("authclient: verify restored session: %w", err)
	}
	return &Recovery{Path: PathBackupRestored, User: user, EndErr: endErr}, nil
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}
