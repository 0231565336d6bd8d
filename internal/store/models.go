// Package store defines the persisted entities of the auth service and
// the interfaces its storage backends implement. The invariants that
// span multiple rows (rotation, reset, verification) are owned here:
// implementations must commit each of them as a single transaction.
package store

import (
	"fmt"
	"time"
)

// UserStatus is the closed set of account lifecycle states. Every
// switch over it must be exhaustive with a default that fails loudly,
// so adding a status forces each decision point to be revisited.
type UserStatus uint8

const (
	StatusActive UserStatus = iota
	StatusSuspended
	StatusDeleted
)

// String returns the storage representation of the status.
func (s UserStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusSuspended:
		return "suspended"
	case StatusDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// ParseStatus maps a storage representation back to a UserStatus.
func ParseStatus(s string) (UserStatus, error) {
	switch s {
	case "active":
		return StatusActive, nil
	case "suspended":
		return StatusSuspended, nil
	case "deleted":
		return StatusDeleted, nil
	default:
		return 0, fmt.Errorf("unknown user status %q", s)
	}
}

// TokenType classifies one-time tokens.
type TokenType string

const (
	TokenEmailVerification TokenType = "email_verification"
	TokenPasswordReset     TokenType = "password_reset"
	TokenEmailChange       TokenType = "email_change"
	TokenTrialAccess       TokenType = "trial_access"
)

// User is an account. Accounts are never hard-deleted; status moves to
// StatusDeleted instead. Email is unique and stored case-sensitively.
type User struct {
	ID            string
	Email         string
	EmailVerified bool
	PasswordHash  string // argon2id PHC string; empty only transiently
	Status        UserStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RefreshToken is one persisted session. Only the keyed fingerprint of
// the opaque secret is stored. Rows mutate exactly once, when revoked.
type RefreshToken struct {
	ID         string
	UserID     string
	TokenHash  string
	DeviceInfo string
	ExpiresAt  time.Time
	Revoked    bool
	CreatedAt  time.Time
}

// Expired reports whether the token's lifetime has passed at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// OneTimeToken is a single-use secret for an out-of-band action. Once
// used it is invalid forever, regardless of expiry.
type OneTimeToken struct {
	ID        string
	UserID    string
	TokenHash string
	Type      TokenType
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}
