package store

import (
	"context"
	"time"
)

// UserStore owns account rows and the email uniqueness invariant.
type UserStore interface {
	// CreateUser inserts a new account. Returns ErrEmailTaken when the
	// email is already registered.
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// SetUserStatus moves an account between lifecycle states.
	SetUserStatus(ctx context.Context, id string, status UserStatus) error
}

// RefreshTokenStore owns session rows. Rotation and bulk revocation
// are transactional.
type RefreshTokenStore interface {
	CreateRefreshToken(ctx context.Context, token *RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	// ListRefreshTokens returns every session row owned by userID,
	// newest first, including revoked and expired rows.
	ListRefreshTokens(ctx context.Context, userID string) ([]*RefreshToken, error)
	// RotateRefreshToken atomically revokes the row matching
	// presentedHash and inserts next, in one transaction. Returns the
	// revoked row on success. Fails with ErrNotFound when the hash is
	// unknown or the row is expired, and ErrTokenRevoked when the row
	// was already revoked; under concurrent rotation of the same token
	// exactly one caller succeeds.
	RotateRefreshToken(ctx context.Context, presentedHash string, next *RefreshToken) (*RefreshToken, error)
	// RevokeRefreshTokenByHash flips revoked on the matching row.
	// Missing or already-revoked rows are not an error: logout is
	// idempotent.
	RevokeRefreshTokenByHash(ctx context.Context, tokenHash string) error
	// RevokeUserRefreshToken revokes one session owned by userID.
	// Returns ErrNotFound when the row does not exist or belongs to a
	// different user; ownership must not be distinguishable from
	// absence.
	RevokeUserRefreshToken(ctx context.Context, userID, tokenID string) error
	// RevokeAllRefreshTokens revokes every active session of userID
	// and reports how many rows flipped.
	RevokeAllRefreshTokens(ctx context.Context, userID string) (int, error)
	// DeleteExpiredTokens removes rows whose lifetime passed before
	// cutoff. Maintenance only; expiry is enforced at read time.
	DeleteExpiredTokens(ctx context.Context, cutoff time.Time) (int, error)
}

// OneTimeTokenStore owns one-time token rows and their single-use
// invariant. The Consume operations bundle the token flip with its
// side effects in one transaction.
type OneTimeTokenStore interface {
	CreateOneTimeToken(ctx context.Context, token *OneTimeToken) error
	// ConsumeVerificationToken marks the matching email_verification
	// token used and the owning user verified, atomically. Returns the
	// user ID, or ErrNotFound when the token is absent, spent, or
	// expired.
	ConsumeVerificationToken(ctx context.Context, tokenHash string) (string, error)
	// ConsumeResetToken marks the matching password_reset token used,
	// replaces the owning user's password hash, and revokes all of the
	// user's refresh tokens, atomically. Returns the user ID, or
	// ErrNotFound when the token is absent, spent, or expired.
	ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string) (string, error)
}

// Store is the full persistence boundary of the service.
type Store interface {
	UserStore
	RefreshTokenStore
	OneTimeTokenStore
}
