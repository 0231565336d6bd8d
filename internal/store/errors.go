package store

import "errors"

var (
	// ErrNotFound covers any lookup miss, including one-time tokens
	// that are spent or expired. Callers map it to their own taxonomy.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken is returned by CreateUser when the email's
	// uniqueness constraint fires.
	ErrEmailTaken = errors.New("email already registered")

	// ErrTokenRevoked is returned by RotateRefreshToken when the
	// presented token exists but was already revoked. Distinguished
	// from ErrNotFound so the caller can treat reuse of a live-looking
	// token as a compromise signal; it must never be surfaced to
	// clients differently from ErrNotFound.
	ErrTokenRevoked = errors.New("refresh token revoked")
)
