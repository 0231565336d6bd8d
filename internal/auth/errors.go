package auth

import "errors"

// Flow errors. The HTTP layer maps each sentinel to exactly one status
// code; flows never return storage errors directly.
var (
	// ErrRateLimited rejects a request over its admission budget.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrEmailTaken rejects signup for a registered email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials covers unknown email, deleted account, and
	// wrong password alike, so signin failures are uniform.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrSuspended rejects any operation by a suspended account.
	ErrSuspended = errors.New("account suspended")

	// ErrEmailNotVerified rejects signin before the email is verified.
	ErrEmailNotVerified = errors.New("email not verified")

	// ErrInvalidRefreshToken covers an absent, unknown, revoked, or
	// expired refresh token. One sentinel for all causes.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrInvalidOrExpiredToken covers an absent, spent, or expired
	// one-time token.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")

	// ErrAlreadyVerified rejects a trial request for a verified account.
	ErrAlreadyVerified = errors.New("email already verified")

	// ErrTrialExpired rejects a trial request past the trial window.
	ErrTrialExpired = errors.New("trial period expired")

	// ErrUnauthenticated rejects a missing or invalid access token, and
	// a valid token whose subject no longer resolves to a usable account.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNotFound covers lookups that must not leak existence, such as
	// revoking a session that belongs to someone else.
	ErrNotFound = errors.New("not found")
)
