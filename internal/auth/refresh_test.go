package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewarden/gatewarden/internal/metrics"
)

func TestRefreshRotates(t *testing.T) {
	e := newTestEnv(t, Config{})
	ctx := context.Background()

	user := e.signupVerified(t, "alice@example.com", "hunter2hunter2")
	session, err := e.svc.Signin(ctx, "alice@example.com", "hunter2hunter2", "", "cli/1.0")
	require.NoError(t, err)

	next, err := e.svc.Refresh(ctx, session.RefreshToken, "198.51.100.7", "cli/1.1")
	require.NoError(t, err)
	assert.NotEqual(t, session.RefreshToken, next.RefreshToken)
	assert.NotEmpty(t, next.AccessToken)
	assert.NotEmpty(t, next.CSRFToken)

	// One revoked row, one live replacement.
	tokens, err := e.store.ListRefreshTokens(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	var live int
	for _, row := range tokens {
		if !row.Revoked {
			live++
		}
	}
	assert.Equal(t, 1, live)

	// The new token keeps working; chains are unbounded.
	_, err = e.svc.Refresh(ctx, next.RefreshToken, "", "")
	assert.NoError(t, err)
}

func TestRefreshRejectsReusedToken(t *testing.T) {
	e := newTestEnv(t, Config{})
	ctx := context.Background()

	e.signupVerified(t, "alice@example.com", "hunter2hunter2")
	session, err := e.svc.Signin(ctx, "alice@example.com", "hunter2hunter2", "", "")
	require.NoError(t, err)

	_, err = e.svc.Refresh(ctx, session.RefreshToken, "", "")
	require.NoError(t, err)

	// The rotated-out token is dead, no matter how often presented.
	for i := 0; i < 3; i++ {
		_, err = e.svc.Refresh(ctx, session.RefreshToken, "", "")
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	}
	assert.Equal(t, uint64(3), e.stats.Value(metrics.RefreshReuseDetected))
}

func TestRefreshRevokeOnReuse(t *testing.T) {
	e := newTestEnv(t, Config{RevokeOnReuse: true})
	ctx := context.Background()

	user := e.signupVerified(t, "alice@example.com", "hunter2hunter2")

	first, err := e.svc.Signin(ctx, "alice@example.com", "hunter2hunter2", "", "laptop")
	require.NoError(t, err)
	_, err = e.svc.Signin(ctx, "alice@example.com", "hunter2hunter2", "", "phone")
	require.NoError(t, err)

	rotated, err := e.svc.Refresh(ctx, first.RefreshToken, "", "")
	require.NoError(t, err)

	// Reuse of the rotated-out token cuts every session of the user,
	// the fresh one included.
	_, err = e.svc.Refresh(ctx, first.RefreshToken, "", "")
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	tokens, err := e.store.ListRefreshTokens(ctx, user.ID)
	require.NoError(t, err)
	for _, row := range tokens {
		assert.True(t, row.Revoked)
	}

	_, err = e.svc.Refresh(ctx, rotated.RefreshToken, "", "")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefreshUnknownAndEmptyToken(t *testing.T) {
	e := newTestEnv(t, Config{})
	ctx := context.Background()

	_, err := e.svc.Refresh(ctx, "", "", "")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = e.svc.Refresh(ctx, "never-issued", "", "")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestConcurrentRefreshSingleWinner(t *testing.T) {
	e := newTestEnv(t, Config{})
	ctx := context.Background()

	e.signupVerified(t, "alice@example.com", "hunter2hunter2")
	session, err := e.svc.Signin(ctx, "alice@example.com", "hunter2hunter2", "", "")
	require.NoError(t, err)

	const workers = 8
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			_, err := e.svc.Refresh(ctx, session.RefreshToken, "", "")
			results <- err
		}()
	}

	var wins, losses int
	for i := 0; i < workers; i++ {
		if err := <-results; err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, ErrInvalidRefreshToken)
			losses++
		}
	}

	assert.Equal(t, 1, wins, "exactly one concurrent refresh may win")
	assert.Equal(t, workers-1, losses)
}

func TestLogoutIsIdempotent(t *testing.T) {
	e := newTestEnv(t, Config{})
	ctx := context.Background()

	user := e.signupVerified(t, "alice@example.com", "hunter2hunter2")
	session, err := e.svc.Signin(ctx, "alice@example.com", "hunter2hunter2", "", "")
	require.NoError(t, err)

	require.NoError(t, e.svc.Logout(ctx, session.RefreshToken))

	tokens, err := e.store.ListRefreshTokens(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.True(t, tokens[0].Revoked)

	// Again, and with garbage, and with nothing.
	assert.NoError(t, e.svc.Logout(ctx, session.RefreshToken))
	assert.NoError(t, e.svc.Logout(ctx, "unknown"))
	assert.NoError(t, e.svc.Logout(ctx, ""))

	_, err = e.svc.Refresh(ctx, session.RefreshToken, "", "")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}
