package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewarden/gatewarden/internal/store"
)

func TestTrialIssuesMarkedToken(t *testing.T) {
	e := newTestEnv(t, Config{})
	ctx := context.Background()

	require.NoError(t, e.svc.Signup(ctx, "alice@example.com", "hunter2hunter2", ""))

	tok, err := e.svc.Trial(ctx, "alice@example.com", "198.51.100.7")
	require.NoError(t, err)

	user, claims, err := e.svc.Authenticate(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.True(t, claims.Trial(), "trial tokens must carry the trial claim")
	assert.WithinDuration(t, time.Now().Add(DefaultTrialTTL), claims.Expiry, time.Minute)
}

func TestTrialRejections(t *testing.T) {
	e := newTestEnv(t, Config{})
	ctx := context.Background()

	_, err := e.svc.Trial(ctx, "nobody@example.com", "")
	assert.ErrorIs(t, err, ErrNotFound)

	user := e.signupVerified(t, "alice@example.com", "hunter2hunter2")
	_, err = e.svc.Trial(ctx, "alice@example.com", "")
	assert.ErrorIs(t, err, ErrAlreadyVerified)

	require.NoError(t, e.store.SetUserStatus(ctx, user.ID, store.StatusSuspended))
	_, err = e.svc.Trial(ctx, "alice@example.com", "")
	assert.ErrorIs(t, err, ErrSuspended)

	require.NoError(t, e.store.SetUserStatus(ctx, user.ID, store.StatusDeleted))
	_, err = e.svc.Trial(ctx, "alice@example.com", "")
	assert.ErrorIs(t, err, ErrNotFound, "deleted accounts are invisible")
}

func TestTrialWindowStartsAtCreation(t *testing.T) {
	e := newTestEnv(t, Config{})
	ctx := context.Background()

	require.NoError(t, e.svc.Signup(ctx, "alice@example.com", "hunter2hunter2", ""))

	// One day later the window is shut, no matter how often it was
	// probed before.
	e.svc.now = func() time.Time { return time.Now().Add(DefaultTrialTTL + time.Minute) }

	_, err := e.svc.Trial(ctx, "alice@example.com", "")
	assert.ErrorIs(t, err, ErrTrialExpired)
}
