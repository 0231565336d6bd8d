package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewarden/gatewarden/internal/store"
)

func TestCreateUserAndLookup(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := newTestUser(t, s, "alice@example.com")

	byID, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, byID.Email)
	assert.Equal(t, store.StatusActive, byID.Status)
	assert.False(t, byID.EmailVerified)

	byEmail, err := s.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := newTestStorage(t)

	newTestUser(t, s, "alice@example.com")

	dup := newTestUser(t, s, "bob@example.com")
	dup.Email = "alice@example.com"
	dup.ID = "another-id"
	err := s.CreateUser(context.Background(), dup)
	assert.ErrorIs(t, err, store.ErrEmailTaken)
}

func TestEmailLookupIsCaseSensitive(t *testing.T) {
	s := newTestStorage(t)

	newTestUser(t, s, "Alice@example.com")

	_, err := s.GetUserByEmail(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetUserMissing(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetUserByID(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetUserByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSetUserStatus(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	user := newTestUser(t, s, "alice@example.com")

	require.NoError(t, s.SetUserStatus(ctx, user.ID, store.StatusSuspended))

	got, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusSuspended, got.Status)

	assert.ErrorIs(t, s.SetUserStatus(ctx, "missing", store.StatusDeleted), store.ErrNotFound)
}
