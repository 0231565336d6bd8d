package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gatewarden/gatewarden/internal/store"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	s, err := New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func newTestUser(t *testing.T, s *Storage, email string) *store.User {
	t.Helper()

	now := time.Now().UTC()
	user := &store.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		Status:       store.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.CreateUser(context.Background(), user))

	return user
}

func newTestRefreshToken(user *store.User, hash string, ttl time.Duration) *store.RefreshToken {
	now := time.Now().UTC()
	return &store.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}
