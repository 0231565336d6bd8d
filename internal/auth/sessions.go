package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/gatewarden/gatewarden/internal/audit"
	"github.com/gatewarden/gatewarden/internal/metrics"
	"github.com/gatewarden/gatewarden/internal/store"
)

// Sessions lists every session row of userID, newest first, revoked and
// expired rows included.
func (s *Service) Sessions(ctx context.Context, userID string) ([]*store.RefreshToken, error) {
	tokens, err := s.store.ListRefreshTokens(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return tokens, nil
}

// RevokeSession revokes one session owned by userID. A session that
// does not exist and a session owned by someone else both fail with
// ErrNotFound, so the endpoint cannot confirm foreign session IDs.
func (s *Service) RevokeSession(ctx context.Context, userID, sessionID string) error {
	if err := s.store.RevokeUserRefreshToken(ctx, userID, sessionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("revoke session: %w", err)
	}

	s.metrics.Inc(metrics.SessionRevoked)
	s.emit(audit.Event{
		EventType: audit.EventSessionRevoked,
		UserID:    userID,
		Success:   true,
		Metadata:  map[string]string{"session_id": sessionID},
	})

	return nil
}

// RevokeAllSessions revokes every active session of userID and reports
// how many were cut.
func (s *Service) RevokeAllSessions(ctx context.Context, userID string) (int, error) {
	n, err := s.store.RevokeAllRefreshTokens(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke all sessions: %w", err)
	}

	s.metrics.Inc(metrics.SessionsRevokedAll)
	s.emit(audit.Event{
		EventType: audit.EventSessionsRevoked,
		UserID:    userID,
		Success:   true,
	})

	return n, nil
}
