package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gatewarden/gatewarden/internal/audit"
	"github.com/gatewarden/gatewarden/internal/jwt"
	"github.com/gatewarden/gatewarden/internal/metrics"
	"github.com/gatewarden/gatewarden/internal/store"
	"github.com/gatewarden/gatewarden/internal/token"
)

// Refresh rotates the presented refresh token and returns a new session
// triple. Every failure mode collapses into ErrInvalidRefreshToken.
//
// Presenting an already-rotated token is treated as a reuse signal: it
// is audited, and with RevokeOnReuse set it additionally revokes every
// session of the owning user. Of two concurrent rotations of the same
// token exactly one succeeds; the store guarantees that, this method
// only translates the outcome.
func (s *Service) Refresh(ctx context.Context, presented, ip, deviceInfo string) (*Session, error) {
	if presented == "" {
		return nil, ErrInvalidRefreshToken
	}

	fingerprint := s.codec.Fingerprint(presented)

	current, err := s.store.GetRefreshTokenByHash(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.metrics.Inc(metrics.RefreshFailure)
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("get refresh token: %w", err)
	}

	user, err := s.store.GetUserByID(ctx, current.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.metrics.Inc(metrics.RefreshFailure)
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	nextPlain, nextFingerprint, err := s.newOpaqueToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	now := s.now().UTC()
	next := &store.RefreshToken{
		ID:         newID(),
		UserID:     current.UserID,
		TokenHash:  nextFingerprint,
		DeviceInfo: deviceInfo,
		ExpiresAt:  now.Add(s.cfg.RefreshTokenTTL),
		CreatedAt:  now,
	}

	if _, err := s.store.RotateRefreshToken(ctx, fingerprint, next); err != nil {
		switch {
		case errors.Is(err, store.ErrTokenRevoked):
			s.handleReuse(ctx, current, ip)
			return nil, ErrInvalidRefreshToken
		case errors.Is(err, store.ErrNotFound):
			s.metrics.Inc(metrics.RefreshFailure)
			return nil, ErrInvalidRefreshToken
		default:
			return nil, fmt.Errorf("rotate refresh token: %w", err)
		}
	}

	accessToken, err := s.issuer.Issue(user.ID, s.cfg.AccessTokenTTL, nil)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	csrfToken, err := s.codec.Generate(token.CSRFLength)
	if err != nil {
		return nil, fmt.Errorf("generate csrf token: %w", err)
	}

	s.metrics.Inc(metrics.RefreshSuccess)

	return &Session{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: nextPlain,
		CSRFToken:    csrfToken,
	}, nil
}

// handleReuse records the presentation of a rotated-out token and,
// when configured, cuts every session of the affected user.
func (s *Service) handleReuse(ctx context.Context, reused *store.RefreshToken, ip string) {
	s.metrics.Inc(metrics.RefreshReuseDetected)
	s.emit(audit.Event{
		EventType: audit.EventRefreshReuse,
		UserID:    reused.UserID,
		IP:        ip,
		Metadata:  map[string]string{"token_id": reused.ID},
	})

	if !s.cfg.RevokeOnReuse {
		return
	}

	n, err := s.store.RevokeAllRefreshTokens(ctx, reused.UserID)
	if err != nil {
		s.logger.Error("revoke on reuse failed",
			slog.String("user_id", reused.UserID),
			slog.Any("error", err),
		)
		return
	}

	s.metrics.Inc(metrics.SessionsRevokedAll)
	s.logger.Warn("refresh token reuse, revoked all sessions",
		slog.String("user_id", reused.UserID),
		slog.Int("revoked", n),
	)
}

// Logout revokes the session matching the presented refresh token.
// Idempotent: an empty, unknown, or already-revoked token is fine.
func (s *Service) Logout(ctx context.Context, presented string) error {
	if presented == "" {
		return nil
	}

	if err := s.store.RevokeRefreshTokenByHash(ctx, s.codec.Fingerprint(presented)); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	return nil
}

// Authenticate is the bearer gate for protected endpoints: it parses
// the access token and resolves its subject to a usable account. The
// status switch is exhaustive; a status this gate does not know is an
// internal error, not a pass.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*store.User, *jwt.Claims, error) {
	claims, err := s.issuer.Verify(accessToken)
	if err != nil {
		return nil, nil, ErrUnauthenticated
	}

	user, err := s.store.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrUnauthenticated
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	switch user.Status {
	case store.StatusActive:
		return user, claims, nil
	case store.StatusSuspended:
		return nil, nil, ErrSuspended
	case store.StatusDeleted:
		return nil, nil, ErrUnauthenticated
	default:
		return nil, nil, fmt.Errorf("unhandled user status %s", user.Status)
	}
}
