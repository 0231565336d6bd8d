package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/gatewarden/gatewarden/internal/audit"
	"github.com/gatewarden/gatewarden/internal/metrics"
	"github.com/gatewarden/gatewarden/internal/store"
	"github.com/gatewarden/gatewarden/internal/token"
)

// Signin verifies credentials and opens a session. Unknown email,
// deleted account, and wrong password all fail with
// ErrInvalidCredentials so callers cannot probe which one it was.
func (s *Service) Signin(ctx context.Context, email, pass, ip, deviceInfo string) (*Session, error) {
	fail := func(reason string) (*Session, error) {
		s.metrics.Inc(metrics.SigninFailure)
		s.emit(audit.Event{
			EventType: audit.EventSigninFailure,
			Email:     email,
			IP:        ip,
			Error:     reason,
		})
		return nil, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail("unknown email")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	switch user.Status {
	case store.StatusActive:
	case store.StatusSuspended:
		s.metrics.Inc(metrics.SigninFailure)
		s.emit(audit.Event{
			EventType: audit.EventSigninFailure,
			UserID:    user.ID,
			Email:     email,
			IP:        ip,
			Error:     "suspended",
		})
		return nil, ErrSuspended
	case store.StatusDeleted:
		return fail("deleted account")
	default:
		return nil, fmt.Errorf("unhandled user status %s", user.Status)
	}

	if user.PasswordHash == "" || !s.hasher.Verify(user.PasswordHash, pass) {
		return fail("wrong password")
	}

	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	session, err := s.openSession(ctx, user, deviceInfo)
	if err != nil {
		return nil, err
	}

	s.metrics.Inc(metrics.SigninSuccess)
	s.emit(audit.Event{
		EventType: audit.EventSigninSuccess,
		UserID:    user.ID,
		Email:     email,
		IP:        ip,
		Success:   true,
	})

	return session, nil
}

// openSession issues the access token, persists a refresh-token row,
// and generates the CSRF companion value.
func (s *Service) openSession(ctx context.Context, user *store.User, deviceInfo string) (*Session, error) {
	accessToken, err := s.issuer.Issue(user.ID, s.cfg.AccessTokenTTL, nil)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refreshPlain, fingerprint, err := s.newOpaqueToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	now := s.now().UTC()
	if err := s.store.CreateRefreshToken(ctx, &store.RefreshToken{
		ID:         newID(),
		UserID:     user.ID,
		TokenHash:  fingerprint,
		DeviceInfo: deviceInfo,
		ExpiresAt:  now.Add(s.cfg.RefreshTokenTTL),
		CreatedAt:  now,
	}); err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	csrfToken, err := s.codec.Generate(token.CSRFLength)
	if err != nil {
		return nil, fmt.Errorf("generate csrf token: %w", err)
	}

	return &Session{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshPlain,
		CSRFToken:    csrfToken,
	}, nil
}
