package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gatewarden/gatewarden/internal/audit"
	"github.com/gatewarden/gatewarden/internal/metrics"
	"github.com/gatewarden/gatewarden/internal/store"
)

// ForgotPassword mails a reset link when the email belongs to an
// account. The caller observes the same nil result whether or not the
// account exists; only the per-email budget is allowed to differ, so
// the endpoint cannot be used to enumerate accounts for free.
func (s *Service) ForgotPassword(ctx context.Context, email, ip string) error {
	if s.keyLimiter != nil && !s.keyLimiter.Allow(ctx, email) {
		s.metrics.Inc(metrics.RateLimitReject)
		s.emit(audit.Event{
			EventType: audit.EventRateLimitReject,
			Email:     email,
			IP:        ip,
		})
		return ErrRateLimited
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get user: %w", err)
	}

	plaintext, fingerprint, err := s.newOpaqueToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	now := s.now().UTC()
	if err := s.store.CreateOneTimeToken(ctx, &store.OneTimeToken{
		ID:        newID(),
		UserID:    user.ID,
		TokenHash: fingerprint,
		Type:      store.TokenPasswordReset,
		ExpiresAt: now.Add(s.cfg.PasswordResetTTL),
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("create reset token: %w", err)
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.cfg.FrontendURL, plaintext)
	body := fmt.Sprintf(
		"A password reset was requested for your account.\n\nTo choose a new password, visit:\n\n%s\n\nThe link expires in %s. If you did not request this, ignore this mail.",
		link, s.cfg.PasswordResetTTL,
	)

	if err := s.mailer.Send(user.Email, "Reset your password", body); err != nil {
		s.logger.Error("reset mail failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	s.metrics.Inc(metrics.PasswordResetRequest)

	return nil
}

// ResetPassword consumes a password_reset token, installs the new
// password hash, and revokes every session of the owning user. The
// three writes commit together or not at all.
func (s *Service) ResetPassword(ctx context.Context, tok, newPassword string) error {
	if tok == "" {
		return ErrInvalidOrExpiredToken
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	userID, err := s.store.ConsumeResetToken(ctx, s.codec.Fingerprint(tok), hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("consume reset token: %w", err)
	}

	s.metrics.Inc(metrics.PasswordResetSuccess)
	s.emit(audit.Event{
		EventType: audit.EventPasswordReset,
		UserID:    userID,
		Success:   true,
	})

	return nil
}
