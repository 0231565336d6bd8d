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

// Signup creates an active, unverified account and mails a verification
// link. Mail delivery is best effort: a failed send is logged and the
// signup still succeeds, because the verification mail can be re-issued
// while a half-created account cannot.
func (s *Service) Signup(ctx context.Context, email, pass, ip string) error {
	hash, err := s.hasher.Hash(pass)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &store.User{
		ID:           newID(),
		Email:        email,
		PasswordHash: hash,
		Status:       store.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			s.metrics.Inc(metrics.SignupDuplicate)
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}

	if err := s.issueVerificationMail(ctx, user); err != nil {
		s.logger.Error("verification mail failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	s.metrics.Inc(metrics.SignupSuccess)
	s.emit(audit.Event{
		EventType: audit.EventSignup,
		UserID:    user.ID,
		Email:     email,
		IP:        ip,
		Success:   true,
	})

	return nil
}

// issueVerificationMail creates a fresh email_verification token and
// sends the link carrying its plaintext.
func (s *Service) issueVerificationMail(ctx context.Context, user *store.User) error {
	plaintext, fingerprint, err := s.newOpaqueToken()
	if err != nil {
		return fmt.Errorf("generate verification token: %w", err)
	}

	now := s.now().UTC()
	if err := s.store.CreateOneTimeToken(ctx, &store.OneTimeToken{
		ID:        newID(),
		UserID:    user.ID,
		TokenHash: fingerprint,
		Type:      store.TokenEmailVerification,
		ExpiresAt: now.Add(s.cfg.VerificationTTL),
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("create verification token: %w", err)
	}

	link := fmt.Sprintf("%s/verify-email?token=%s", s.cfg.FrontendURL, plaintext)
	body := fmt.Sprintf(
		"Welcome!\n\nPlease verify your email address by visiting:\n\n%s\n\nThe link expires in %s.",
		link, s.cfg.VerificationTTL,
	)

	return s.mailer.Send(user.Email, "Verify your email", body)
}
