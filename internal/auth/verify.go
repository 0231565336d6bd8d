package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/gatewarden/gatewarden/internal/audit"
	"github.com/gatewarden/gatewarden/internal/metrics"
	"github.com/gatewarden/gatewarden/internal/store"
)

// VerifyEmail consumes an email_verification token and marks its owner
// verified. Absent, spent, and expired tokens are indistinguishable.
func (s *Service) VerifyEmail(ctx context.Context, tok string) error {
	if tok == "" {
		return ErrInvalidOrExpiredToken
	}

	userID, err := s.store.ConsumeVerificationToken(ctx, s.codec.Fingerprint(tok))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("consume verification token: %w", err)
	}

	s.metrics.Inc(metrics.EmailVerified)
	s.emit(audit.Event{
		EventType: audit.EventEmailVerified,
		UserID:    userID,
		Success:   true,
	})

	return nil
}
