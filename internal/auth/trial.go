package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/gatewarden/gatewarden/internal/audit"
	"github.com/gatewarden/gatewarden/internal/jwt"
	"github.com/gatewarden/gatewarden/internal/metrics"
	"github.com/gatewarden/gatewarden/internal/store"
)

// Trial issues a trial access token for a freshly signed-up, not yet
// verified account. The trial window starts at account creation, not at
// the request, so repeated calls cannot extend it. No refresh token is
// issued: when the trial token expires the user must verify and sign
// in.
func (s *Service) Trial(ctx context.Context, email, ip string) (string, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get user: %w", err)
	}

	switch user.Status {
	case store.StatusActive:
	case store.StatusSuspended:
		return "", ErrSuspended
	case store.StatusDeleted:
		return "", ErrNotFound
	default:
		return "", fmt.Errorf("unhandled user status %s", user.Status)
	}

	if user.EmailVerified {
		return "", ErrAlreadyVerified
	}

	if s.now().UTC().After(user.CreatedAt.Add(s.cfg.TrialTTL)) {
		return "", ErrTrialExpired
	}

	accessToken, err := s.issuer.Issue(user.ID, s.cfg.TrialTTL, map[string]any{jwt.TrialClaim: true})
	if err != nil {
		return "", fmt.Errorf("issue trial token: %w", err)
	}

	s.metrics.Inc(metrics.TrialIssued)
	s.emit(audit.Event{
		EventType: audit.EventTrialIssued,
		UserID:    user.ID,
		Email:     email,
		IP:        ip,
		Success:   true,
	})

	return accessToken, nil
}
