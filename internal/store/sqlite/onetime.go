package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gatewarden/gatewarden/internal/store"
)

// CreateOneTimeToken inserts a new one-time token row.
func (s *Storage) CreateOneTimeToken(ctx context.Context, token *store.OneTimeToken) error {
	query := `
		INSERT INTO one_time_tokens (id, user_id, token_hash, type, expires_at, used, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		string(token.Type),
		token.ExpiresAt,
		token.Used,
		token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert one-time token: %w", err)
	}

	return nil
}

// ConsumeVerificationToken marks the matching email_verification token
// used and the owning user verified, in one transaction.
func (s *Storage) ConsumeVerificationToken(ctx context.Context, tokenHash string) (string, error) {
	var userID string

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		id, uid, err := lockOneTimeToken(ctx, tx, tokenHash, store.TokenEmailVerification)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE one_time_tokens SET used = 1 WHERE id = ?`, id); err != nil {
			return fmt.Errorf("mark token used: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET email_verified = 1, updated_at = ? WHERE id = ?`,
			time.Now().UTC(), uid); err != nil {
			return fmt.Errorf("mark user verified: %w", err)
		}

		userID = uid
		return nil
	})
	if err != nil {
		return "", err
	}

	return userID, nil
}

// ConsumeResetToken marks the matching password_reset token used,
// replaces the user's password hash, and revokes all of the user's
// refresh tokens, in one transaction. A crash before commit leaves
// every prior session valid and the token unspent, so the client can
// simply retry.
func (s *Storage) ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string) (string, error) {
	var userID string

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		id, uid, err := lockOneTimeToken(ctx, tx, tokenHash, store.TokenPasswordReset)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE one_time_tokens SET used = 1 WHERE id = ?`, id); err != nil {
			return fmt.Errorf("mark token used: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
			newPasswordHash, time.Now().UTC(), uid); err != nil {
			return fmt.Errorf("update password hash: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE refresh_tokens SET revoked = 1 WHERE user_id = ? AND revoked = 0`,
			uid); err != nil {
			return fmt.Errorf("revoke user sessions: %w", err)
		}

		userID = uid
		return nil
	})
	if err != nil {
		return "", err
	}

	return userID, nil
}

// lockOneTimeToken reads the token row inside tx and enforces the
// single-use contract: absent, spent, and expired all collapse to
// ErrNotFound.
func lockOneTimeToken(ctx context.Context, tx *sql.Tx, tokenHash string, typ store.TokenType) (id, userID string, err error) {
	var (
		used      bool
		expiresAt time.Time
	)

	err = tx.QueryRowContext(ctx, `
		SELECT id, user_id, used, expires_at
		FROM one_time_tokens
		WHERE token_hash = ? AND type = ?`,
		tokenHash, string(typ),
	).Scan(&id, &userID, &used, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", store.ErrNotFound
		}
		return "", "", fmt.Errorf("get one-time token: %w", err)
	}

	if used || time.Now().After(expiresAt) {
		return "", "", store.ErrNotFound
	}

	return id, userID, nil
}
