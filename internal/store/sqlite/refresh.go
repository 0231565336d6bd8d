package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gatewarden/gatewarden/internal/store"
)

const refreshColumns = `id, user_id, token_hash, device_info, expires_at, revoked, created_at`

// CreateRefreshToken inserts a new session row.
func (s *Storage) CreateRefreshToken(ctx context.Context, token *store.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (` + refreshColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.DeviceInfo,
		token.ExpiresAt,
		token.Revoked,
		token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}

	return nil
}

// GetRefreshTokenByHash retrieves a session row by its fingerprint.
func (s *Storage) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*store.RefreshToken, error) {
	query := `SELECT ` + refreshColumns + ` FROM refresh_tokens WHERE token_hash = ?`

	token, err := scanRefreshToken(s.db.QueryRowContext(ctx, query, tokenHash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get refresh token: %w", err)
	}

	return token, nil
}

// ListRefreshTokens returns all session rows owned by userID, newest
// first.
func (s *Storage) ListRefreshTokens(ctx context.Context, userID string) ([]*store.RefreshToken, error) {
	query := `
		SELECT ` + refreshColumns + `
		FROM refresh_tokens
		WHERE user_id = ?
		ORDER BY created_at DESC, id
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query refresh tokens: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var tokens []*store.RefreshToken
	for rows.Next() {
		token, err := scanRefreshToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan refresh token: %w", err)
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return tokens, nil
}

// RotateRefreshToken revokes the row matching presentedHash and inserts
// next in one transaction. The revocation is guarded with
// `revoked = 0`, so two concurrent rotations of the same token resolve
// to exactly one winner; the loser re-reads the row and reports
// ErrTokenRevoked.
func (s *Storage) RotateRefreshToken(ctx context.Context, presentedHash string, next *store.RefreshToken) (*store.RefreshToken, error) {
	var revoked *store.RefreshToken

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := `SELECT ` + refreshColumns + ` FROM refresh_tokens WHERE token_hash = ?`
		current, err := scanRefreshToken(tx.QueryRowContext(ctx, query, presentedHash))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrNotFound
			}
			return fmt.Errorf("get refresh token: %w", err)
		}

		if current.Revoked {
			return store.ErrTokenRevoked
		}
		if current.Expired(time.Now()) {
			return store.ErrNotFound
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE refresh_tokens SET revoked = 1 WHERE id = ? AND revoked = 0`,
			current.ID,
		)
		if err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			// Lost the race to a concurrent rotation.
			return store.ErrTokenRevoked
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO refresh_tokens (`+refreshColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			next.ID,
			next.UserID,
			next.TokenHash,
			next.DeviceInfo,
			next.ExpiresAt,
			next.Revoked,
			next.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert rotated token: %w", err)
		}

		current.Revoked = true
		revoked = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	return revoked, nil
}

// RevokeRefreshTokenByHash flips revoked on the matching row.
// Idempotent: a missing or already-revoked row is not an error.
func (s *Storage) RevokeRefreshTokenByHash(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1 WHERE token_hash = ?`,
		tokenHash,
	)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeUserRefreshToken revokes one session owned by userID. The
// owner check is part of the WHERE clause, so a row owned by someone
// else is indistinguishable from a missing one.
func (s *Storage) RevokeUserRefreshToken(ctx context.Context, userID, tokenID string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1 WHERE id = ? AND user_id = ?`,
		tokenID, userID,
	)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrNotFound
	}

	return nil
}

// RevokeAllRefreshTokens revokes every active session of userID.
func (s *Storage) RevokeAllRefreshTokens(ctx context.Context, userID string) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1 WHERE user_id = ? AND revoked = 0`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("revoke user tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	return int(rows), nil
}

// DeleteExpiredTokens removes refresh and one-time token rows that
// expired before cutoff.
func (s *Storage) DeleteExpiredTokens(ctx context.Context, cutoff time.Time) (int, error) {
	total := 0
	for _, query := range []string{
		`DELETE FROM refresh_tokens WHERE expires_at < ?`,
		`DELETE FROM one_time_tokens WHERE expires_at < ?`,
	} {
		result, err := s.db.ExecContext(ctx, query, cutoff)
		if err != nil {
			return total, fmt.Errorf("delete expired tokens: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("rows affected: %w", err)
		}
		total += int(rows)
	}

	return total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRefreshToken(row rowScanner) (*store.RefreshToken, error) {
	token := &store.RefreshToken{}
	err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.DeviceInfo,
		&token.ExpiresAt,
		&token.Revoked,
		&token.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return token, nil
}
