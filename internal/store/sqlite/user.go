package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gatewarden/gatewarden/internal/store"
)

// CreateUser inserts a new account row.
func (s *Storage) CreateUser(ctx context.Context, user *store.User) error {
	query := `
		INSERT INTO users (id, email, email_verified, password_hash, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.EmailVerified,
		user.PasswordHash,
		user.Status.String(),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return store.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetUserByID retrieves an account by its ID.
func (s *Storage) GetUserByID(ctx context.Context, id string) (*store.User, error) {
	return s.getUser(ctx, `WHERE id = ?`, id)
}

// GetUserByEmail retrieves an account by its email, case-sensitively.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	return s.getUser(ctx, `WHERE email = ?`, email)
}

func (s *Storage) getUser(ctx context.Context, where string, arg any) (*store.User, error) {
	query := `
		SELECT id, email, email_verified, password_hash, status, created_at, updated_at
		FROM users ` + where

	user := &store.User{}
	var status string

	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.EmailVerified,
		&user.PasswordHash,
		&status,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	user.Status, err = store.ParseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

// SetUserStatus moves an account between lifecycle states.
func (s *Storage) SetUserStatus(ctx context.Context, id string, status store.UserStatus) error {
	query := `UPDATE users SET status = ?, updated_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, status.String(), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update user status: %w", err)
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
