package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// TokenRepository stores key-value entries in the tokens table.
//
// It satisfies auth.Persister.
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new TokenRepository with the given database connection
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Get returns the value stored under key. ok is false when no entry exists.
func (r *TokenRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM tokens WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read token %q: %w", key, err)
	}
	return value, true, nil
}

// Set inserts or replaces the value stored under key.
func (r *TokenRepository) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("token key cannot be empty")
	}

	query := `
		INSERT INTO tokens (key, value, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	now := time.Now()
	if _, err := r.db.ExecContext(ctx, query, key, value, now, now); err != nil {
		return fmt.Errorf("failed to store token %q: %w", key, err)
	}
	return nil
}

// Delete removes the entry under key. Deleting a missing key is not an error.
func (r *TokenRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete token %q: %w", key, err)
	}
	return nil
}

// UpdatedAt reports when the entry under key was last written.
func (r *TokenRepository) UpdatedAt(ctx context.Context, key string) (time.Time, bool, error) {
	var updated time.Time
	err := r.db.QueryRowContext(ctx, `SELECT updated_at FROM tokens WHERE key = ?`, key).Scan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read token timestamp: %w", err)
	}
	return updated, true, nil
}
