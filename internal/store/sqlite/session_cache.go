package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"nirog/backend/internal/store"
)

var _ store.SessionCache = (*SessionCache)(nil)

type SessionCache struct {
	db DBTX
}

func NewSessionCache(db DBTX) *SessionCache {
	return &SessionCache{db: db}
}

func (c *SessionCache) Get(ctx context.Context) (string, error) {
	var value string
	err := c.db.QueryRowContext(ctx, `SELECT value FROM session WHERE key = ?`, store.SessionEmailKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get session[%s]: %w", store.SessionEmailKey, err)
	}
	return value, nil
}

func (c *SessionCache) Set(ctx context.Context, email string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO session (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, store.SessionEmailKey, email)
	if err != nil {
		return fmt.Errorf("failed to set session[%s]: %w", store.SessionEmailKey, err)
	}
	return nil
}

func (c *SessionCache) Delete(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM session WHERE key = ?`, store.SessionEmailKey)
	if err != nil {
		return fmt.Errorf("failed to delete session[%s]: %w", store.SessionEmailKey, err)
	}
	return nil
}
