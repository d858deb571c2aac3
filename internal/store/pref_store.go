package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Preference keys written by the UI.
const (
	PrefLastIdentity = "compose.last_identity"
	PrefLastDraft    = "compose.last_draft"
)

// GetPref returns a stored UI preference.
func (s *SQLiteStore) GetPref(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM prefs WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("pref %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("getting pref %s: %w", key, err)
	}
	return value, nil
}

// SetPref stores a UI preference, replacing any previous value.
func (s *SQLiteStore) SetPref(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prefs (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("setting pref %s: %w", key, err)
	}
	return nil
}
