package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/mailcompose/internal/model"
)

// CreateContact inserts a new contact. Generates a UUID if ID is empty.
func (s *SQLiteStore) CreateContact(ctx context.Context, c model.Contact) error {
	if strings.TrimSpace(c.Email) == "" {
		return fmt.Errorf("contact email must not be empty")
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contacts (id, name, email, nickname, use_count, created_at, last_used_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, strings.TrimSpace(c.Name), strings.TrimSpace(c.Email), c.Nickname,
		c.UseCount, c.CreatedAt, c.LastUsedAt,
	)
	if err != nil {
		return fmt.Errorf("creating contact %s: %w", c.Email, err)
	}
	return nil
}

// UpdateContact updates a contact's name, email and nickname.
func (s *SQLiteStore) UpdateContact(ctx context.Context, c model.Contact) error {
	if strings.TrimSpace(c.Email) == "" {
		return fmt.Errorf("contact email must not be empty")
	}
	result, err := s.db.ExecContext(ctx,
		"UPDATE contacts SET name = ?, email = ?, nickname = ? WHERE id = ?",
		strings.TrimSpace(c.Name), strings.TrimSpace(c.Email), c.Nickname, c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating contact %s: %w", c.ID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("contact %s: %w", c.ID, ErrNotFound)
	}
	return nil
}

// DeleteContact removes a contact.
func (s *SQLiteStore) DeleteContact(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM contacts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting contact %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("contact %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetContacts retrieves all contacts, most used first.
func (s *SQLiteStore) GetContacts(ctx context.Context) ([]model.Contact, error) {
	var contacts []model.Contact
	err := s.db.SelectContext(ctx, &contacts, `
		SELECT id, name, email, nickname, use_count, created_at, last_used_at
		FROM contacts
		ORDER BY use_count DESC, name COLLATE NOCASE, email COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("querying contacts: %w", err)
	}
	return contacts, nil
}

// SearchContacts returns contacts whose name, nickname or email starts
// with prefix, most used first. A limit of zero or less means no limit.
func (s *SQLiteStore) SearchContacts(
	ctx context.Context,
	prefix string,
	limit int,
) ([]model.Contact, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = -1
	}

	pattern := likePrefix(prefix)
	var contacts []model.Contact
	err := s.db.SelectContext(ctx, &contacts, `
		SELECT id, name, email, nickname, use_count, created_at, last_used_at
		FROM contacts
		WHERE name LIKE ? ESCAPE '\'
		   OR nickname LIKE ? ESCAPE '\'
		   OR email LIKE ? ESCAPE '\'
		ORDER BY use_count DESC, name COLLATE NOCASE, email COLLATE NOCASE
		LIMIT ?`,
		pattern, pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching contacts for %q: %w", prefix, err)
	}
	return contacts, nil
}

// RecordContactUse bumps the use count of every contact an outgoing
// message was addressed to. Unknown addresses are collected as new
// contacts.
func (s *SQLiteStore) RecordContactUse(ctx context.Context, used []model.Contact) error {
	if len(used) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, c := range used {
		email := strings.TrimSpace(c.Email)
		if email == "" {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO contacts (id, name, email, nickname, use_count, created_at, last_used_at)
			VALUES (?, ?, ?, '', 1, ?, ?)
			ON CONFLICT(email) DO UPDATE SET
				use_count = use_count + 1,
				last_used_at = excluded.last_used_at,
				name = CASE WHEN contacts.name = '' THEN excluded.name ELSE contacts.name END`,
			uuid.New().String(), strings.TrimSpace(c.Name), email, now, now,
		)
		if err != nil {
			return fmt.Errorf("recording use of %s: %w", email, err)
		}
	}

	return tx.Commit()
}
