package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/mailcompose/internal/model"
)

// CreateMailingList inserts a new list and its members.
func (s *SQLiteStore) CreateMailingList(ctx context.Context, list model.MailingList) error {
	if err := validateListName(list.Name); err != nil {
		return err
	}
	if list.ID == "" {
		list.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	list.CreatedAt = now
	list.UpdatedAt = now

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO mailing_lists (id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		list.ID, strings.TrimSpace(list.Name), list.Description, list.CreatedAt, list.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating mailing list %s: %w", list.Name, err)
	}
	if err := setListMembers(ctx, tx, list.ID, list.Members); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateMailingList updates a list's name and description and replaces
// its members.
func (s *SQLiteStore) UpdateMailingList(ctx context.Context, list model.MailingList) error {
	if err := validateListName(list.Name); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE mailing_lists SET name = ?, description = ?, updated_at = ?
		WHERE id = ?`,
		strings.TrimSpace(list.Name), list.Description, time.Now().UTC(), list.ID,
	)
	if err != nil {
		return fmt.Errorf("updating mailing list %s: %w", list.ID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("mailing list %s: %w", list.ID, ErrNotFound)
	}
	if err := setListMembers(ctx, tx, list.ID, list.Members); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteMailingList removes a list. CASCADE on list_members removes the
// members.
func (s *SQLiteStore) DeleteMailingList(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM mailing_lists WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting mailing list %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("mailing list %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetMailingLists retrieves all lists ordered by name, with members.
func (s *SQLiteStore) GetMailingLists(ctx context.Context) ([]model.MailingList, error) {
	var lists []model.MailingList
	err := s.db.SelectContext(ctx, &lists, `
		SELECT id, name, description, created_at, updated_at
		FROM mailing_lists
		ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("querying mailing lists: %w", err)
	}

	for i := range lists {
		members, err := s.listMembers(ctx, lists[i].ID)
		if err != nil {
			return nil, err
		}
		lists[i].Members = members
	}
	return lists, nil
}

// GetMailingListByName looks a list up by its case-insensitive name.
func (s *SQLiteStore) GetMailingListByName(
	ctx context.Context,
	name string,
) (*model.MailingList, error) {
	var list model.MailingList
	err := s.db.GetContext(ctx, &list, `
		SELECT id, name, description, created_at, updated_at
		FROM mailing_lists WHERE name = ? COLLATE NOCASE`,
		strings.TrimSpace(name),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("mailing list %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting mailing list %q: %w", name, err)
	}

	list.Members, err = s.listMembers(ctx, list.ID)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

func (s *SQLiteStore) listMembers(ctx context.Context, listID string) ([]string, error) {
	var members []string
	err := s.db.SelectContext(ctx, &members,
		"SELECT address FROM list_members WHERE list_id = ? ORDER BY sort_order", listID)
	if err != nil {
		return nil, fmt.Errorf("querying members of list %s: %w", listID, err)
	}
	return members, nil
}

// setListMembers replaces all members of a list.
func setListMembers(ctx context.Context, tx *sqlx.Tx, listID string, members []string) error {
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM list_members WHERE list_id = ?", listID); err != nil {
		return fmt.Errorf("clearing list members: %w", err)
	}

	order := 0
	for _, m := range members {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO list_members (list_id, address, sort_order) VALUES (?, ?, ?)",
			listID, m, order); err != nil {
			return fmt.Errorf("adding %s to list %s: %w", m, listID, err)
		}
		order++
	}
	return nil
}

func validateListName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("mailing list name must not be empty")
	}
	if strings.ContainsAny(name, "@,;<>\"") {
		return fmt.Errorf("mailing list name %q must not contain address punctuation", name)
	}
	return nil
}
