package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/mailcompose/internal/model"
)

// SaveDraft inserts or replaces a draft. A UUID is generated when the
// draft has no ID yet, and ID and timestamps are written back to d.
func (s *SQLiteStore) SaveDraft(ctx context.Context, d *model.Draft) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	headers, err := json.Marshal(d.Headers)
	if err != nil {
		return fmt.Errorf("marshaling headers for draft %s: %w", d.ID, err)
	}
	rows, err := json.Marshal(d.Rows)
	if err != nil {
		return fmt.Errorf("marshaling rows for draft %s: %w", d.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO drafts (
			id, identity_id, subject, body, news_mode,
			headers, visible_rows, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			identity_id = excluded.identity_id,
			subject = excluded.subject,
			body = excluded.body,
			news_mode = excluded.news_mode,
			headers = excluded.headers,
			visible_rows = excluded.visible_rows,
			updated_at = excluded.updated_at`,
		d.ID, d.IdentityID, d.Subject, d.Body, boolToInt(d.NewsMode),
		string(headers), string(rows), d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving draft %s: %w", d.ID, err)
	}
	return nil
}

// GetDraft retrieves a single draft by ID.
func (s *SQLiteStore) GetDraft(ctx context.Context, id string) (*model.Draft, error) {
	row := s.db.QueryRowxContext(ctx, `
		SELECT id, identity_id, subject, body, news_mode,
		       headers, visible_rows, created_at, updated_at
		FROM drafts WHERE id = ?`, id)

	d, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("draft %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting draft %s: %w", id, err)
	}
	return &d, nil
}

// GetDrafts retrieves all drafts, most recently updated first.
func (s *SQLiteStore) GetDrafts(ctx context.Context) ([]model.Draft, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, identity_id, subject, body, news_mode,
		       headers, visible_rows, created_at, updated_at
		FROM drafts ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying drafts: %w", err)
	}
	defer rows.Close()

	var drafts []model.Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning draft row: %w", err)
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

// DeleteDraft removes a draft, typically after the message was sent.
func (s *SQLiteStore) DeleteDraft(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM drafts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting draft %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("draft %s: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDraft(row scanner) (model.Draft, error) {
	var (
		d        model.Draft
		newsMode int
		headers  string
		visible  string
	)
	if err := row.Scan(
		&d.ID, &d.IdentityID, &d.Subject, &d.Body, &newsMode,
		&headers, &visible, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return model.Draft{}, err
	}
	d.NewsMode = newsMode != 0

	if err := json.Unmarshal([]byte(headers), &d.Headers); err != nil {
		return model.Draft{}, fmt.Errorf("unmarshaling headers of draft %s: %w", d.ID, err)
	}
	if err := json.Unmarshal([]byte(visible), &d.Rows); err != nil {
		return model.Draft{}, fmt.Errorf("unmarshaling rows of draft %s: %w", d.ID, err)
	}
	return d, nil
}
