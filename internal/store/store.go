package store

import (
	"context"
	"errors"

	"github.com/nhle/mailcompose/internal/model"
)

// ErrNotFound is returned (wrapped) when a lookup by ID, name or key
// matches nothing.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface for the address book, saved
// drafts and UI preferences.
type Store interface {
	// === Contacts ===

	CreateContact(ctx context.Context, c model.Contact) error
	UpdateContact(ctx context.Context, c model.Contact) error
	DeleteContact(ctx context.Context, id string) error
	GetContacts(ctx context.Context) ([]model.Contact, error)
	SearchContacts(ctx context.Context, prefix string, limit int) ([]model.Contact, error)
	RecordContactUse(ctx context.Context, used []model.Contact) error

	// === Mailing lists ===

	CreateMailingList(ctx context.Context, list model.MailingList) error
	UpdateMailingList(ctx context.Context, list model.MailingList) error
	DeleteMailingList(ctx context.Context, id string) error
	GetMailingLists(ctx context.Context) ([]model.MailingList, error)
	GetMailingListByName(ctx context.Context, name string) (*model.MailingList, error)

	// === Drafts ===

	SaveDraft(ctx context.Context, d *model.Draft) error
	GetDraft(ctx context.Context, id string) (*model.Draft, error)
	GetDrafts(ctx context.Context) ([]model.Draft, error)
	DeleteDraft(ctx context.Context, id string) error

	// === Preferences ===

	GetPref(ctx context.Context, key string) (string, error)
	SetPref(ctx context.Context, key, value string) error
}
