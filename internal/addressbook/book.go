// Package addressbook serves contacts and mailing lists to the composer:
// mailing list lookups for the resolver, completions for row inputs and
// list expansion for the mailer.
package addressbook

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/nhle/mailcompose/internal/model"
)

// Source is the slice of the store the address book reads from.
type Source interface {
	GetContacts(ctx context.Context) ([]model.Contact, error)
	SearchContacts(ctx context.Context, prefix string, limit int) ([]model.Contact, error)
	GetMailingLists(ctx context.Context) ([]model.MailingList, error)
}

// Book caches the mailing lists of the store. It is safe for concurrent
// use: Reload runs from background commands while the UI resolves.
type Book struct {
	src Source

	mu    sync.RWMutex
	lists map[string]model.MailingList
}

// New creates an empty book. Call Reload to populate it.
func New(src Source) *Book {
	return &Book{src: src, lists: make(map[string]model.MailingList)}
}

// Reload refreshes the mailing list cache from the store.
func (b *Book) Reload(ctx context.Context) error {
	lists, err := b.src.GetMailingLists(ctx)
	if err != nil {
		return fmt.Errorf("loading mailing lists: %w", err)
	}

	m := make(map[string]model.MailingList, len(lists))
	for _, l := range lists {
		m[strings.ToLower(l.Name)] = l
	}

	b.mu.Lock()
	b.lists = m
	b.mu.Unlock()
	return nil
}

// IsMailingList reports whether name is a known list. Names compare
// case-insensitively.
func (b *Book) IsMailingList(name string) bool {
	_, ok := b.list(name)
	return ok
}

// Members returns the member addresses of a list.
func (b *Book) Members(name string) ([]string, bool) {
	l, ok := b.list(name)
	if !ok {
		return nil, false
	}
	out := make([]string, len(l.Members))
	copy(out, l.Members)
	return out, true
}

func (b *Book) list(name string) (model.MailingList, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	l, ok := b.lists[strings.ToLower(strings.TrimSpace(name))]
	return l, ok
}

// Lists returns the cached lists ordered by name.
func (b *Book) Lists() []model.MailingList {
	b.mu.RLock()
	out := make([]model.MailingList, 0, len(b.lists))
	for _, l := range b.lists {
		out = append(out, l)
	}
	b.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Entries returns every contact and list for the address book view,
// lists first.
func (b *Book) Entries(ctx context.Context) ([]model.AddressEntry, error) {
	contacts, err := b.src.GetContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading contacts: %w", err)
	}

	var out []model.AddressEntry
	for _, l := range b.Lists() {
		out = append(out, l)
	}
	for _, c := range contacts {
		out = append(out, c)
	}
	return out, nil
}

// Suggest returns completions for the text typed in a row input. Each
// suggestion starts with the typed text (ignoring case) so it can be
// offered as an inline completion.
func (b *Book) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, nil
	}
	lower := strings.ToLower(prefix)

	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		if s == "" || seen[s] || !strings.HasPrefix(strings.ToLower(s), lower) {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	for _, l := range b.Lists() {
		add(l.Name)
	}

	contacts, err := b.src.SearchContacts(ctx, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("suggesting contacts: %w", err)
	}
	for _, c := range contacts {
		if strings.HasPrefix(strings.ToLower(c.Mailbox()), lower) {
			add(c.Mailbox())
		} else {
			add(c.Email)
		}
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
