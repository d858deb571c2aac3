// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/nhle/mailcompose/internal/model"
	"github.com/nhle/mailcompose/internal/store"
)

// NewTestStore opens an in-memory SQLiteStore with every migration
// applied. The store is closed when the test ends.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})
	return s
}

// SeedAddressBook stores contacts and mailing lists in s and fails the
// test on the first error.
func SeedAddressBook(t *testing.T, s store.Store, contacts []model.Contact, lists ...model.MailingList) {
	t.Helper()
	ctx := context.Background()

	for _, c := range contacts {
		if err := s.CreateContact(ctx, c); err != nil {
			t.Fatalf("seeding contact %s: %v", c.Email, err)
		}
	}
	for _, l := range lists {
		if err := s.CreateMailingList(ctx, l); err != nil {
			t.Fatalf("seeding mailing list %s: %v", l.Name, err)
		}
	}
}
