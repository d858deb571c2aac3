package autosave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nhle/mailcompose/internal/model"
	"github.com/nhle/mailcompose/internal/store"
	"github.com/nhle/mailcompose/tests/testutil"
)

type failingStore struct {
	mu    sync.Mutex
	calls int
}

func (f *failingStore) SaveDraft(context.Context, *model.Draft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return errors.New("disk full")
}

func (f *failingStore) DeleteDraft(context.Context, string) error { return nil }

func TestSaverPersistsQueuedDraft(t *testing.T) {
	st := testutil.NewTestStore(t)
	s := New(st, time.Hour)
	wait := s.Start()
	if wait == nil {
		t.Fatal("Start returned nil command")
	}
	defer s.Stop()

	s.Save(model.Draft{ID: "d1", Subject: "hello"})

	msg, ok := wait().(SavedMsg)
	if !ok {
		t.Fatalf("expected SavedMsg, got %T", msg)
	}
	if msg.Err != nil || msg.DraftID != "d1" {
		t.Fatalf("unexpected result: %+v", msg)
	}

	d, err := st.GetDraft(context.Background(), "d1")
	if err != nil {
		t.Fatalf("GetDraft: %v", err)
	}
	if d.Subject != "hello" {
		t.Errorf("subject = %q, want hello", d.Subject)
	}
	if got := s.Status(); got.State != Idle || got.LastSave.IsZero() {
		t.Errorf("status = %+v", got)
	}
}

func TestSaverReportsFailure(t *testing.T) {
	st := &failingStore{}
	s := New(st, time.Hour)
	wait := s.Start()
	defer s.Stop()

	s.Save(model.Draft{ID: "d2"})
	msg := wait().(SavedMsg)
	if msg.Err == nil {
		t.Fatal("expected error")
	}
	if s.Status().State != Failed {
		t.Errorf("state = %v, want Failed", s.Status().State)
	}
}

func TestSaverTicks(t *testing.T) {
	s := New(&failingStore{}, 10*time.Millisecond)
	wait := s.Start()
	defer s.Stop()

	if _, ok := wait().(TickMsg); !ok {
		t.Fatal("expected TickMsg")
	}
	if s.Start() != nil {
		t.Error("second Start should be a no-op")
	}
}

func TestSaveKeepsNewestSnapshot(t *testing.T) {
	s := New(&failingStore{}, time.Hour)
	s.Save(model.Draft{ID: "old"})
	s.Save(model.Draft{ID: "new"})

	if d := <-s.saveCh; d.ID != "new" {
		t.Errorf("queued %q, want new", d.ID)
	}
	s.Stop()
}

func TestDiscardDropsLaterWrites(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewTestStore(t)
	s := New(st, time.Hour)

	s.save(model.Draft{ID: "sent", Subject: "first"})
	<-s.msgCh

	if err := s.Discard(ctx, "sent"); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if _, err := st.GetDraft(ctx, "sent"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("GetDraft after Discard: err = %v, want ErrNotFound", err)
	}

	// A snapshot taken before the send lands after it.
	s.save(model.Draft{ID: "sent", Subject: "late"})
	if _, err := st.GetDraft(ctx, "sent"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("late snapshot was written: err = %v", err)
	}
	select {
	case msg := <-s.msgCh:
		t.Errorf("unexpected message %T for a discarded draft", msg)
	default:
	}

	s.save(model.Draft{ID: "other"})
	if _, err := st.GetDraft(ctx, "other"); err != nil {
		t.Errorf("other drafts still save: %v", err)
	}
}
