package abook

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mailcompose/internal/addressbook"
	"github.com/nhle/mailcompose/internal/keys"
	"github.com/nhle/mailcompose/internal/model"
	"github.com/nhle/mailcompose/tests/testutil"
)

func newLoadedModel(t *testing.T) Model {
	t.Helper()
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	testutil.SeedAddressBook(t, s,
		[]model.Contact{{Name: "Ann", Email: "ann@x.test"}},
		model.MailingList{Name: "Team", Members: []string{"ann@x.test"}},
	)
	book := addressbook.New(s)
	if err := book.Reload(ctx); err != nil {
		t.Fatalf("reloading book: %v", err)
	}

	m := New(s, book, keys.DefaultKeyMap(), 80, 24)
	m, _ = m.Update(m.Init()())
	return m
}

func press(m Model, k tea.KeyMsg) (Model, tea.Msg) {
	m, cmd := m.Update(k)
	if cmd == nil {
		return m, nil
	}
	return m, cmd()
}

func TestLoadListsFirst(t *testing.T) {
	m := newLoadedModel(t)

	if len(m.entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(m.entries))
	}
	if !m.entries[0].IsList() || m.entries[0].GetTitle() != "Team" {
		t.Errorf("first entry = %q, want list Team", m.entries[0].GetTitle())
	}
	if m.entries[1].Address() != "Ann <ann@x.test>" {
		t.Errorf("second entry address = %q", m.entries[1].Address())
	}
}

func TestSelectPicksAddress(t *testing.T) {
	m := newLoadedModel(t)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	_, msg := press(m, tea.KeyMsg{Type: tea.KeyEnter})

	picked, ok := msg.(PickedMsg)
	if !ok {
		t.Fatalf("got %T, want PickedMsg", msg)
	}
	if picked.Address != "Ann <ann@x.test>" {
		t.Errorf("picked %q", picked.Address)
	}
}

func TestNavigationWraps(t *testing.T) {
	m := newLoadedModel(t)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyUp})
	if m.selectedIdx != 1 {
		t.Errorf("selectedIdx = %d, want 1", m.selectedIdx)
	}
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	if m.selectedIdx != 0 {
		t.Errorf("selectedIdx = %d, want 0", m.selectedIdx)
	}
}

func TestBackCloses(t *testing.T) {
	m := newLoadedModel(t)

	_, msg := press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if _, ok := msg.(CloseMsg); !ok {
		t.Fatalf("got %T, want CloseMsg", msg)
	}
}

func TestSaveContactCreatesAndReports(t *testing.T) {
	m := newLoadedModel(t)
	m.fb.name = "Bob"
	m.fb.email = " bob@x.test "

	msg := m.saveContact()()
	m, cmd := m.Update(msg)
	if cmd == nil {
		t.Fatal("expected ChangedMsg command")
	}
	if _, ok := cmd().(ChangedMsg); !ok {
		t.Fatal("expected ChangedMsg")
	}

	m, _ = m.Update(m.Reload()())
	if len(m.entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(m.entries))
	}
}

func TestEditKeepsListID(t *testing.T) {
	m := newLoadedModel(t)
	list := m.entries[0].(model.MailingList)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'e'}})
	if m.mode != modeListForm {
		t.Fatalf("mode = %d, want list form", m.mode)
	}
	if m.fb.members != "ann@x.test" {
		t.Errorf("members = %q", m.fb.members)
	}

	m.fb.members = "ann@x.test, bob@x.test"
	if msg := m.saveList()(); msg.(savedMsg).err != nil {
		t.Fatalf("saving list: %v", msg.(savedMsg).err)
	}

	got, err := m.store.(interface {
		GetMailingListByName(ctx context.Context, name string) (*model.MailingList, error)
	}).GetMailingListByName(context.Background(), "team")
	if err != nil {
		t.Fatalf("getting list: %v", err)
	}
	if got.ID != list.ID || len(got.Members) != 2 {
		t.Errorf("got %+v", got)
	}
}

func TestDeleteEntry(t *testing.T) {
	m := newLoadedModel(t)

	msg := m.deleteEntry(m.entries[1])()
	if err := msg.(deletedMsg).err; err != nil {
		t.Fatalf("deleting: %v", err)
	}
	m, _ = m.Update(msg)
	m, _ = m.Update(m.Reload()())
	if len(m.entries) != 1 {
		t.Errorf("got %d entries, want 1", len(m.entries))
	}
}

func TestValidateListName(t *testing.T) {
	for _, name := range []string{"", "a@b", "x,y"} {
		if validateListName(name) == nil {
			t.Errorf("validateListName(%q) = nil, want error", name)
		}
	}
	if err := validateListName("Team"); err != nil {
		t.Errorf("validateListName(Team) = %v", err)
	}
}
