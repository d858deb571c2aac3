// Package abook is the address book manager: contacts and mailing
// lists, with a shortcut to drop an entry into the compose window.
package abook

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailcompose/internal/keys"
	"github.com/nhle/mailcompose/internal/model"
	"github.com/nhle/mailcompose/internal/recipient"
	"github.com/nhle/mailcompose/internal/theme"
)

// CloseMsg signals the parent to close the address book.
type CloseMsg struct{}

// ChangedMsg signals that contacts or lists were modified.
type ChangedMsg struct{}

// PickedMsg carries an entry the user chose to address.
type PickedMsg struct {
	Address string
}

// Store is the part of the store the address book edits.
type Store interface {
	CreateContact(ctx context.Context, c model.Contact) error
	UpdateContact(ctx context.Context, c model.Contact) error
	DeleteContact(ctx context.Context, id string) error
	CreateMailingList(ctx context.Context, l model.MailingList) error
	UpdateMailingList(ctx context.Context, l model.MailingList) error
	DeleteMailingList(ctx context.Context, id string) error
}

// Entries lists the address book.
type Entries interface {
	Entries(ctx context.Context) ([]model.AddressEntry, error)
}

type mode int

const (
	modeList mode = iota
	modeContactForm
	modeListForm
	modeConfirmDelete
)

// formBindings holds form values on the heap so that huh's Value
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	name        string
	email       string
	nickname    string
	description string
	members     string
	confirm     bool
}

type entriesLoadedMsg struct {
	entries []model.AddressEntry
	err     error
}

type savedMsg struct{ err error }
type deletedMsg struct{ err error }

// Model is the Bubble Tea model for the address book.
type Model struct {
	mode        mode
	store       Store
	book        Entries
	keys        *keys.KeyMap
	entries     []model.AddressEntry
	selectedIdx int
	editing     model.AddressEntry
	form        *huh.Form
	fb          *formBindings
	statusMsg   string
	width       int
	height      int
}

// New creates a new address book model.
func New(s Store, book Entries, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:   modeList,
		store:  s,
		book:   book,
		keys:   k,
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Init loads the entries.
func (m Model) Init() tea.Cmd {
	return m.loadEntries()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case entriesLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.entries = msg.entries
		if m.selectedIdx >= len(m.entries) && m.selectedIdx > 0 {
			m.selectedIdx = len(m.entries) - 1
		}
		return m, nil

	case savedMsg:
		m.mode = modeList
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.statusMsg = "Saved"
		return m, func() tea.Msg { return ChangedMsg{} }

	case deletedMsg:
		m.mode = modeList
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.statusMsg = "Deleted"
		return m, func() tea.Msg { return ChangedMsg{} }

	case tea.KeyMsg:
		if m.mode == modeList {
			return m.handleListKey(msg)
		}
		if key.Matches(msg, m.keys.Back) {
			m.mode = modeList
			return m, nil
		}
	}

	return m.updateForm(msg)
}

// Reload refreshes the entries, after ChangedMsg reloaded the book.
func (m Model) Reload() tea.Cmd {
	return m.loadEntries()
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.entries) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.entries)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.entries) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.entries) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		e, ok := m.selected()
		if !ok {
			return m, nil
		}
		addr := e.Address()
		return m, func() tea.Msg { return PickedMsg{Address: addr} }

	case key.Matches(msg, m.keys.New):
		m.editing = nil
		*m.fb = formBindings{}
		m.form = m.buildContactForm()
		m.mode = modeContactForm
		return m, m.form.Init()

	case msg.String() == "l":
		m.editing = nil
		*m.fb = formBindings{}
		m.form = m.buildListForm()
		m.mode = modeListForm
		return m, m.form.Init()

	case msg.String() == "e":
		e, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.editing = e
		*m.fb = formBindings{}
		switch v := e.(type) {
		case model.Contact:
			m.fb.name, m.fb.email, m.fb.nickname = v.Name, v.Email, v.Nickname
			m.form = m.buildContactForm()
			m.mode = modeContactForm
		case model.MailingList:
			m.fb.name, m.fb.description = v.Name, v.Description
			m.fb.members = strings.Join(v.Members, ", ")
			m.form = m.buildListForm()
			m.mode = modeListForm
		default:
			return m, nil
		}
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Delete):
		e, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.editing = e
		m.fb.confirm = false
		m.form = m.buildConfirmForm(e)
		m.mode = modeConfirmDelete
		return m, m.form.Init()
	}
	return m, nil
}

func (m Model) selected() (model.AddressEntry, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.entries) {
		return nil, false
	}
	return m.entries[m.selectedIdx], true
}

func (m Model) buildContactForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&m.fb.name),
			huh.NewInput().
				Title("Email").
				Placeholder("someone@example.com").
				Value(&m.fb.email).
				Validate(validateEmail),
			huh.NewInput().
				Title("Nickname").
				Placeholder("Optional").
				Value(&m.fb.nickname),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildListForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("Team").
				Value(&m.fb.name).
				Validate(validateListName),
			huh.NewInput().
				Title("Description").
				Value(&m.fb.description),
			huh.NewText().
				Title("Members").
				Placeholder("ann@example.com, Bob <bob@example.com>, OtherList").
				Value(&m.fb.members),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildConfirmForm(e model.AddressEntry) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q?", e.GetTitle())).
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.mode == modeList {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		switch m.mode {
		case modeContactForm:
			return m, m.saveContact()
		case modeListForm:
			return m, m.saveList()
		case modeConfirmDelete:
			if m.fb.confirm {
				return m, m.deleteEntry(m.editing)
			}
		}
		m.mode = modeList
		return m, nil
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

// View renders the address book.
func (m Model) View() string {
	if m.mode != modeList && m.form != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Address Book"))
	b.WriteString("\n\n")

	if len(m.entries) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("No contacts yet. Press 'n' to add one or 'l' for a list."))
	} else {
		descStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
		for i, e := range m.entries {
			icon := "  "
			if e.IsList() {
				icon = "≡ "
			}
			label := icon + e.GetTitle() + "  " + descStyle.Render(e.GetDescription())

			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(label))
			} else {
				b.WriteString(theme.ListItemStyle.Render(label))
			}
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"enter address | n new contact | l new list | e edit | d delete | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func (m Model) loadEntries() tea.Cmd {
	book := m.book
	return func() tea.Msg {
		entries, err := book.Entries(context.Background())
		return entriesLoadedMsg{entries: entries, err: err}
	}
}

func (m Model) saveContact() tea.Cmd {
	s := m.store
	fb := *m.fb
	existing, isEdit := m.editing.(model.Contact)
	return func() tea.Msg {
		c := model.Contact{
			Name:     strings.TrimSpace(fb.name),
			Email:    strings.TrimSpace(fb.email),
			Nickname: strings.TrimSpace(fb.nickname),
		}
		if !isEdit {
			return savedMsg{err: s.CreateContact(context.Background(), c)}
		}
		c.ID = existing.ID
		c.UseCount = existing.UseCount
		c.LastUsedAt = existing.LastUsedAt
		return savedMsg{err: s.UpdateContact(context.Background(), c)}
	}
}

func (m Model) saveList() tea.Cmd {
	s := m.store
	fb := *m.fb
	existing, isEdit := m.editing.(model.MailingList)
	return func() tea.Msg {
		l := model.MailingList{
			Name:        strings.TrimSpace(fb.name),
			Description: strings.TrimSpace(fb.description),
			Members:     recipient.SplitAddresses(fb.members),
		}
		if !isEdit {
			return savedMsg{err: s.CreateMailingList(context.Background(), l)}
		}
		l.ID = existing.ID
		return savedMsg{err: s.UpdateMailingList(context.Background(), l)}
	}
}

func (m Model) deleteEntry(e model.AddressEntry) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		if e.IsList() {
			return deletedMsg{err: s.DeleteMailingList(context.Background(), e.GetID())}
		}
		return deletedMsg{err: s.DeleteContact(context.Background(), e.GetID())}
	}
}

func validateEmail(s string) error {
	if !recipient.IsValidAddress(strings.TrimSpace(s)) {
		return fmt.Errorf("not a valid address")
	}
	return nil
}

func validateListName(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(s, `@,;<>"`) {
		return fmt.Errorf("list names cannot contain @ , ; < > or quotes")
	}
	return nil
}
