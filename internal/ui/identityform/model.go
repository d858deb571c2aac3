// Package identityform lets the user pick the sending identity and,
// optionally, store its password in the system keyring.
package identityform

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailcompose/internal/model"
	"github.com/nhle/mailcompose/internal/theme"
)

// SelectedMsg is dispatched when the user confirms an identity.
// Password is empty unless the user typed a new one.
type SelectedMsg struct {
	Identity model.Identity
	Password string
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	identityID string
	password   string
}

// Model is the Bubble Tea model for the identity picker.
type Model struct {
	form       *huh.Form
	fb         *formBindings
	identities []model.Identity
	width      int
	height     int
}

// New creates a new identity picker.
func New(identities []model.Identity, width, height int) Model {
	return Model{
		fb:         &formBindings{},
		identities: identities,
		width:      width,
		height:     height,
	}
}

// Start opens the form with current preselected.
func (m *Model) Start(current string) tea.Cmd {
	m.fb.identityID = current
	m.fb.password = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("Sending Identity") + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	opts := make([]huh.Option[string], len(m.identities))
	for i, id := range m.identities {
		opts[i] = huh.NewOption(optionLabel(id), id.ID)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("From").
				Options(opts...).
				Value(&m.fb.identityID),
			huh.NewInput().
				Title("Password").
				Description("Stored in the system keyring. Leave empty to keep the current one.").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func optionLabel(id model.Identity) string {
	label := id.From()
	if id.News {
		label += " (news)"
	}
	return label
}

func (m Model) handleSubmit() tea.Cmd {
	for _, id := range m.identities {
		if id.ID == m.fb.identityID {
			sel := SelectedMsg{Identity: id, Password: m.fb.password}
			return func() tea.Msg { return sel }
		}
	}
	// The select only offers configured identities.
	return func() tea.Msg { return CancelMsg{} }
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
