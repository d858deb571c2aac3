package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailcompose/internal/keys"
	"github.com/nhle/mailcompose/internal/theme"
	"github.com/nhle/mailcompose/internal/ui/command"
)

// rowKeys documents the keys handled inside a recipient row. They are
// not bindings of the key map.
var rowKeys = [][2]string{
	{",", "turn the typed address into a recipient"},
	{"enter", "commit typed text, or edit the focused recipient"},
	{"backspace/home", "focus the first recipient, or close an empty row"},
	{"left/end", "focus the last recipient"},
	{"ctrl+a", "select every recipient of the row"},
	{"delete", "remove the focused or selected recipients"},
	{"esc", "back to typing"},
}

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorBlue).
		MarginTop(1)
	keyStyle := lipgloss.NewStyle().
		Foreground(theme.ColorWhite).
		Width(18)
	descStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)

	m.help.Width = m.width - 4
	m.help.ShowAll = true

	var rows []string
	for _, rk := range rowKeys {
		rows = append(rows, keyStyle.Render(rk[0])+descStyle.Render(rk[1]))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Keyboard Shortcuts"),
		m.help.View(m.keys),
		sectionStyle.Render("Recipient rows"),
		strings.Join(rows, "\n"),
		sectionStyle.Render("Commands"),
		descStyle.Render(strings.Join(command.Names(), " · ")),
	)

	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
