package compose

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailcompose/internal/recipient"
	"github.com/nhle/mailcompose/internal/theme"
)

// View renders the compose view.
func (m Model) View() string {
	if m.dialog != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			theme.PanelStyle.Render(m.dialog.form.View()))
	}

	var lines []string
	lines = append(lines, m.renderFrom())

	list := m.session.Recipients()
	for _, r := range list.VisibleRows() {
		lines = append(lines, m.renderRow(r))
	}
	if more := m.renderOverflow(list.Overflow()); more != "" {
		lines = append(lines, more)
	}

	subjLabel := theme.RowLabelStyle
	if m.field == fieldSubject {
		subjLabel = theme.FocusedRowLabelStyle
	}
	lines = append(lines,
		lipgloss.JoinHorizontal(lipgloss.Top,
			subjLabel.Render(m.tr.T("RowSubject")+":"),
			m.subject.View(),
		),
		"",
		m.body.View(),
	)

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderFrom() string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		theme.RowLabelStyle.Render(m.tr.T("RowFrom")+":"),
		m.session.Identity().From(),
	)
}

func (m Model) renderRow(r *recipient.Row) string {
	f := m.session.Recipients().Focus()
	focused := m.field == fieldRecipients && f.Kind == r.Kind()

	label := theme.RowLabelStyle
	if focused {
		label = theme.FocusedRowLabelStyle
	}

	parts := []string{label.Render(m.tr.RowLabel(r.Kind()) + ":")}
	for _, p := range r.Pills() {
		parts = append(parts, pillStyle(r.Kind(), p, focused && f.Pill == p).Render(p.Label))
	}

	switch {
	case focused && f.OnInput():
		parts = append(parts, m.input.View())
	case r.Input() != "":
		parts = append(parts, theme.InvalidStyle.Render(r.Input()))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func pillStyle(kind recipient.Kind, p *recipient.Pill, focused bool) lipgloss.Style {
	switch {
	case focused:
		return theme.FocusedPillStyle
	case p.Selected:
		return theme.SelectedPillStyle
	case kind.IsMail() && !recipient.IsValidAddress(p.FullAddress):
		return theme.ListPillStyle
	default:
		return theme.PillStyle
	}
}

func (m Model) renderOverflow(kinds []recipient.Kind) string {
	if len(kinds) == 0 {
		return ""
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = m.tr.RowLabel(k)
	}
	return theme.OverflowStyle.Render(m.tr.T("MoreRecipients") + " " + strings.Join(names, " · "))
}
