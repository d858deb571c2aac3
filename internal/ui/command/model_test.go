package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line    string
		want    CommandMsg
		wantErr bool
	}{
		{line: "send", want: CommandMsg{Name: Send}},
		{line: "  SHOW  followup ", want: CommandMsg{Name: Show, Arg: "followup"}},
		{line: "hide X-Priority", want: CommandMsg{Name: Hide, Arg: "X-Priority"}},
		{line: "hide", wantErr: true},
		{line: "frobnicate", wantErr: true},
		{line: "   ", wantErr: true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.line)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Parse(%q) = %+v, want error", tt.line, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q) error: %v", tt.line, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.line, got, tt.want)
		}
	}
}

func TestEnterEmitsCommand(t *testing.T) {
	m := New(80, 24)
	for _, r := range "save" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if got, ok := cmd().(CommandMsg); !ok || got.Name != Save {
		t.Errorf("got %#v", cmd())
	}
	if m.input.Value() != "" {
		t.Errorf("input not reset: %q", m.input.Value())
	}
}

func TestEnterReportsBadCommand(t *testing.T) {
	m := New(80, 24)
	for _, r := range "nope" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if _, ok := cmd().(ErrorMsg); !ok {
		t.Fatal("expected ErrorMsg")
	}
}
