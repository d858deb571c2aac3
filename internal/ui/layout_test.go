package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestContentHeight(t *testing.T) {
	if got := NewLayout(80, 24).ContentHeight(); got != 22 {
		t.Errorf("ContentHeight() = %d, want 22", got)
	}
	if got := NewLayout(80, 1).ContentHeight(); got != 0 {
		t.Errorf("ContentHeight() on a tiny terminal = %d, want 0", got)
	}
}

func TestBarsSpanWidth(t *testing.T) {
	l := NewLayout(60, 20)

	header := l.RenderHeader("mailcompose", "modified")
	if w := lipgloss.Width(header); w != 60 {
		t.Errorf("header width = %d, want 60", w)
	}
	if !strings.Contains(header, "modified") {
		t.Errorf("header %q lacks save state", header)
	}

	status := l.RenderStatusBar("f1 help", "Message sent", "info")
	if !strings.Contains(status, "Message sent") || strings.Contains(status, "f1 help") {
		t.Errorf("status bar %q should show the status instead of hints", status)
	}
	if hints := l.RenderStatusBar("f1 help", "", ""); !strings.Contains(hints, "f1 help") {
		t.Errorf("status bar %q lacks hints", hints)
	}
}
