package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// palette holds the colors the styles are built from.
type palette struct {
	accent, ok, warn, bad, list, muted, text, subtle, border lipgloss.TerminalColor
}

var palettes = map[string]palette{
	"default": {
		accent: ColorBlue, ok: ColorGreen, warn: ColorYellow, bad: ColorRed,
		list: ColorMagenta, muted: ColorGray, text: ColorWhite,
		subtle: ColorSubtle, border: ColorBorder,
	},
	"mono": {
		accent: lipgloss.NoColor{}, ok: lipgloss.NoColor{}, warn: lipgloss.NoColor{},
		bad: lipgloss.NoColor{}, list: lipgloss.NoColor{}, muted: lipgloss.NoColor{},
		text: lipgloss.NoColor{}, subtle: lipgloss.NoColor{}, border: lipgloss.NoColor{},
	},
}

var (
	// HeaderStyle is used for the title bar.
	HeaderStyle lipgloss.Style
	// StatusBarStyle is used for the bottom status bar.
	StatusBarStyle lipgloss.Style
	// HelpStyle is used for keyboard shortcut hints and help text.
	HelpStyle lipgloss.Style
	// BorderStyle provides a standard rounded border for panels.
	BorderStyle lipgloss.Style
	// PanelStyle wraps overlay panels such as help and the palette.
	PanelStyle lipgloss.Style
	// ListItemStyle is the base style for items in a list.
	ListItemStyle lipgloss.Style
	// SelectedItemStyle highlights the focused list item.
	SelectedItemStyle lipgloss.Style

	// RowLabelStyle renders an addressing row label ("Cc:").
	RowLabelStyle lipgloss.Style
	// FocusedRowLabelStyle renders the label of the row holding focus.
	FocusedRowLabelStyle lipgloss.Style
	// PillStyle renders an address pill.
	PillStyle lipgloss.Style
	// ListPillStyle renders a mailing list pill.
	ListPillStyle lipgloss.Style
	// FocusedPillStyle renders the pill holding keyboard focus.
	FocusedPillStyle lipgloss.Style
	// SelectedPillStyle renders a selected pill.
	SelectedPillStyle lipgloss.Style
	// OverflowStyle renders the hidden-row shortcuts.
	OverflowStyle lipgloss.Style
	// InvalidStyle marks input text that did not resolve.
	InvalidStyle lipgloss.Style
)

func init() {
	apply(palettes["default"])
}

// Use switches every style to the named palette.
func Use(name string) error {
	if name == "" {
		name = "default"
	}
	p, ok := palettes[name]
	if !ok {
		return fmt.Errorf("unknown theme %q", name)
	}
	apply(p)
	return nil
}

func apply(p palette) {
	HeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.text).
		Background(p.accent).
		Padding(0, 1)
	StatusBarStyle = lipgloss.NewStyle().
		Foreground(p.text).
		Background(p.subtle).
		Padding(0, 1)
	HelpStyle = lipgloss.NewStyle().
		Foreground(p.muted).
		Italic(true)
	BorderStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.border)
	PanelStyle = lipgloss.NewStyle().
		Padding(1, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.border)
	ListItemStyle = lipgloss.NewStyle().
		PaddingLeft(2)
	SelectedItemStyle = lipgloss.NewStyle().
		PaddingLeft(1).
		Bold(true).
		Foreground(p.accent).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(p.accent)

	RowLabelStyle = lipgloss.NewStyle().
		Foreground(p.muted).
		Width(13).
		Align(lipgloss.Right).
		PaddingRight(1)
	FocusedRowLabelStyle = RowLabelStyle.
		Foreground(p.accent).
		Bold(true)
	PillStyle = lipgloss.NewStyle().
		Foreground(p.text).
		Background(p.subtle).
		Padding(0, 1).
		MarginRight(1)
	ListPillStyle = PillStyle.
		Foreground(p.list).
		Bold(true)
	FocusedPillStyle = PillStyle.
		Background(p.accent).
		Bold(true)
	SelectedPillStyle = PillStyle.
		Underline(true).
		Foreground(p.warn)
	OverflowStyle = lipgloss.NewStyle().
		Foreground(p.muted).
		PaddingLeft(14)
	InvalidStyle = lipgloss.NewStyle().
		Foreground(p.bad).
		Underline(true)
}

// StatusStyle returns a color-coded style for a status bar message level:
// "ok", "warn" or "error".
func StatusStyle(level string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch level {
	case "ok":
		return base.Foreground(ColorGreen)
	case "warn":
		return base.Foreground(ColorYellow)
	case "error":
		return base.Foreground(ColorRed)
	default:
		return base.Foreground(ColorGray)
	}
}
