package compose

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mailcompose/internal/recipient"
)

// recipientKey translates a terminal key event into the key model of
// the recipient navigator. pos is the textinput cursor in runes; the
// navigator works on byte offsets.
func recipientKey(msg tea.KeyMsg, value string, pos int) recipient.Key {
	k := recipient.Key{
		Alt:    msg.Alt,
		Cursor: byteOffset(value, pos),
	}
	if msg.Paste {
		k.Name = "paste"
		return k
	}

	name := strings.TrimPrefix(msg.String(), "alt+")
	for {
		switch {
		case len(name) > len("ctrl+") && strings.HasPrefix(name, "ctrl+"):
			k.Ctrl = true
			name = name[len("ctrl+"):]
			continue
		case len(name) > len("shift+") && strings.HasPrefix(name, "shift+"):
			k.Shift = true
			name = name[len("shift+"):]
			continue
		}
		break
	}
	k.Name = name
	return k
}

func byteOffset(value string, pos int) int {
	if pos <= 0 {
		return 0
	}
	runes := []rune(value)
	if pos > len(runes) {
		pos = len(runes)
	}
	return len(string(runes[:pos]))
}

// hideDirection is the focus direction of a row hidden by k.
func hideDirection(k recipient.Key) recipient.Direction {
	if k.Name == "backspace" || k.Name == "home" || k.Name == "left" {
		return recipient.DirPrevious
	}
	return recipient.DirNext
}
