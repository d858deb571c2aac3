package recipient

import (
	"context"
	"strings"
)

// Key is a keypress delivered to the recipients area. Name is a
// lower-case key name ("backspace", "home", "enter", ",", "a", ...).
// Cursor is the caret offset in the focused row input.
type Key struct {
	Name   string
	Ctrl   bool
	Alt    bool
	Meta   bool
	Shift  bool
	Repeat bool
	Cursor int
}

// Action tells the caller what to do after a keypress.
type Action int

const (
	// ActionIgnored means the key was not consumed and should reach the
	// text input (or the application) unchanged.
	ActionIgnored Action = iota
	// ActionHandled means the key was consumed and the list updated.
	ActionHandled
	// ActionFocusNext asks the caller to focus the field after the
	// recipients area.
	ActionFocusNext
	// ActionFocusPrevious asks the caller to focus the field before the
	// recipients area.
	ActionFocusPrevious
)

// Outcome describes the effect of a keypress.
type Outcome struct {
	Action    Action
	Committed int
	Removed   int
	HiddenRow bool
}

// Navigator applies the keyboard rules of the recipients area to a
// List.
type Navigator struct {
	list    *List
	confirm Confirmer
}

// NewNavigator creates a navigator. confirm is consulted when a key
// would hide an edited row; it may be nil.
func NewNavigator(list *List, confirm Confirmer) *Navigator {
	return &Navigator{list: list, confirm: confirm}
}

// HandleKey dispatches a key to the input or pill rules depending on
// where focus is.
func (n *Navigator) HandleKey(ctx context.Context, k Key) Outcome {
	f := n.list.Focus()
	r, ok := n.list.Row(f.Kind)
	if !ok || r.hidden {
		return Outcome{}
	}
	if f.OnInput() {
		return n.inputKey(ctx, r, k)
	}
	return n.pillKey(r, f.Pill, k)
}

// inputKey implements the rules for a keypress on a row input, in
// priority order.
func (n *Navigator) inputKey(ctx context.Context, r *Row, k Key) Outcome {
	text := r.input
	empty := strings.TrimSpace(text) == ""
	atStart := k.Cursor == 0

	switch k.Name {
	case "a":
		if (k.Ctrl || k.Meta) && text == "" && len(r.pills) > 0 {
			n.list.SelectAll(r.kind)
			last := r.pills[len(r.pills)-1]
			n.list.focus = Focus{Kind: r.kind, Pill: last}
			r.inputFocused = false
			return Outcome{Action: ActionHandled}
		}

	case " ", "space":
		if empty {
			r.input = ""
			return Outcome{Action: ActionHandled}
		}

	case "home", "backspace", "left":
		if k.Repeat || !empty || !atStart || k.Alt {
			break
		}
		if len(r.pills) > 0 {
			target := r.pills[0]
			if k.Name == "left" {
				target = r.pills[len(r.pills)-1]
			}
			n.list.FocusPill(target)
			return Outcome{Action: ActionHandled}
		}
		if k.Name == "backspace" && r.closable {
			return n.hideRow(ctx, r, DirPrevious)
		}

	case "end", "delete":
		if k.Repeat || !empty || !atStart {
			break
		}
		if len(r.pills) > 0 {
			n.list.FocusPill(r.pills[len(r.pills)-1])
			return Outcome{Action: ActionHandled}
		}
		if r.closable {
			return n.hideRow(ctx, r, DirNext)
		}

	case ",":
		if empty {
			break
		}
		cur := clampCursor(k.Cursor, text)
		prefix := text[:cur]
		if strings.HasSuffix(strings.TrimSpace(prefix), ",") {
			break
		}
		if !IsValidAddress(prefix) {
			break
		}
		return Outcome{Action: ActionHandled, Committed: n.list.Commit(r.kind)}

	case "enter":
		if k.Ctrl || k.Meta {
			break
		}
		if empty {
			r.input = ""
			return Outcome{Action: ActionFocusNext}
		}
		return Outcome{Action: ActionHandled, Committed: n.list.Commit(r.kind)}

	case "tab":
		out := Outcome{Action: ActionFocusNext}
		if !empty {
			out.Committed = n.list.Commit(r.kind)
		}
		if k.Shift && !k.Ctrl && !k.Meta {
			out.Action = ActionFocusPrevious
		}
		return out
	}

	return Outcome{}
}

// pillKey implements the rules for a keypress while a pill has focus.
func (n *Navigator) pillKey(r *Row, p *Pill, k Key) Outcome {
	idx := r.indexOf(p)
	if idx < 0 {
		n.list.FocusInput(r.kind)
		return Outcome{Action: ActionHandled}
	}

	switch k.Name {
	case "backspace", "delete":
		removed := n.list.RemoveSelected()
		if removed == 0 && n.list.Remove(p) {
			removed = 1
		}
		n.refocusAfterRemoval(r, idx, k.Name == "backspace")
		return Outcome{Action: ActionHandled, Removed: removed}

	case "left":
		if idx > 0 {
			n.list.FocusPill(r.pills[idx-1])
		}
		return Outcome{Action: ActionHandled}

	case "right":
		if idx < len(r.pills)-1 {
			n.list.FocusPill(r.pills[idx+1])
		} else {
			n.list.FocusInput(r.kind)
		}
		return Outcome{Action: ActionHandled}

	case "home":
		n.list.FocusPill(r.pills[0])
		return Outcome{Action: ActionHandled}

	case "end":
		n.list.FocusPill(r.pills[len(r.pills)-1])
		return Outcome{Action: ActionHandled}

	case "a":
		if k.Ctrl || k.Meta {
			n.list.SelectAll(r.kind)
			return Outcome{Action: ActionHandled}
		}

	case "enter":
		n.Edit(p)
		return Outcome{Action: ActionHandled}

	case "esc", "tab":
		n.list.FocusInput(r.kind)
		return Outcome{Action: ActionHandled}
	}

	// Any other key goes to the row input as typed text.
	n.list.FocusInput(r.kind)
	return Outcome{Action: ActionIgnored}
}

// Edit turns a pill back into editable text in its row input. Pending
// input is committed first so nothing typed is lost.
func (n *Navigator) Edit(p *Pill) bool {
	r := p.Row()
	if r == nil {
		return false
	}
	kind := r.kind
	n.list.Commit(kind)
	if r.input != "" {
		return false
	}
	text := p.FullAddress
	n.list.Remove(p)
	n.list.SetInput(kind, text)
	n.list.FocusInput(kind)
	return true
}

func (n *Navigator) refocusAfterRemoval(r *Row, idx int, backwards bool) {
	if len(r.pills) == 0 {
		n.list.FocusInput(r.kind)
		return
	}
	if backwards {
		idx--
	}
	switch {
	case idx < 0:
		n.list.FocusPill(r.pills[0])
	case idx >= len(r.pills):
		n.list.FocusInput(r.kind)
	default:
		n.list.FocusPill(r.pills[idx])
	}
}

func (n *Navigator) hideRow(ctx context.Context, r *Row, dir Direction) Outcome {
	hidden, landed, err := n.list.HideTowards(ctx, r.kind, n.confirm, dir)
	if err != nil || !hidden {
		return Outcome{Action: ActionHandled}
	}
	if !landed {
		if dir == DirPrevious {
			return Outcome{Action: ActionFocusPrevious, HiddenRow: true}
		}
		return Outcome{Action: ActionFocusNext, HiddenRow: true}
	}
	return Outcome{Action: ActionHandled, HiddenRow: true}
}

func clampCursor(cur int, text string) int {
	if cur < 0 {
		return 0
	}
	if cur > len(text) {
		return len(text)
	}
	return cur
}
