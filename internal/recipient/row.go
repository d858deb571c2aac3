package recipient

import "github.com/google/uuid"

// Pill is one resolved recipient shown inside a row.
type Pill struct {
	ID          string
	Label       string
	FullAddress string
	Selected    bool

	row *Row
}

func newPill(addr Address) *Pill {
	return &Pill{
		ID:          uuid.New().String(),
		Label:       addr.Label,
		FullAddress: addr.Full,
	}
}

// Row returns the row currently holding the pill, or nil once the pill
// has been removed.
func (p *Pill) Row() *Row { return p.row }

// Kind returns the kind of the owning row, or "" for a detached pill.
func (p *Pill) Kind() Kind {
	if p.row == nil {
		return ""
	}
	return p.row.kind
}

// RowState is the visibility state of a row.
type RowState int

const (
	StateHidden RowState = iota
	StateVisibleEmpty
	StateVisiblePopulated
)

func (s RowState) String() string {
	switch s {
	case StateHidden:
		return "hidden"
	case StateVisibleEmpty:
		return "visible-empty"
	case StateVisiblePopulated:
		return "visible-populated"
	default:
		return "unknown"
	}
}

// Row is one addressing field. Rows are created with the list and only
// ever hidden or shown.
type Row struct {
	kind     Kind
	pills    []*Pill
	input    string
	hidden   bool
	edited   bool
	closable bool

	// inputFocused drives the focused styling of the row's text input.
	inputFocused bool

	// ariaLabel is the accessible summary, recomputed on every change.
	ariaLabel string
}

func (r *Row) Kind() Kind         { return r.kind }
func (r *Row) Len() int           { return len(r.pills) }
func (r *Row) Hidden() bool       { return r.hidden }
func (r *Row) Edited() bool       { return r.edited }
func (r *Row) Closable() bool     { return r.closable }
func (r *Row) Input() string      { return r.input }
func (r *Row) InputFocused() bool { return r.inputFocused }
func (r *Row) AriaLabel() string  { return r.ariaLabel }

// Pills returns the row's pills in display order. The slice is a copy;
// the pills are shared.
func (r *Row) Pills() []*Pill {
	out := make([]*Pill, len(r.pills))
	copy(out, r.pills)
	return out
}

// Pill returns the pill at index i.
func (r *Row) Pill(i int) (*Pill, bool) {
	if i < 0 || i >= len(r.pills) {
		return nil, false
	}
	return r.pills[i], true
}

// State derives the visibility state from the row contents.
func (r *Row) State() RowState {
	switch {
	case r.hidden:
		return StateHidden
	case len(r.pills) == 0:
		return StateVisibleEmpty
	default:
		return StateVisiblePopulated
	}
}

func (r *Row) indexOf(p *Pill) int {
	for i, q := range r.pills {
		if q == p {
			return i
		}
	}
	return -1
}

func (r *Row) appendPill(p *Pill) {
	p.row = r
	r.pills = append(r.pills, p)
}

func (r *Row) removeAt(i int) *Pill {
	p := r.pills[i]
	r.pills = append(r.pills[:i], r.pills[i+1:]...)
	p.row = nil
	p.Selected = false
	return p
}
