package recipient

import (
	"context"
	"fmt"
	"strings"
)

// Direction picks the neighbour that receives focus when a row is
// hidden.
type Direction int

const (
	DirNext Direction = iota
	DirPrevious
)

// Focus is the keyboard focus inside the recipients area. A nil Pill
// means the row's text input has focus.
type Focus struct {
	Kind Kind
	Pill *Pill
}

// OnInput reports whether focus is on the row input.
func (f Focus) OnInput() bool { return f.Pill == nil }

// ChangeFunc is called whenever the recipients of a row change.
// automatic is true for programmatic changes that must not count as a
// user edit of the message.
type ChangeFunc func(kind Kind, automatic bool)

// LabelFunc renders the accessible label of a row.
type LabelFunc func(kind Kind, count int) string

// Option configures a List.
type Option func(*List)

// WithChangeFunc registers a callback for recipient changes.
func WithChangeFunc(fn ChangeFunc) Option {
	return func(l *List) { l.onChange = fn }
}

// WithLabelFunc overrides the accessible label renderer.
func WithLabelFunc(fn LabelFunc) Option {
	return func(l *List) { l.label = fn }
}

// List owns every addressing row of one compose session and is the
// single source of truth the UI renders from.
type List struct {
	rows     []*Row
	byKind   map[Kind]*Row
	resolver *Resolver
	focus    Focus
	overflow []Kind
	newsMode bool
	onChange ChangeFunc
	label    LabelFunc
}

// NewList creates the fixed set of rows: the standard kinds followed by
// one row per custom header. Only the To row starts visible.
func NewList(resolver *Resolver, otherHeaders []string, opts ...Option) *List {
	if resolver == nil {
		resolver = NewResolver(nil)
	}

	l := &List{
		byKind:   make(map[Kind]*Row),
		resolver: resolver,
		label:    defaultLabel,
	}
	for _, opt := range opts {
		opt(l)
	}

	for _, k := range StandardKinds {
		l.addRow(k)
	}
	for _, h := range otherHeaders {
		if strings.TrimSpace(h) == "" {
			continue
		}
		k := OtherKind(h)
		if _, dup := l.byKind[k]; dup {
			continue
		}
		l.addRow(k)
	}

	to := l.byKind[KindTo]
	to.hidden = false
	to.closable = false
	to.inputFocused = true
	l.focus = Focus{Kind: KindTo}

	l.refresh()
	return l
}

func (l *List) addRow(k Kind) {
	r := &Row{kind: k, hidden: true, closable: true}
	l.rows = append(l.rows, r)
	l.byKind[k] = r
}

func defaultLabel(kind Kind, count int) string {
	if count == 1 {
		return fmt.Sprintf("%s: 1 recipient", kind.HeaderName())
	}
	return fmt.Sprintf("%s: %d recipients", kind.HeaderName(), count)
}

// Row returns the row for kind.
func (l *List) Row(kind Kind) (*Row, bool) {
	r, ok := l.byKind[kind]
	return r, ok
}

// Rows returns every row in display order.
func (l *List) Rows() []*Row {
	out := make([]*Row, len(l.rows))
	copy(out, l.rows)
	return out
}

// VisibleRows returns the rows that are not hidden, in display order.
func (l *List) VisibleRows() []*Row {
	var out []*Row
	for _, r := range l.rows {
		if !r.hidden {
			out = append(out, r)
		}
	}
	return out
}

// Overflow returns the kinds of hidden rows, the entries offered by the
// "more recipients" panel.
func (l *List) Overflow() []Kind {
	out := make([]Kind, len(l.overflow))
	copy(out, l.overflow)
	return out
}

// TotalPills counts pills across all rows.
func (l *List) TotalPills() int {
	n := 0
	for _, r := range l.rows {
		n += len(r.pills)
	}
	return n
}

// NewsMode reports whether the list is laid out for a news account.
func (l *List) NewsMode() bool { return l.newsMode }

// SetInput replaces the pending text of a visible row.
func (l *List) SetInput(kind Kind, text string) bool {
	r, ok := l.byKind[kind]
	if !ok || r.hidden {
		return false
	}
	r.input = text
	return true
}

// Commit resolves the pending text of a row into pills. Unresolved
// text stays in the input. It returns the number of pills created.
func (l *List) Commit(kind Kind) int {
	r, ok := l.byKind[kind]
	if !ok || r.hidden || strings.TrimSpace(r.input) == "" {
		return 0
	}

	res := l.resolver.Resolve(kind, r.input)
	r.input = res.Remainder
	return len(l.add(r, res.Addresses, false))
}

// Blur handles the row input losing focus: the text is trimmed and any
// resolvable part becomes pills.
func (l *List) Blur(kind Kind) int {
	r, ok := l.byKind[kind]
	if !ok {
		return 0
	}
	r.inputFocused = false
	r.input = strings.TrimSpace(r.input)
	if r.input == "" {
		return 0
	}
	return l.Commit(kind)
}

// Add appends pills to a row, revealing it if hidden. Unless automatic,
// the row is marked as edited.
func (l *List) Add(kind Kind, addrs []Address, automatic bool) []*Pill {
	r, ok := l.byKind[kind]
	if !ok {
		return nil
	}
	return l.add(r, addrs, automatic)
}

// AddText resolves text for a row and adds the result. Text that does
// not resolve is returned.
func (l *List) AddText(kind Kind, text string, automatic bool) string {
	r, ok := l.byKind[kind]
	if !ok {
		return text
	}
	res := l.resolver.Resolve(kind, text)
	l.add(r, res.Addresses, automatic)
	return res.Remainder
}

func (l *List) add(r *Row, addrs []Address, automatic bool) []*Pill {
	if len(addrs) == 0 {
		return nil
	}

	r.hidden = false
	pills := make([]*Pill, 0, len(addrs))
	for _, a := range addrs {
		p := newPill(a)
		r.appendPill(p)
		pills = append(pills, p)
	}

	if !automatic {
		r.edited = true
	}
	l.changed(r.kind, automatic)
	l.refresh()
	return pills
}

// Remove deletes a single pill. Rows are never hidden as a side effect.
func (l *List) Remove(p *Pill) bool {
	if p == nil || p.row == nil {
		return false
	}
	r := p.row
	i := r.indexOf(p)
	if i < 0 {
		return false
	}

	r.removeAt(i)
	l.dropFocusFrom(p, r)
	l.changed(r.kind, false)
	l.refresh()
	return true
}

// RemoveSelected deletes every selected pill and returns how many were
// removed.
func (l *List) RemoveSelected() int {
	n := 0
	for _, p := range l.Selected() {
		if l.Remove(p) {
			n++
		}
	}
	return n
}

// Clear removes every pill of a row without hiding it.
func (l *List) Clear(kind Kind) int {
	r, ok := l.byKind[kind]
	if !ok {
		return 0
	}
	n := len(r.pills)
	for len(r.pills) > 0 {
		p := r.removeAt(len(r.pills) - 1)
		l.dropFocusFrom(p, r)
	}
	if n > 0 {
		l.changed(kind, true)
	}
	l.refresh()
	return n
}

// Move transfers a pill to the row of kind, revealing that row if it
// was hidden. Label and address are preserved and selection is cleared.
// Unknown or incompatible targets are ignored.
func (l *List) Move(p *Pill, kind Kind) bool {
	if p == nil || p.row == nil {
		return false
	}
	target, ok := l.byKind[kind]
	if !ok || target == p.row || !compatible(p.row.kind, kind) {
		return false
	}

	src := p.row
	src.removeAt(src.indexOf(p))
	l.dropFocusFrom(p, src)

	target.hidden = false
	target.appendPill(p)
	target.edited = true

	l.changed(src.kind, false)
	l.changed(target.kind, false)
	l.refresh()
	return true
}

// MoveSelected moves every selected pill to the row of kind.
func (l *List) MoveSelected(kind Kind) int {
	n := 0
	for _, p := range l.Selected() {
		if l.Move(p, kind) {
			n++
		}
	}
	return n
}

func compatible(from, to Kind) bool {
	return (from.IsMail() && to.IsMail()) || (from.IsNews() && to.IsNews())
}

// Select marks a pill as selected and drops the focus styling of its
// row's input.
func (l *List) Select(p *Pill) {
	if p == nil || p.row == nil {
		return
	}
	p.Selected = true
	p.row.inputFocused = false
}

// Deselect clears the selection of a pill.
func (l *List) Deselect(p *Pill) {
	if p != nil {
		p.Selected = false
	}
}

// ToggleSelect flips the selection of a pill.
func (l *List) ToggleSelect(p *Pill) {
	if p == nil {
		return
	}
	if p.Selected {
		l.Deselect(p)
		return
	}
	l.Select(p)
}

// SelectAll selects every pill of a row.
func (l *List) SelectAll(kind Kind) int {
	r, ok := l.byKind[kind]
	if !ok {
		return 0
	}
	for _, p := range r.pills {
		l.Select(p)
	}
	return len(r.pills)
}

// DeselectAll clears the selection in every row.
func (l *List) DeselectAll() {
	for _, r := range l.rows {
		for _, p := range r.pills {
			p.Selected = false
		}
	}
}

// Selected returns the selected pills across all rows in display order.
func (l *List) Selected() []*Pill {
	var out []*Pill
	for _, r := range l.rows {
		for _, p := range r.pills {
			if p.Selected {
				out = append(out, p)
			}
		}
	}
	return out
}

// Copy returns the full addresses of the selected pills joined for the
// clipboard.
func (l *List) Copy() string {
	var addrs []string
	for _, p := range l.Selected() {
		addrs = append(addrs, p.FullAddress)
	}
	return strings.Join(addrs, ", ")
}

// Cut copies the selected pills and removes them.
func (l *List) Cut() string {
	text := l.Copy()
	l.RemoveSelected()
	return text
}

// Header returns the serialized header value of a row: the full
// addresses of its pills joined with ",".
func (l *List) Header(kind Kind) string {
	r, ok := l.byKind[kind]
	if !ok {
		return ""
	}
	addrs := make([]string, len(r.pills))
	for i, p := range r.pills {
		addrs[i] = p.FullAddress
	}
	return strings.Join(addrs, ",")
}

// Field is one serialized header.
type Field struct {
	Kind  Kind
	Value string
}

// Fields returns the non-empty headers in row order.
func (l *List) Fields() []Field {
	var out []Field
	for _, r := range l.rows {
		if v := l.Header(r.kind); v != "" {
			out = append(out, Field{Kind: r.kind, Value: v})
		}
	}
	return out
}

// SetHeader replaces the pills of a row with the addresses found in a
// header value. Automatic pills leave the row unedited, so hiding it
// needs no confirmation. Text that does not resolve is left in the
// input.
func (l *List) SetHeader(kind Kind, value string, automatic bool) {
	r, ok := l.byKind[kind]
	if !ok {
		return
	}
	l.Clear(kind)
	if strings.TrimSpace(value) == "" {
		return
	}

	res := l.resolver.Resolve(kind, value)
	if res.Remainder != "" {
		r.hidden = false
		r.input = res.Remainder
	}
	l.add(r, res.Addresses, automatic)
	l.refresh()
}

// Show reveals a hidden row and focuses its input. Showing never
// creates pills.
func (l *List) Show(kind Kind) bool {
	r, ok := l.byKind[kind]
	if !ok || !r.hidden {
		return false
	}
	r.hidden = false
	l.FocusInput(kind)
	l.refresh()
	return true
}

// NeedsConfirmation returns the confirmation request that hiding the
// row would require, if any.
func (l *List) NeedsConfirmation(kind Kind) (ConfirmRequest, bool) {
	r, ok := l.byKind[kind]
	if !ok || !r.edited || len(r.pills) == 0 {
		return ConfirmRequest{}, false
	}
	return ConfirmRequest{
		Kind:      kind,
		Header:    kind.HeaderName(),
		PillCount: len(r.pills),
	}, true
}

// Hide hides a closable row. An edited row holding pills is only hidden
// if confirm accepts; without a confirmer the hide is aborted.
func (l *List) Hide(ctx context.Context, kind Kind, confirm Confirmer) (bool, error) {
	hidden, _, err := l.HideTowards(ctx, kind, confirm, DirNext)
	return hidden, err
}

// HideTowards hides a row like Hide and moves focus to the neighbouring
// visible row in dir. landed is false when no neighbour could take
// focus and the caller should focus the next field outside the list.
func (l *List) HideTowards(
	ctx context.Context,
	kind Kind,
	confirm Confirmer,
	dir Direction,
) (hidden bool, landed bool, err error) {
	r, ok := l.byKind[kind]
	if !ok || r.hidden || !r.closable {
		return false, false, nil
	}

	if req, need := l.NeedsConfirmation(kind); need {
		if confirm == nil {
			return false, false, nil
		}
		resp, err := confirm.Confirm(ctx, req)
		if err != nil {
			return false, false, fmt.Errorf("confirming removal of %s row: %w", kind, err)
		}
		if !resp.Accepted {
			return false, false, nil
		}
	}

	return true, l.hide(r, dir), nil
}

// ApplyHide completes a hide whose confirmation was collected
// asynchronously.
func (l *List) ApplyHide(kind Kind, resp ConfirmResponse, dir Direction) (hidden bool, landed bool) {
	r, ok := l.byKind[kind]
	if !ok || r.hidden || !r.closable || !resp.Accepted {
		return false, false
	}
	return true, l.hide(r, dir)
}

func (l *List) hide(r *Row, dir Direction) bool {
	wasEdited := r.edited
	hadFocus := l.focus.Kind == r.kind

	for len(r.pills) > 0 {
		r.removeAt(len(r.pills) - 1)
	}
	r.input = ""
	r.hidden = true
	r.edited = false
	r.inputFocused = false

	if wasEdited {
		l.changed(r.kind, true)
	}
	l.refresh()

	if !hadFocus {
		return true
	}
	return l.moveFocusFrom(r, dir)
}

// SetNewsMode arranges the rows for a news or a mail account. In news
// mode the Newsgroups row is shown and cannot be closed; switching back
// hides it again when it is empty.
func (l *List) SetNewsMode(news bool) {
	ng := l.byKind[KindNewsgroups]
	l.newsMode = news
	if news {
		ng.hidden = false
		ng.closable = false
	} else {
		ng.closable = true
		if len(ng.pills) == 0 && ng.input == "" {
			ng.hidden = true
			ng.edited = false
			if l.focus.Kind == KindNewsgroups {
				l.FocusInput(KindTo)
			}
		}
	}
	l.refresh()
}

// RemoveAddresses removes the first pill matching each address of a
// comma separated list, typically the automatic Cc/Bcc of a previous
// identity. A non-To row left empty, unedited and without input is
// hidden again.
func (l *List) RemoveAddresses(kind Kind, list string) int {
	r, ok := l.byKind[kind]
	if !ok || strings.TrimSpace(list) == "" {
		return 0
	}

	n := 0
	for _, tok := range SplitAddresses(list) {
		full := tok
		if a, ok := parseMailbox(tok); ok {
			full = a.Full
		}
		for _, p := range r.pills {
			if p.FullAddress == full {
				r.removeAt(r.indexOf(p))
				l.dropFocusFrom(p, r)
				n++
				break
			}
		}
	}

	if kind != KindTo && r.closable && len(r.pills) == 0 && r.input == "" && !r.edited {
		r.hidden = true
		if l.focus.Kind == kind {
			l.moveFocusFrom(r, DirNext)
		}
	}
	if n > 0 {
		l.changed(kind, true)
	}
	l.refresh()
	return n
}

// Drop adds an address dropped onto a row or its label. Unknown rows
// are ignored.
func (l *List) Drop(kind Kind, text string) int {
	r, ok := l.byKind[kind]
	if !ok || strings.TrimSpace(text) == "" {
		return 0
	}
	res := l.resolver.Resolve(kind, text)
	return len(l.add(r, res.Addresses, false))
}

// Focus returns the current keyboard focus.
func (l *List) Focus() Focus { return l.focus }

// FocusInput moves focus to a visible row's input and deselects all
// pills.
func (l *List) FocusInput(kind Kind) bool {
	r, ok := l.byKind[kind]
	if !ok || r.hidden {
		return false
	}
	l.DeselectAll()
	for _, other := range l.rows {
		other.inputFocused = false
	}
	r.inputFocused = true
	l.focus = Focus{Kind: kind}
	return true
}

// FocusPill moves keyboard focus to a pill, making it the only
// selected pill.
func (l *List) FocusPill(p *Pill) bool {
	if p == nil || p.row == nil || p.row.hidden {
		return false
	}
	l.DeselectAll()
	for _, r := range l.rows {
		r.inputFocused = false
	}
	l.Select(p)
	l.focus = Focus{Kind: p.row.kind, Pill: p}
	return true
}

// dropFocusFrom returns focus to the input of r if p was focused.
func (l *List) dropFocusFrom(p *Pill, r *Row) {
	if l.focus.Pill != p {
		return
	}
	l.focus = Focus{Kind: r.kind}
	if !r.hidden {
		r.inputFocused = true
	}
}

func (l *List) adjacent(r *Row, dir Direction) *Row {
	idx := -1
	for i, row := range l.rows {
		if row == r {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	step := 1
	if dir == DirPrevious {
		step = -1
	}
	for i := idx + step; i >= 0 && i < len(l.rows); i += step {
		if !l.rows[i].hidden {
			return l.rows[i]
		}
	}
	return nil
}

func (l *List) moveFocusFrom(r *Row, dir Direction) bool {
	if n := l.adjacent(r, dir); n != nil {
		return l.FocusInput(n.kind)
	}
	if dir == DirPrevious {
		if n := l.adjacent(r, DirNext); n != nil {
			return l.FocusInput(n.kind)
		}
	}
	// Nothing further along: park focus on the first visible row so the
	// list stays consistent while the caller moves on.
	if vis := l.VisibleRows(); len(vis) > 0 {
		l.FocusInput(vis[0].kind)
	}
	return false
}

func (l *List) changed(kind Kind, automatic bool) {
	if l.onChange != nil {
		l.onChange(kind, automatic)
	}
}

// refresh recomputes derived UI state after any transition.
func (l *List) refresh() {
	l.overflow = l.overflow[:0]
	for _, r := range l.rows {
		if r.hidden {
			l.overflow = append(l.overflow, r.kind)
		}
		r.ariaLabel = l.label(r.kind, len(r.pills))
	}
}
