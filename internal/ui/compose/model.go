package compose

import (
	"context"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mailcompose/internal/compose"
	"github.com/nhle/mailcompose/internal/keys"
	"github.com/nhle/mailcompose/internal/locale"
	"github.com/nhle/mailcompose/internal/recipient"
)

// SendRequestMsg asks the application to send the message.
type SendRequestMsg struct{}

// SaveRequestMsg asks the application to save the draft. Upload stores
// it in the identity's IMAP drafts mailbox as well.
type SaveRequestMsg struct {
	Upload bool
}

// StatusMsg reports a short message for the status bar.
type StatusMsg struct {
	Text  string
	Level string
}

type suggestionsMsg struct {
	kind  recipient.Kind
	value string
	items []string
}

// Suggester completes partially typed recipients.
type Suggester interface {
	Suggest(ctx context.Context, prefix string, limit int) ([]string, error)
}

const suggestionLimit = 8

type field int

const (
	fieldRecipients field = iota
	fieldSubject
	fieldBody
)

// Model is the compose view: the addressing rows, the subject line and
// the body.
type Model struct {
	session  *compose.Session
	confirms *ConfirmQueue
	book     Suggester
	tr       *locale.Translator
	keys     *keys.KeyMap
	log      *slog.Logger

	field     field
	input     textinput.Model
	inputKind recipient.Kind
	subject   textinput.Model
	body      textarea.Model
	dialog    *dialog

	width  int
	height int
}

// New creates the compose view for s. confirms must be the confirmer
// the session's navigator was created with.
func New(
	s *compose.Session,
	confirms *ConfirmQueue,
	book Suggester,
	tr *locale.Translator,
	km *keys.KeyMap,
	log *slog.Logger,
	width, height int,
) Model {
	if log == nil {
		log = slog.Default()
	}

	in := textinput.New()
	in.Prompt = ""
	in.ShowSuggestions = true
	in.KeyMap.AcceptSuggestion = key.NewBinding(key.WithKeys("right", "ctrl+f"))

	subj := textinput.New()
	subj.Prompt = ""

	body := textarea.New()
	body.ShowLineNumbers = false
	body.Prompt = ""

	m := Model{
		session:  s,
		confirms: confirms,
		book:     book,
		tr:       tr,
		keys:     km,
		log:      log,
		input:    in,
		subject:  subj,
		body:     body,
		width:    width,
		height:   height,
	}
	m.SetSession(s)
	m.SetSize(width, height)
	return m
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Session returns the session being edited.
func (m Model) Session() *compose.Session { return m.session }

// SetSession replaces the edited session, for a new message or a
// resumed draft.
func (m *Model) SetSession(s *compose.Session) {
	m.session = s
	m.subject.SetValue(s.Subject())
	m.body.SetValue(s.Body())
	m.inputKind = ""
	m.dialog = nil
	m.focusField(fieldRecipients)
}

// Refresh re-reads the recipient rows after the application changed
// them, for example on an identity switch.
func (m *Model) Refresh() {
	m.syncInput()
}

// Flush copies the text of the widgets into the session.
func (m Model) Flush() Model { return m.flush() }

// Insert adds text to the focused row, or to To when the focus is
// outside the recipient rows. Text that does not resolve is left in the
// row input.
func (m *Model) Insert(text string) {
	*m = m.flush()
	list := m.session.Recipients()
	kind := recipient.KindTo
	if m.field == fieldRecipients {
		kind = list.Focus().Kind
	}

	list.Show(kind)
	rest := list.AddText(kind, text, false)
	if r, ok := list.Row(kind); ok && rest != "" && strings.TrimSpace(r.Input()) == "" {
		list.SetInput(kind, rest)
	}
	list.FocusInput(kind)
	m.focusField(fieldRecipients)
	m.SetSize(m.width, m.height)
}

// DialogOpen reports whether the removal confirmation is showing.
func (m Model) DialogOpen() bool { return m.dialog != nil }

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 16
	m.subject.Width = width - 16
	m.body.SetWidth(width - 2)

	h := height - len(m.session.Recipients().VisibleRows()) - 4
	if h < 3 {
		h = 3
	}
	m.body.SetHeight(h)
}

// ShowRow reveals a hidden row and focuses it.
func (m *Model) ShowRow(kind recipient.Kind) bool {
	if !m.session.Recipients().Show(kind) {
		return false
	}
	m.focusField(fieldRecipients)
	m.SetSize(m.width, m.height)
	return true
}

// HideRow hides a row, asking first when it holds edited recipients.
func (m Model) HideRow(kind recipient.Kind) (Model, tea.Cmd) {
	if req, ok := m.session.Recipients().NeedsConfirmation(kind); ok {
		cmd := m.openDialog(req, recipient.DirNext)
		return m, cmd
	}
	return m.applyHide(kind, recipient.Accepted, recipient.DirNext)
}

// Update handles messages for the compose view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.dialog != nil {
		return m.updateDialog(msg)
	}

	switch msg := msg.(type) {
	case suggestionsMsg:
		if m.field == fieldRecipients && msg.kind == m.inputKind && msg.value == m.input.Value() {
			m.input.SetSuggestions(msg.items)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Send):
			return m.flush(), func() tea.Msg { return SendRequestMsg{} }
		case key.Matches(msg, m.keys.SaveDraft):
			return m.flush(), func() tea.Msg { return SaveRequestMsg{} }
		case key.Matches(msg, m.keys.UploadDraft):
			return m.flush(), func() tea.Msg { return SaveRequestMsg{Upload: true} }
		case key.Matches(msg, m.keys.MoreRows):
			if overflow := m.session.Recipients().Overflow(); len(overflow) > 0 {
				m.ShowRow(overflow[0])
			}
			return m, nil
		}

		switch m.field {
		case fieldRecipients:
			return m.updateRecipients(msg)
		case fieldSubject:
			return m.updateSubject(msg)
		case fieldBody:
			return m.updateBody(msg)
		}
	}

	return m.forward(msg)
}

// forward passes non-key messages (cursor blink, paste) to the focused
// widget.
func (m Model) forward(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.field {
	case fieldRecipients:
		m.input, cmd = m.input.Update(msg)
	case fieldSubject:
		m.subject, cmd = m.subject.Update(msg)
	case fieldBody:
		m.body, cmd = m.body.Update(msg)
	}
	return m, cmd
}

func (m Model) updateRecipients(msg tea.KeyMsg) (Model, tea.Cmd) {
	list := m.session.Recipients()
	ctx := context.Background()

	switch {
	case key.Matches(msg, m.keys.MoveUp):
		m.movePills(-1)
		return m, nil
	case key.Matches(msg, m.keys.MoveDown):
		m.movePills(1)
		return m, nil
	case key.Matches(msg, m.keys.Copy), key.Matches(msg, m.keys.Cut):
		cmd := m.copyPills(key.Matches(msg, m.keys.Cut))
		return m, cmd
	}

	f := list.Focus()
	if f.OnInput() {
		list.SetInput(f.Kind, m.input.Value())
		if msg.Type == tea.KeyEnter && !f.Kind.IsOther() {
			m.acceptSuggestion(f.Kind)
		}
	}

	k := recipientKey(msg, m.input.Value(), m.input.Position())
	out := m.session.Navigator().HandleKey(ctx, k)

	var cmds []tea.Cmd
	if req, ok := m.confirms.take(); ok {
		cmds = append(cmds, m.openDialog(req, hideDirection(k)))
	}

	switch out.Action {
	case recipient.ActionIgnored:
		m.syncInput()
		if !list.Focus().OnInput() {
			break
		}
		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
		if m.input.Value() != before {
			list.SetInput(m.inputKind, m.input.Value())
			cmds = append(cmds, m.suggest())
		}

	case recipient.ActionHandled:
		m.syncInput()

	case recipient.ActionFocusNext:
		if out.HiddenRow {
			m.focusField(fieldSubject)
		} else {
			m.focusRow(1)
		}

	case recipient.ActionFocusPrevious:
		if !out.HiddenRow {
			m.focusRow(-1)
		}
		m.syncInput()
	}

	if out.HiddenRow {
		m.SetSize(m.width, m.height)
	}
	return m, tea.Batch(cmds...)
}

// acceptSuggestion replaces unresolvable input with the highlighted
// completion before Enter commits it.
func (m *Model) acceptSuggestion(kind recipient.Kind) {
	v := strings.TrimSpace(m.input.Value())
	s := m.input.CurrentSuggestion()
	if v == "" || s == "" || recipient.IsValidAddress(v) {
		return
	}
	m.input.SetValue(s)
	m.input.CursorEnd()
	m.session.Recipients().SetInput(kind, s)
}

func (m *Model) suggest() tea.Cmd {
	kind := m.inputKind
	value := m.input.Value()
	if m.book == nil || !kind.IsMail() || strings.TrimSpace(value) == "" {
		m.input.SetSuggestions(nil)
		return nil
	}
	book := m.book
	log := m.log
	return func() tea.Msg {
		items, err := book.Suggest(context.Background(), strings.TrimSpace(value), suggestionLimit)
		if err != nil {
			log.Warn("address completion failed", "err", err)
			return nil
		}
		return suggestionsMsg{kind: kind, value: value, items: items}
	}
}

func (m Model) updateSubject(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.NextField), msg.Type == tea.KeyEnter:
		m.focusField(fieldBody)
		return m, nil
	case key.Matches(msg, m.keys.PrevField):
		m.focusField(fieldRecipients)
		vis := m.session.Recipients().VisibleRows()
		m.session.Recipients().FocusInput(vis[len(vis)-1].Kind())
		m.syncInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.subject, cmd = m.subject.Update(msg)
	m.session.SetSubject(m.subject.Value())
	return m, cmd
}

func (m Model) updateBody(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.PrevField):
		m.focusField(fieldSubject)
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		m.focusField(fieldRecipients)
		m.session.Recipients().FocusInput(recipient.KindTo)
		m.syncInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.body, cmd = m.body.Update(msg)
	m.session.SetBody(m.body.Value())
	return m, cmd
}

// focusRow moves focus to the next (delta 1) or previous (delta -1)
// visible row, leaving the recipients area past the last row.
func (m *Model) focusRow(delta int) {
	list := m.session.Recipients()
	vis := list.VisibleRows()
	cur := list.Focus().Kind

	for i, r := range vis {
		if r.Kind() != cur {
			continue
		}
		j := i + delta
		if j < 0 {
			list.FocusInput(cur)
			m.syncInput()
			return
		}
		if j >= len(vis) {
			m.focusField(fieldSubject)
			return
		}
		list.Blur(cur)
		list.FocusInput(vis[j].Kind())
		m.syncInput()
		return
	}
	m.focusField(fieldSubject)
}

func (m *Model) focusField(f field) {
	list := m.session.Recipients()
	if m.field == fieldRecipients && f != fieldRecipients {
		list.SetInput(m.inputKind, m.input.Value())
		list.Blur(list.Focus().Kind)
	}

	m.field = f
	m.input.Blur()
	m.subject.Blur()
	m.body.Blur()

	switch f {
	case fieldRecipients:
		m.syncInput()
	case fieldSubject:
		m.subject.Focus()
	case fieldBody:
		m.body.Focus()
	}
}

// syncInput points the shared text input at the focused row.
func (m *Model) syncInput() {
	list := m.session.Recipients()
	f := list.Focus()
	r, ok := list.Row(f.Kind)
	if !ok {
		return
	}

	if m.inputKind != f.Kind || m.input.Value() != r.Input() {
		m.inputKind = f.Kind
		m.input.SetValue(r.Input())
		m.input.CursorEnd()
		m.input.SetSuggestions(nil)
	}
	if m.field == fieldRecipients && f.OnInput() {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

// flush copies pending widget state into the session before an action
// reads it.
func (m Model) flush() Model {
	if m.field == fieldRecipients {
		m.session.Recipients().SetInput(m.inputKind, m.input.Value())
	}
	m.session.SetSubject(m.subject.Value())
	m.session.SetBody(m.body.Value())
	return m
}

func (m Model) applyHide(kind recipient.Kind, resp recipient.ConfirmResponse, dir recipient.Direction) (Model, tea.Cmd) {
	hidden, landed := m.session.Recipients().ApplyHide(kind, resp, dir)
	if hidden && !landed && m.field == fieldRecipients && dir == recipient.DirNext {
		m.focusField(fieldSubject)
	}
	m.syncInput()
	if hidden {
		m.SetSize(m.width, m.height)
	}
	return m, nil
}

// movePills moves the selected pills, or the focused one, to the next
// compatible row above or below.
func (m *Model) movePills(delta int) {
	list := m.session.Recipients()
	f := list.Focus()
	rows := list.Rows()

	from := -1
	for i, r := range rows {
		if r.Kind() == f.Kind {
			from = i
		}
	}
	if from < 0 {
		return
	}

	for j := from + delta; j >= 0 && j < len(rows); j += delta {
		target := rows[j].Kind()
		if target.IsOther() || target.IsNews() != f.Kind.IsNews() {
			continue
		}
		if len(list.Selected()) > 0 {
			list.MoveSelected(target)
		} else if f.Pill != nil {
			list.Move(f.Pill, target)
		} else {
			return
		}
		list.FocusInput(target)
		m.syncInput()
		m.SetSize(m.width, m.height)
		return
	}
}

func (m *Model) copyPills(cut bool) tea.Cmd {
	list := m.session.Recipients()
	if f := list.Focus(); len(list.Selected()) == 0 && f.Pill != nil {
		list.Select(f.Pill)
	}
	n := len(list.Selected())
	if n == 0 {
		return nil
	}

	var text string
	if cut {
		text = list.Cut()
		m.syncInput()
	} else {
		text = list.Copy()
	}

	if err := clipboard.WriteAll(text); err != nil {
		m.log.Warn("writing clipboard failed", "err", err)
		return func() tea.Msg { return StatusMsg{Text: err.Error(), Level: "warn"} }
	}
	status := m.tr.TPlural("StatusCopied", n, nil)
	return func() tea.Msg { return StatusMsg{Text: status, Level: "ok"} }
}
