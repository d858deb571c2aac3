package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mailcompose/internal/mailer"
	"github.com/nhle/mailcompose/internal/model"
	"github.com/nhle/mailcompose/internal/recipient"
	"github.com/nhle/mailcompose/internal/store"
	"github.com/nhle/mailcompose/internal/ui/command"
)

const (
	sendTimeout = 60 * time.Second
	saveTimeout = 30 * time.Second
)

// Mailer submits messages and uploads drafts.
type Mailer interface {
	Send(ctx context.Context, id model.Identity, msg mailer.Message) (mailer.Result, error)
	UploadDraft(ctx context.Context, id model.Identity, msg mailer.Message) (string, error)
}

type sendResultMsg struct {
	identity model.Identity
	result   mailer.Result
	err      error
}

type draftSavedMsg struct {
	draftID string
	upload  bool
	mailbox string
	err     error
}

type bookReloadedMsg struct{ err error }
type prefSavedMsg struct{ err error }
type passwordSavedMsg struct{ err error }

// handleSend commits typed text and submits the message, unless a row
// still holds text that is not an address.
func (m Model) handleSend() (tea.Model, tea.Cmd) {
	if m.sending {
		return m, nil
	}
	m.compose = m.compose.Flush()
	sess := m.compose.Session()

	pending := sess.CommitInputs()
	m.compose.Refresh()
	if len(pending) > 0 {
		kind := pending[0]
		r, _ := sess.Recipients().Row(kind)
		m.setStatus(m.tr.TData("StatusUnresolved", map[string]any{
			"Header": m.tr.RowLabel(kind),
			"Text":   r.Input(),
		}), "error")
		return m, nil
	}

	m.sending = true
	id := sess.Identity()
	msg := sess.Outgoing()
	draftID := sess.DraftID()
	mlr, s, saver, log := m.mailer, m.store, m.saver, m.log

	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		res, err := mlr.Send(ctx, id, msg)
		if err != nil {
			return sendResultMsg{identity: id, err: err}
		}

		if err := s.RecordContactUse(ctx, mailer.UsedContacts(res.Recipients)); err != nil {
			log.Warn("recording contact use failed", "err", err)
		}
		if err := saver.Discard(ctx, draftID); err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Warn("deleting sent draft failed", "draft", draftID, "err", err)
		}
		return sendResultMsg{identity: id, result: res}
	}
}

func (m Model) handleSendResult(msg sendResultMsg) (tea.Model, tea.Cmd) {
	m.sending = false

	switch {
	case msg.err == nil:
		n := len(msg.result.Recipients)
		m.log.Info("message sent", "message_id", msg.result.MessageID, "recipients", n)
		m.compose.SetSession(m.newSession(msg.identity))
		m.resizeCompose()
		m.setStatus(m.tr.TPlural("StatusSent", n, nil), "ok")
	case errors.Is(msg.err, mailer.ErrNoRecipients):
		m.setStatus(m.tr.T("StatusNoRecipients"), "error")
	case mailer.IsAuthError(msg.err):
		m.setStatus(m.tr.TData("StatusAuthFailed", map[string]any{"Identity": msg.identity.From()}), "error")
	default:
		var unknown *mailer.UnknownRecipientError
		if errors.As(msg.err, &unknown) {
			m.setStatus(msg.err.Error(), "error")
			break
		}
		m.setStatus(m.tr.TData("StatusSendFailed", map[string]any{"Error": msg.err}), "error")
	}
	return m, nil
}

// saveDraft stores the session in the local draft store and, with
// upload, in the identity's IMAP drafts mailbox.
func (m Model) saveDraft(upload bool) tea.Cmd {
	m.compose = m.compose.Flush()
	sess := m.compose.Session()
	d := sess.Snapshot()
	id := sess.Identity()
	out := sess.Outgoing()
	sess.MarkSaved()
	s, mlr := m.store, m.mailer

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()

		if err := s.SaveDraft(ctx, &d); err != nil {
			return draftSavedMsg{draftID: d.ID, err: err}
		}
		if err := s.SetPref(ctx, store.PrefLastDraft, d.ID); err != nil {
			return draftSavedMsg{draftID: d.ID, err: err}
		}
		if !upload {
			return draftSavedMsg{draftID: d.ID}
		}
		mailbox, err := mlr.UploadDraft(ctx, id, out)
		return draftSavedMsg{draftID: d.ID, upload: true, mailbox: mailbox, err: err}
	}
}

func (m Model) handleDraftSaved(msg draftSavedMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.err != nil:
		m.log.Error("saving draft failed", "draft", msg.draftID, "err", msg.err)
		m.setStatus(msg.err.Error(), "error")
		if msg.draftID == m.compose.Session().DraftID() {
			m.compose.Session().MarkDirty()
		}
	case msg.upload:
		m.setStatus(m.tr.TData("StatusDraftUploaded", map[string]any{"Mailbox": msg.mailbox}), "ok")
	default:
		m.setStatus(m.tr.T("StatusDraftSaved"), "ok")
	}
	return m, nil
}

// switchIdentity changes the sending identity of the open message.
func (m Model) switchIdentity(id model.Identity, password string) (tea.Model, tea.Cmd) {
	m.compose = m.compose.Flush()
	m.compose.Session().SetIdentity(id)
	m.compose.Refresh()
	m.resizeCompose()
	m.setStatus(m.tr.TData("StatusIdentity", map[string]any{"From": id.From()}), "ok")

	s := m.store
	cmds := []tea.Cmd{func() tea.Msg {
		return prefSavedMsg{err: s.SetPref(context.Background(), store.PrefLastIdentity, id.ID)}
	}}
	if password != "" {
		set := m.setPassword
		cmds = append(cmds, func() tea.Msg {
			return passwordSavedMsg{err: set(id.ID, password)}
		})
	}
	return m, tea.Batch(cmds...)
}

func (m Model) reloadBook() tea.Cmd {
	b := m.book
	return func() tea.Msg {
		return bookReloadedMsg{err: b.Reload(context.Background())}
	}
}

// executeCommand runs a command from the command palette.
func (m Model) executeCommand(c command.CommandMsg) (tea.Model, tea.Cmd) {
	switch c.Name {
	case command.Send:
		return m.handleSend()
	case command.Save:
		return m, m.saveDraft(false)
	case command.Upload:
		return m, m.saveDraft(true)
	case command.Show, command.Hide:
		kind, err := paletteKind(c.Arg)
		if err != nil {
			m.setStatus(err.Error(), "error")
			return m, nil
		}
		m.currentView = ViewCompose
		if c.Name == command.Hide {
			var cmd tea.Cmd
			m.compose, cmd = m.compose.HideRow(kind)
			return m, cmd
		}
		if _, ok := m.compose.Session().Recipients().Row(kind); !ok {
			m.setStatus(fmt.Sprintf("no %s row", c.Arg), "error")
			return m, nil
		}
		m.compose.ShowRow(kind)
		return m, nil
	case command.Identity:
		cmd := m.openIdentity()
		return m, cmd
	case command.News, command.Mail:
		m.compose = m.compose.Flush()
		m.compose.Session().Recipients().SetNewsMode(c.Name == command.News)
		m.compose.Refresh()
		m.resizeCompose()
		return m, nil
	case command.Book:
		cmd := m.openAddressBook()
		return m, cmd
	case command.Help:
		m.previousView = ViewCompose
		m.currentView = ViewHelp
		return m, nil
	case command.Quit:
		return m.quit()
	default:
		return m, nil
	}
}

// paletteKind accepts the names of ParseKind and bare header names of
// configured other rows.
func paletteKind(arg string) (recipient.Kind, error) {
	if kind, err := recipient.ParseKind(arg); err == nil {
		return kind, nil
	}
	if arg == "" {
		return "", fmt.Errorf("missing row name")
	}
	return recipient.OtherKind(arg), nil
}

// resizeCompose lays the compose view out again after its rows changed.
func (m *Model) resizeCompose() {
	if m.ready {
		m.compose.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())
	}
}
