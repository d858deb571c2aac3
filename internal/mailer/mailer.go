// Package mailer turns compose sessions into RFC 5322 messages and hands
// them to SMTP for sending or to IMAP for draft storage.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/emersion/go-message/mail"

	"github.com/nhle/mailcompose/internal/credential"
	"github.com/nhle/mailcompose/internal/model"
)

const userAgent = "mailcompose"

// AuthError indicates that the server rejected the identity's
// credentials.
type AuthError struct {
	Identity string
	Message  string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Identity, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// ErrNoRecipients is returned when a message has no mail recipient.
var ErrNoRecipients = errors.New("no recipients")

// Transport submits a built message.
type Transport interface {
	Send(ctx context.Context, from string, rcpts []string, body []byte) error
}

// DraftSink stores a built draft on the server.
type DraftSink interface {
	Append(ctx context.Context, raw []byte) error
	Mailbox() string
}

// Result describes a sent message.
type Result struct {
	MessageID  string
	Recipients []*mail.Address
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithTransport overrides how SMTP transports are created.
func WithTransport(fn func(id model.Identity, password string) Transport) Option {
	return func(m *Mailer) { m.newTransport = fn }
}

// WithDraftSink overrides how IMAP draft stores are created.
func WithDraftSink(fn func(id model.Identity, password string) DraftSink) Option {
	return func(m *Mailer) { m.newDrafts = fn }
}

// Mailer sends messages and uploads drafts for any identity.
type Mailer struct {
	lists        Expander
	creds        credential.Source
	log          *slog.Logger
	newTransport func(model.Identity, string) Transport
	newDrafts    func(model.Identity, string) DraftSink
}

// New creates a mailer. lists expands mailing list pills and may be nil.
func New(lists Expander, creds credential.Source, log *slog.Logger, opts ...Option) *Mailer {
	if log == nil {
		log = slog.Default()
	}
	m := &Mailer{
		lists:        lists,
		creds:        creds,
		log:          log,
		newTransport: defaultTransport,
		newDrafts:    defaultDrafts,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func defaultTransport(id model.Identity, password string) Transport {
	return NewSMTPTransport(SMTPConfig{
		Host:     id.SMTPHost,
		Port:     id.SMTPPort,
		Username: id.Username,
		Password: password,
		TLS:      id.SMTPTLS,
	})
}

func defaultDrafts(id model.Identity, password string) DraftSink {
	return NewIMAPDrafts(IMAPConfig{
		Host:     id.IMAPHost,
		Port:     id.IMAPPort,
		Username: id.Username,
		Password: password,
		Mailbox:  id.DraftsMailbox,
	})
}

// Prepare expands mailing lists and assigns a Message-ID so the same
// message can be built for sending and for the sent copy.
func (m *Mailer) Prepare(msg Message) (Message, error) {
	fields, err := ExpandLists(msg.Fields, m.lists)
	if err != nil {
		return Message{}, err
	}
	msg.Fields = fields
	if msg.MessageID == "" {
		var h mail.Header
		if err := h.GenerateMessageID(); err != nil {
			return Message{}, fmt.Errorf("generating Message-ID: %w", err)
		}
		msg.MessageID, _ = h.MessageID()
	}
	return msg, nil
}

// Send expands, builds and submits msg as identity id.
func (m *Mailer) Send(ctx context.Context, id model.Identity, msg Message) (Result, error) {
	msg, err := m.Prepare(msg)
	if err != nil {
		return Result{}, err
	}

	rcpts, err := Recipients(msg.Fields)
	if err != nil {
		return Result{}, err
	}
	if len(rcpts) == 0 {
		return Result{}, ErrNoRecipients
	}

	var buf bytes.Buffer
	if err := Build(&buf, msg, BuildOptions{UserAgent: userAgent}); err != nil {
		return Result{}, fmt.Errorf("building message: %w", err)
	}

	password, err := m.password(id)
	if err != nil {
		return Result{}, err
	}

	envelope := make([]string, len(rcpts))
	for i, a := range rcpts {
		envelope[i] = a.Address
	}

	m.log.Info("sending message",
		"identity", id.ID, "recipients", len(envelope), "message_id", msg.MessageID)
	if err := m.newTransport(id, password).Send(ctx, id.Email, envelope, buf.Bytes()); err != nil {
		m.log.Error("sending message failed", "identity", id.ID, "err", err)
		return Result{}, fmt.Errorf("sending as %s: %w", id.Email, err)
	}

	return Result{MessageID: msg.MessageID, Recipients: rcpts}, nil
}

// UploadDraft stores msg in the identity's drafts mailbox. Bcc is kept.
func (m *Mailer) UploadDraft(ctx context.Context, id model.Identity, msg Message) (string, error) {
	if id.IMAPHost == "" {
		return "", fmt.Errorf("identity %s has no IMAP server", id.ID)
	}
	msg, err := m.Prepare(msg)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := Build(&buf, msg, BuildOptions{IncludeBcc: true, UserAgent: userAgent}); err != nil {
		return "", fmt.Errorf("building draft: %w", err)
	}

	password, err := m.password(id)
	if err != nil {
		return "", err
	}

	sink := m.newDrafts(id, password)
	if err := sink.Append(ctx, buf.Bytes()); err != nil {
		m.log.Error("uploading draft failed", "identity", id.ID, "err", err)
		return "", fmt.Errorf("uploading draft for %s: %w", id.Email, err)
	}
	return sink.Mailbox(), nil
}

func (m *Mailer) password(id model.Identity) (string, error) {
	if m.creds == nil {
		return "", nil
	}
	p, err := m.creds.Password(id.ID)
	if errors.Is(err, credential.ErrNotFound) {
		// Servers that accept unauthenticated submission need no password.
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading password for %s: %w", id.ID, err)
	}
	return p, nil
}

// UsedContacts converts recipients into contacts for the address book.
func UsedContacts(rcpts []*mail.Address) []model.Contact {
	out := make([]model.Contact, 0, len(rcpts))
	for _, a := range rcpts {
		out = append(out, model.Contact{Name: a.Name, Email: a.Address})
	}
	return out
}
