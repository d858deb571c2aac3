// Package compose holds the state of one message being written: the
// sending identity, the addressing rows, subject and body.
package compose

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/mailcompose/internal/mailer"
	"github.com/nhle/mailcompose/internal/model"
	"github.com/nhle/mailcompose/internal/recipient"
)

// Option configures a Session.
type Option func(*Session)

// WithLabelFunc sets the accessible label renderer of the rows.
func WithLabelFunc(fn recipient.LabelFunc) Option {
	return func(s *Session) { s.label = fn }
}

// WithConfirmer sets the confirmer used by keyboard initiated hides.
func WithConfirmer(c recipient.Confirmer) Option {
	return func(s *Session) { s.confirm = c }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session is one compose window. It is created when a message is opened
// and dropped when it is sent or discarded; nothing about it is global.
type Session struct {
	draftID   string
	createdAt time.Time

	identity model.Identity
	list     *recipient.List
	nav      *recipient.Navigator

	subject string
	body    string
	dirty   bool

	label   recipient.LabelFunc
	confirm recipient.Confirmer
	log     *slog.Logger
	now     func() time.Time
}

// New opens a session for identity. dir tells the resolver which tokens
// are mailing lists and may be nil.
func New(cfg model.ComposeConfig, identity model.Identity, dir recipient.Directory, opts ...Option) *Session {
	s := &Session{
		draftID: uuid.NewString(),
		log:     slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.createdAt = s.now()

	listOpts := []recipient.Option{recipient.WithChangeFunc(s.onChange)}
	if s.label != nil {
		listOpts = append(listOpts, recipient.WithLabelFunc(s.label))
	}
	s.list = recipient.NewList(recipient.NewResolver(dir), cfg.OtherHeaders, listOpts...)
	s.nav = recipient.NewNavigator(s.list, s.confirm)

	for _, name := range cfg.DefaultRows {
		kind, err := recipient.ParseKind(name)
		if err != nil {
			s.log.Warn("ignoring default row", "row", name, "err", err)
			continue
		}
		s.list.Show(kind)
	}
	s.list.FocusInput(recipient.KindTo)

	s.SetIdentity(identity)
	s.dirty = false
	return s
}

func (s *Session) onChange(_ recipient.Kind, automatic bool) {
	if !automatic {
		s.dirty = true
	}
}

// DraftID identifies the session in the draft store.
func (s *Session) DraftID() string { return s.draftID }

// Identity returns the sending identity.
func (s *Session) Identity() model.Identity { return s.identity }

// Recipients returns the addressing rows.
func (s *Session) Recipients() *recipient.List { return s.list }

// Navigator returns the keyboard handler of the addressing rows.
func (s *Session) Navigator() *recipient.Navigator { return s.nav }

// Subject returns the subject line.
func (s *Session) Subject() string { return s.subject }

// Body returns the message body.
func (s *Session) Body() string { return s.body }

// SetSubject updates the subject.
func (s *Session) SetSubject(v string) {
	if v != s.subject {
		s.subject = v
		s.dirty = true
	}
}

// SetBody updates the body.
func (s *Session) SetBody(v string) {
	if v != s.body {
		s.body = v
		s.dirty = true
	}
}

// Dirty reports whether the user changed the message since it was
// opened or last saved. Automatic changes such as identity addresses do
// not count.
func (s *Session) Dirty() bool { return s.dirty }

// MarkSaved clears the dirty flag.
func (s *Session) MarkSaved() { s.dirty = false }

// MarkDirty flags the session for the next save, after a failed one.
func (s *Session) MarkDirty() { s.dirty = true }

// SetHeader fills a row from a header value with automatic pills.
func (s *Session) SetHeader(kind recipient.Kind, value string) {
	s.list.SetHeader(kind, value, true)
}

// Header returns the serialized value of a row.
func (s *Session) Header(kind recipient.Kind) string {
	return s.list.Header(kind)
}

// SetIdentity switches the sending identity. The automatic Cc, Bcc and
// Reply-To addresses of the previous identity are removed and those of
// the new one added; rows emptied by the swap are hidden again.
func (s *Session) SetIdentity(id model.Identity) {
	old := s.identity
	s.identity = id

	swaps := []struct {
		kind     recipient.Kind
		old, new string
	}{
		{recipient.KindCc, old.AutoCc, id.AutoCc},
		{recipient.KindBcc, old.AutoBcc, id.AutoBcc},
		{recipient.KindReplyTo, old.ReplyTo, id.ReplyTo},
	}
	for _, sw := range swaps {
		s.list.RemoveAddresses(sw.kind, sw.old)
		if strings.TrimSpace(sw.new) == "" {
			continue
		}
		if rest := s.list.AddText(sw.kind, sw.new, true); rest != "" {
			s.log.Warn("identity address did not resolve",
				"identity", id.ID, "header", sw.kind.HeaderName(), "text", rest)
		}
	}

	s.list.SetNewsMode(id.News)
}

// Pending returns the visible rows whose input still holds text that
// could not be turned into pills.
func (s *Session) Pending() []recipient.Kind {
	var out []recipient.Kind
	for _, r := range s.list.VisibleRows() {
		if strings.TrimSpace(r.Input()) != "" {
			out = append(out, r.Kind())
		}
	}
	return out
}

// CommitInputs commits the text of every visible row the way leaving
// the row would, and returns the rows left with unresolved text.
func (s *Session) CommitInputs() []recipient.Kind {
	for _, r := range s.list.VisibleRows() {
		s.list.Blur(r.Kind())
	}
	return s.Pending()
}

// Outgoing assembles the message to send or upload.
func (s *Session) Outgoing() mailer.Message {
	return mailer.Message{
		From:    s.identity.From(),
		Fields:  s.list.Fields(),
		Subject: s.subject,
		Body:    s.body,
		HTML:    s.identity.ComposeHTML,
		Date:    s.now(),
	}
}

// Snapshot captures the session for the draft store.
func (s *Session) Snapshot() model.Draft {
	d := model.Draft{
		ID:         s.draftID,
		IdentityID: s.identity.ID,
		Subject:    s.subject,
		Body:       s.body,
		NewsMode:   s.list.NewsMode(),
		CreatedAt:  s.createdAt,
		UpdatedAt:  s.now(),
	}
	for _, f := range s.list.Fields() {
		d.Headers = append(d.Headers, model.DraftHeader{Kind: string(f.Kind), Value: f.Value})
	}
	for _, r := range s.list.VisibleRows() {
		d.Rows = append(d.Rows, string(r.Kind()))
	}
	return d
}

// Restore reopens a saved draft. The identity must already be set to the
// draft's identity, or to a replacement when it no longer exists.
func (s *Session) Restore(d model.Draft) {
	s.draftID = d.ID
	if !d.CreatedAt.IsZero() {
		s.createdAt = d.CreatedAt
	}
	s.subject = d.Subject
	s.body = d.Body

	for _, r := range s.list.Rows() {
		s.list.Clear(r.Kind())
	}
	s.list.SetNewsMode(d.NewsMode)

	// Rows opened by the defaults or the identity close unless the draft
	// had them open.
	listed := make(map[recipient.Kind]bool, len(d.Rows))
	for _, name := range d.Rows {
		if kind, err := recipient.ParseKind(name); err == nil {
			listed[kind] = true
		}
	}
	for _, r := range s.list.VisibleRows() {
		if !listed[r.Kind()] {
			s.list.ApplyHide(r.Kind(), recipient.Accepted, recipient.DirNext)
		}
	}

	for _, name := range d.Rows {
		kind, err := recipient.ParseKind(name)
		if err != nil {
			s.log.Warn("ignoring draft row", "draft", d.ID, "row", name, "err", err)
			continue
		}
		s.list.Show(kind)
	}
	for _, h := range d.Headers {
		kind, err := recipient.ParseKind(h.Kind)
		if err != nil {
			s.log.Warn("ignoring draft header", "draft", d.ID, "header", h.Kind, "err", err)
			continue
		}
		// Restored addresses are the user's own.
		s.list.SetHeader(kind, h.Value, false)
	}
	s.list.FocusInput(recipient.KindTo)
	s.dirty = false
}
