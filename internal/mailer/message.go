package mailer

import (
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/microcosm-cc/bluemonday"

	"github.com/nhle/mailcompose/internal/recipient"
)

// Message is an outgoing message as assembled by a compose session.
type Message struct {
	From      string
	Fields    []recipient.Field
	Subject   string
	Body      string
	HTML      bool
	Date      time.Time
	MessageID string
}

// Field returns the value of the first field of kind.
func (m Message) Field(kind recipient.Kind) string {
	for _, f := range m.Fields {
		if f.Kind == kind {
			return f.Value
		}
	}
	return ""
}

// Expander resolves a mailing list name to its member addresses.
type Expander interface {
	Members(name string) ([]string, bool)
}

// UnknownRecipientError reports a token in a mail header that is neither
// an address nor a known mailing list.
type UnknownRecipientError struct {
	Kind  recipient.Kind
	Token string
}

func (e *UnknownRecipientError) Error() string {
	return fmt.Sprintf("%s: %q is not an address or mailing list", e.Kind.HeaderName(), e.Token)
}

const maxListDepth = 8

// ExpandLists replaces mailing list pills in mail headers with the
// list members. Lists may contain other lists; cycles are cut.
func ExpandLists(fields []recipient.Field, exp Expander) ([]recipient.Field, error) {
	out := make([]recipient.Field, 0, len(fields))
	for _, f := range fields {
		if !f.Kind.IsMail() {
			out = append(out, f)
			continue
		}

		var addrs []string
		for _, tok := range recipient.SplitAddresses(f.Value) {
			expanded, err := expandToken(f.Kind, tok, exp, map[string]bool{}, 0)
			if err != nil {
				return nil, err
			}
			addrs = append(addrs, expanded...)
		}
		if len(addrs) > 0 {
			out = append(out, recipient.Field{Kind: f.Kind, Value: strings.Join(addrs, ",")})
		}
	}
	return out, nil
}

func expandToken(
	kind recipient.Kind,
	tok string,
	exp Expander,
	seen map[string]bool,
	depth int,
) ([]string, error) {
	if recipient.IsValidAddress(tok) {
		return []string{tok}, nil
	}

	name := recipient.ListName(tok)
	key := strings.ToLower(name)
	if exp == nil || name == "" || depth >= maxListDepth {
		return nil, &UnknownRecipientError{Kind: kind, Token: tok}
	}
	if seen[key] {
		return nil, nil
	}
	members, ok := exp.Members(name)
	if !ok {
		return nil, &UnknownRecipientError{Kind: kind, Token: tok}
	}
	seen[key] = true

	var out []string
	for _, m := range members {
		sub, err := expandToken(kind, m, exp, seen, depth+1)
		if err != nil {
			return nil, fmt.Errorf("expanding list %s: %w", name, err)
		}
		out = append(out, sub...)
	}
	return out, nil
}

// Recipients returns the envelope recipients of a message: the bare
// addresses of To, Cc and Bcc, deduplicated case-insensitively. Lists
// must have been expanded.
func Recipients(fields []recipient.Field) ([]*mail.Address, error) {
	var out []*mail.Address
	seen := make(map[string]bool)
	for _, f := range fields {
		switch f.Kind {
		case recipient.KindTo, recipient.KindCc, recipient.KindBcc:
		default:
			continue
		}
		addrs, err := mail.ParseAddressList(f.Value)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", f.Kind.HeaderName(), err)
		}
		for _, a := range addrs {
			key := strings.ToLower(a.Address)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, a)
		}
	}
	return out, nil
}

// BuildOptions controls message assembly.
type BuildOptions struct {
	// IncludeBcc keeps the Bcc header, used for drafts.
	IncludeBcc bool

	UserAgent string
}

// Build writes msg as an RFC 5322 message. Mailing lists must have been
// expanded. HTML bodies are sanitized and get a plain text alternative.
func Build(w io.Writer, msg Message, opts BuildOptions) error {
	h, err := header(msg, opts)
	if err != nil {
		return err
	}

	if !msg.HTML {
		h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
		h.Set("Content-Transfer-Encoding", "quoted-printable")
		bw, err := mail.CreateSingleInlineWriter(w, h)
		if err != nil {
			return fmt.Errorf("creating message writer: %w", err)
		}
		if _, err := io.WriteString(bw, msg.Body); err != nil {
			return fmt.Errorf("writing body: %w", err)
		}
		return bw.Close()
	}

	mw, err := mail.CreateWriter(w, h)
	if err != nil {
		return fmt.Errorf("creating message writer: %w", err)
	}
	alt, err := mw.CreateInline()
	if err != nil {
		return fmt.Errorf("creating alternative part: %w", err)
	}

	htmlBody := bluemonday.UGCPolicy().Sanitize(msg.Body)
	plainBody := html.UnescapeString(bluemonday.StrictPolicy().Sanitize(msg.Body))

	if err := writeInlinePart(alt, "text/plain", plainBody); err != nil {
		return err
	}
	if err := writeInlinePart(alt, "text/html", htmlBody); err != nil {
		return err
	}
	if err := alt.Close(); err != nil {
		return fmt.Errorf("closing alternative part: %w", err)
	}
	return mw.Close()
}

func writeInlinePart(alt *mail.InlineWriter, contentType, body string) error {
	var ph mail.InlineHeader
	ph.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	ph.Set("Content-Transfer-Encoding", "quoted-printable")

	pw, err := alt.CreatePart(ph)
	if err != nil {
		return fmt.Errorf("creating %s part: %w", contentType, err)
	}
	if _, err := io.WriteString(pw, body); err != nil {
		return fmt.Errorf("writing %s part: %w", contentType, err)
	}
	return pw.Close()
}

func header(msg Message, opts BuildOptions) (mail.Header, error) {
	var h mail.Header

	date := msg.Date
	if date.IsZero() {
		date = time.Now()
	}
	h.SetDate(date)

	from, err := mail.ParseAddress(msg.From)
	if err != nil {
		return h, fmt.Errorf("parsing From %q: %w", msg.From, err)
	}
	h.SetAddressList("From", []*mail.Address{from})
	h.SetSubject(msg.Subject)

	if msg.MessageID != "" {
		h.SetMessageID(msg.MessageID)
	} else if err := h.GenerateMessageID(); err != nil {
		return h, fmt.Errorf("generating Message-ID: %w", err)
	}

	for _, f := range msg.Fields {
		name := f.Kind.HeaderName()
		switch {
		case f.Kind == recipient.KindBcc && !opts.IncludeBcc:
			continue
		case f.Kind.IsMail():
			addrs, err := mail.ParseAddressList(f.Value)
			if err != nil {
				return h, fmt.Errorf("parsing %s: %w", name, err)
			}
			h.SetAddressList(name, addrs)
		case f.Kind.IsNews():
			h.Set(name, strings.Join(recipient.SplitAddresses(f.Value), ","))
		default:
			h.SetText(name, f.Value)
		}
	}

	if opts.UserAgent != "" {
		h.Set("User-Agent", opts.UserAgent)
	}
	return h, nil
}
