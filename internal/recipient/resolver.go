package recipient

import (
	"strings"

	"github.com/emersion/go-message/mail"
)

// Address is one resolved recipient ready to become a pill.
type Address struct {
	// Label is the text shown on the pill.
	Label string

	// Full is the canonical header form, "Name <email>" or a bare
	// email, or the raw token for news and custom header rows.
	Full string
}

// Resolution is the outcome of resolving free text typed into a row.
type Resolution struct {
	Addresses []Address

	// Remainder holds the tokens that could not be resolved, joined
	// with ", ", so the user can keep editing them.
	Remainder string
}

// Directory answers address book questions the resolver cannot answer
// from the text alone.
type Directory interface {
	IsMailingList(name string) bool
}

// Resolver turns row input into addresses.
type Resolver struct {
	dir Directory
}

// NewResolver creates a resolver. dir may be nil, in which case no
// token is recognised as a mailing list.
func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve splits text into tokens and resolves each one for a row of
// the given kind. Custom header rows take the whole trimmed text as a
// single token.
func (r *Resolver) Resolve(kind Kind, text string) Resolution {
	var res Resolution

	if kind.IsOther() {
		if v := strings.TrimSpace(text); v != "" {
			res.Addresses = append(res.Addresses, Address{Label: v, Full: v})
		}
		return res
	}

	var rest []string
	for _, tok := range SplitAddresses(text) {
		if kind.IsNews() {
			res.Addresses = append(res.Addresses, Address{Label: tok, Full: tok})
			continue
		}

		if addr, ok := parseMailbox(tok); ok {
			res.Addresses = append(res.Addresses, addr)
			continue
		}

		if name := ListName(tok); name != "" && r.isMailingList(name) {
			res.Addresses = append(res.Addresses, Address{
				Label: name,
				Full:  FormatMailbox(name, name),
			})
			continue
		}

		rest = append(rest, tok)
	}

	res.Remainder = strings.Join(rest, ", ")
	return res
}

func (r *Resolver) isMailingList(name string) bool {
	return r.dir != nil && r.dir.IsMailingList(name)
}

// IsValidAddress reports whether text holds at least one token and
// every token is a well-formed mailbox.
func IsValidAddress(text string) bool {
	tokens := SplitAddresses(text)
	if len(tokens) == 0 {
		return false
	}
	for _, tok := range tokens {
		if _, ok := parseMailbox(tok); !ok {
			return false
		}
	}
	return true
}

// SplitAddresses splits a header-style list on commas and semicolons
// that are not inside a quoted string, a comment or angle brackets.
// Empty tokens are dropped and the rest are trimmed.
func SplitAddresses(text string) []string {
	var (
		tokens  []string
		cur     strings.Builder
		quoted  bool
		escaped bool
		angle   int
		comment int
	)

	flush := func() {
		if tok := strings.TrimSpace(cur.String()); tok != "" {
			tokens = append(tokens, tok)
		}
		cur.Reset()
	}

	for _, r := range text {
		if escaped {
			escaped = false
			cur.WriteRune(r)
			continue
		}

		switch {
		case r == '\\' && (quoted || comment > 0):
			escaped = true
		case r == '"' && comment == 0:
			quoted = !quoted
		case quoted:
		case r == '(':
			comment++
		case r == ')' && comment > 0:
			comment--
		case comment > 0:
		case r == '<':
			angle++
		case r == '>' && angle > 0:
			angle--
		case (r == ',' || r == ';') && angle == 0:
			flush()
			continue
		}
		cur.WriteRune(r)
	}
	flush()

	return tokens
}

// FormatMailbox renders a name and email the way they appear in a
// header, quoting the name only when it contains specials.
func FormatMailbox(name, email string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return email
	}
	return quoteName(name) + " <" + email + ">"
}

// parseMailbox accepts exactly one RFC 5322 mailbox.
func parseMailbox(tok string) (Address, bool) {
	a, err := mail.ParseAddress(tok)
	if err != nil || a.Address == "" || strings.Count(a.Address, "@") != 1 {
		return Address{}, false
	}

	label := a.Name
	if label == "" {
		label = a.Address
	}
	return Address{Label: label, Full: FormatMailbox(a.Name, a.Address)}, true
}

// ListName extracts the bare list name from "Team" or "Team <Team>".
func ListName(tok string) string {
	if i := strings.IndexByte(tok, '<'); i > 0 {
		tok = tok[:i]
	}
	return strings.Trim(strings.TrimSpace(tok), `"`)
}

const nameSpecials = `()<>[]:;@\,."`

func quoteName(name string) string {
	if !strings.ContainsAny(name, nameSpecials) {
		return name
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range name {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}
