package recipient

import (
	"fmt"
	"strings"
)

// Kind identifies the header an addressing row edits.
type Kind string

const (
	KindTo         Kind = "to"
	KindCc         Kind = "cc"
	KindBcc        Kind = "bcc"
	KindReplyTo    Kind = "reply-to"
	KindNewsgroups Kind = "newsgroups"
	KindFollowupTo Kind = "followup-to"
)

const otherPrefix = "other:"

// StandardKinds lists the built-in rows in display order.
var StandardKinds = []Kind{
	KindTo, KindCc, KindBcc, KindReplyTo, KindNewsgroups, KindFollowupTo,
}

// OtherKind returns the kind for a custom header row such as
// "X-Priority" configured by the user.
func OtherKind(header string) Kind {
	return Kind(otherPrefix + strings.TrimSpace(header))
}

// ParseKind accepts the canonical kind names (case-insensitive), their
// header spellings ("Reply-To", "Followup-To") and "other:<name>".
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty recipient kind")
	}

	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, otherPrefix) {
		name := strings.TrimSpace(s[len(otherPrefix):])
		if name == "" {
			return "", fmt.Errorf("recipient kind %q has no header name", s)
		}
		return OtherKind(name), nil
	}

	switch lower {
	case "to":
		return KindTo, nil
	case "cc":
		return KindCc, nil
	case "bcc":
		return KindBcc, nil
	case "reply-to", "replyto", "reply":
		return KindReplyTo, nil
	case "newsgroups", "news":
		return KindNewsgroups, nil
	case "followup-to", "followupto", "followup":
		return KindFollowupTo, nil
	}

	return "", fmt.Errorf("unknown recipient kind %q", s)
}

// IsOther reports whether k is a custom header row.
func (k Kind) IsOther() bool {
	return strings.HasPrefix(string(k), otherPrefix)
}

// IsNews reports whether k holds newsgroup names rather than mailboxes.
func (k Kind) IsNews() bool {
	return k == KindNewsgroups || k == KindFollowupTo
}

// IsMail reports whether k holds RFC 5322 mailboxes.
func (k Kind) IsMail() bool {
	return !k.IsNews() && !k.IsOther()
}

// HeaderName returns the message header field written for k.
func (k Kind) HeaderName() string {
	switch k {
	case KindTo:
		return "To"
	case KindCc:
		return "Cc"
	case KindBcc:
		return "Bcc"
	case KindReplyTo:
		return "Reply-To"
	case KindNewsgroups:
		return "Newsgroups"
	case KindFollowupTo:
		return "Followup-To"
	}
	if k.IsOther() {
		return string(k)[len(otherPrefix):]
	}
	return string(k)
}
