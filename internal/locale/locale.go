// Package locale renders the user-visible strings of the composer from
// embedded TOML message files.
package locale

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/nhle/mailcompose/internal/recipient"
)

//go:embed locales/*.toml
var localeFS embed.FS

// Translator localizes message IDs for one language.
type Translator struct {
	loc  *i18n.Localizer
	lang language.Tag
	log  *slog.Logger
}

// NewBundle loads every embedded locale file.
func NewBundle() (*i18n.Bundle, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.Glob(localeFS, "locales/*.toml")
	if err != nil {
		return nil, fmt.Errorf("listing locale files: %w", err)
	}
	for _, f := range files {
		if _, err := bundle.LoadMessageFileFS(localeFS, f); err != nil {
			return nil, fmt.Errorf("loading locale %s: %w", f, err)
		}
	}
	return bundle, nil
}

// New returns a translator for lang ("en", "de-CH", ...). Unknown
// languages fall back to English.
func New(lang string, log *slog.Logger) (*Translator, error) {
	bundle, err := NewBundle()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	tag := language.English
	if lang != "" {
		parsed, err := language.Parse(lang)
		if err != nil {
			log.Warn("unknown locale, using English", "locale", lang, "err", err)
		} else {
			tag = parsed
		}
	}

	return &Translator{
		loc:  i18n.NewLocalizer(bundle, tag.String(), language.English.String()),
		lang: tag,
		log:  log,
	}, nil
}

// Language returns the requested language tag.
func (t *Translator) Language() language.Tag { return t.lang }

// T translates a message ID.
func (t *Translator) T(id string) string {
	return t.localize(&i18n.LocalizeConfig{MessageID: id})
}

// TData translates a message ID with template data.
func (t *Translator) TData(id string, data map[string]any) string {
	return t.localize(&i18n.LocalizeConfig{MessageID: id, TemplateData: data})
}

// TPlural translates a message ID with plural support. Count is added
// to data.
func (t *Translator) TPlural(id string, count int, data map[string]any) string {
	td := map[string]any{"Count": count}
	for k, v := range data {
		td[k] = v
	}
	return t.localize(&i18n.LocalizeConfig{
		MessageID:    id,
		PluralCount:  count,
		TemplateData: td,
	})
}

func (t *Translator) localize(cfg *i18n.LocalizeConfig) string {
	msg, err := t.loc.Localize(cfg)
	if err != nil {
		t.log.Debug("translation failed", "id", cfg.MessageID, "err", err)
		return cfg.MessageID
	}
	return msg
}

var rowMessages = map[recipient.Kind]string{
	recipient.KindTo:         "RowTo",
	recipient.KindCc:         "RowCc",
	recipient.KindBcc:        "RowBcc",
	recipient.KindReplyTo:    "RowReplyTo",
	recipient.KindNewsgroups: "RowNewsgroups",
	recipient.KindFollowupTo: "RowFollowupTo",
}

// RowLabel returns the label shown in front of a row. Custom header rows
// are labelled with their header name.
func (t *Translator) RowLabel(kind recipient.Kind) string {
	if id, ok := rowMessages[kind]; ok {
		return t.T(id)
	}
	return kind.HeaderName()
}

// RecipientLabel is a recipient.LabelFunc producing the accessible row
// summary.
func (t *Translator) RecipientLabel(kind recipient.Kind, count int) string {
	return t.TPlural("RecipientCount", count, map[string]any{"Header": t.RowLabel(kind)})
}

// ConfirmText holds the strings of the row removal dialog.
type ConfirmText struct {
	Title       string
	Body        string
	Affirmative string
	Negative    string
}

// Confirm localizes a row removal confirmation.
func (t *Translator) Confirm(req recipient.ConfirmRequest) ConfirmText {
	header := t.RowLabel(req.Kind)
	return ConfirmText{
		Title:       t.TData("ConfirmRemoveTitle", map[string]any{"Header": header}),
		Body:        t.TPlural("ConfirmRemoveBody", req.PillCount, map[string]any{"Header": header}),
		Affirmative: t.T("ConfirmRemoveAccept"),
		Negative:    t.T("ConfirmRemoveCancel"),
	}
}
