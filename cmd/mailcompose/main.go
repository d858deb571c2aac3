package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mailcompose/internal/addressbook"
	"github.com/nhle/mailcompose/internal/app"
	"github.com/nhle/mailcompose/internal/autosave"
	"github.com/nhle/mailcompose/internal/compose"
	"github.com/nhle/mailcompose/internal/credential"
	"github.com/nhle/mailcompose/internal/locale"
	"github.com/nhle/mailcompose/internal/mailer"
	"github.com/nhle/mailcompose/internal/model"
	"github.com/nhle/mailcompose/internal/recipient"
	"github.com/nhle/mailcompose/internal/store"
	"github.com/nhle/mailcompose/internal/theme"
	composeview "github.com/nhle/mailcompose/internal/ui/compose"
)

type composeFlags struct {
	configPath     string
	dbPath         string
	logPath        string
	identity       string
	to             string
	cc             string
	bcc            string
	subject        string
	draft          string
	resume         bool
	listDrafts     bool
	forgetPassword string
}

func main() {
	cfg := parseFlags()
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "mailcompose: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() composeFlags {
	dataDir := model.DefaultDataDir()
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config.yaml")
	dbPath := flag.String("db", filepath.Join(dataDir, "mailcompose.db"), "path to the SQLite database")
	logPath := flag.String("log", filepath.Join(dataDir, "mailcompose.log"), "path to the log file")
	identity := flag.String("identity", "", "identity ID to send as")
	to := flag.String("to", "", "initial To addresses")
	cc := flag.String("cc", "", "initial Cc addresses")
	bcc := flag.String("bcc", "", "initial Bcc addresses")
	subject := flag.String("subject", "", "initial subject")
	draft := flag.String("draft", "", "ID of a saved draft to reopen")
	resume := flag.Bool("resume", false, "reopen the last saved draft")
	listDrafts := flag.Bool("drafts", false, "list saved drafts and exit")
	forget := flag.String("forget-password", "", "remove the stored password of an identity and exit")
	flag.Parse()

	return composeFlags{
		configPath:     *configPath,
		dbPath:         *dbPath,
		logPath:        *logPath,
		identity:       *identity,
		to:             *to,
		cc:             *cc,
		bcc:            *bcc,
		subject:        *subject,
		draft:          *draft,
		resume:         *resume,
		listDrafts:     *listDrafts,
		forgetPassword: *forget,
	}
}

func run(f composeFlags) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if f.forgetPassword != "" {
		return credential.Delete(f.forgetPassword)
	}

	log, closeLog, err := openLog(f.logPath)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(log)

	cfg, err := model.LoadConfig(f.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if len(cfg.Identities) == 0 {
		return writeSampleConfig(f.configPath, cfg)
	}
	if err := theme.Use(cfg.Display.Theme); err != nil {
		log.Warn("unknown theme, using default", "theme", cfg.Display.Theme, "err", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.dbPath), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	s, err := store.NewSQLiteStore(f.dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	if f.listDrafts {
		return printDrafts(ctx, s)
	}

	book := addressbook.New(s)
	if err := book.Reload(ctx); err != nil {
		return fmt.Errorf("load address book: %w", err)
	}

	tr, err := locale.New(cfg.Compose.Locale, log)
	if err != nil {
		return fmt.Errorf("load translations: %w", err)
	}

	draft, err := loadDraft(ctx, s, f)
	if err != nil {
		return err
	}

	id := pickIdentity(ctx, cfg, s, f.identity, draft, log)
	confirms := composeview.NewConfirmQueue()
	sess := compose.New(cfg.Compose, id, book,
		compose.WithLabelFunc(tr.RecipientLabel),
		compose.WithConfirmer(confirms),
		compose.WithLogger(log),
	)
	if draft != nil {
		sess.Restore(*draft)
	} else {
		prefill(sess, f)
	}

	saver := autosave.New(s, time.Duration(cfg.Display.AutosaveIntervalSec)*time.Second)
	defer saver.Stop()

	root := app.New(app.Deps{
		Config:     cfg,
		Store:      s,
		Book:       book,
		Mailer:     mailer.New(book, credential.NewKeyring(), log),
		Saver:      saver,
		Translator: tr,
		Confirms:   confirms,
		Session:    sess,
		Log:        log,
	})

	log.Info("compose started", "identity", id.ID, "draft", sess.DraftID())
	p := tea.NewProgram(root, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

func openLog(path string) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	log := slog.New(slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelInfo}))
	return log, func() { _ = file.Close() }, nil
}

// writeSampleConfig leaves an example identity behind for a first run.
func writeSampleConfig(path string, cfg *model.AppConfig) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("no identities configured in %s", path)
	}
	cfg.Identities = []model.Identity{{
		ID:       "personal",
		Name:     "Your Name",
		Email:    "you@example.com",
		SMTPHost: "smtp.example.com",
		SMTPPort: 587,
		IMAPHost: "imap.example.com",
		IMAPPort: 993,
	}}
	if err := model.SaveConfig(path, cfg); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return fmt.Errorf("no identities configured; edit the sample written to %s", path)
}

func printDrafts(ctx context.Context, s *store.SQLiteStore) error {
	drafts, err := s.GetDrafts(ctx)
	if err != nil {
		return fmt.Errorf("list drafts: %w", err)
	}
	for _, d := range drafts {
		subject := d.Subject
		if subject == "" {
			subject = "(no subject)"
		}
		fmt.Printf("%s  %s  %-10s  %s\n",
			d.ID, d.UpdatedAt.Local().Format("2006-01-02 15:04"), d.IdentityID, subject)
	}
	return nil
}

func loadDraft(ctx context.Context, s *store.SQLiteStore, f composeFlags) (*model.Draft, error) {
	id := f.draft
	if id == "" && f.resume {
		last, err := s.GetPref(ctx, store.PrefLastDraft)
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("find last draft: %w", err)
		}
		id = last
	}
	if id == "" {
		return nil, nil
	}

	d, err := s.GetDraft(ctx, id)
	if err != nil {
		if f.resume && errors.Is(err, store.ErrNotFound) {
			// The last draft was sent since.
			return nil, nil
		}
		return nil, fmt.Errorf("open draft: %w", err)
	}
	return d, nil
}

// pickIdentity prefers the -identity flag, then the draft's identity,
// then the last one used, then the first configured.
func pickIdentity(
	ctx context.Context,
	cfg *model.AppConfig,
	s *store.SQLiteStore,
	flagID string,
	draft *model.Draft,
	log *slog.Logger,
) model.Identity {
	candidates := []string{flagID}
	if draft != nil {
		candidates = append(candidates, draft.IdentityID)
	}
	if last, err := s.GetPref(ctx, store.PrefLastIdentity); err == nil {
		candidates = append(candidates, last)
	}

	for _, c := range candidates {
		if c == "" {
			continue
		}
		if id, ok := cfg.Identity(c); ok {
			return id
		}
		log.Warn("identity not configured", "identity", c)
	}
	return cfg.Identities[0]
}

func prefill(sess *compose.Session, f composeFlags) {
	rows := []struct {
		kind recipient.Kind
		text string
	}{
		{recipient.KindTo, f.to},
		{recipient.KindCc, f.cc},
		{recipient.KindBcc, f.bcc},
	}
	for _, r := range rows {
		if r.text == "" {
			continue
		}
		if rest := sess.Recipients().AddText(r.kind, r.text, false); rest != "" {
			sess.Recipients().SetInput(r.kind, rest)
		}
	}
	sess.SetSubject(f.subject)
	sess.MarkSaved()
}
