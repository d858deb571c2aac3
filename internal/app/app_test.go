package app

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailcompose/internal/addressbook"
	"github.com/nhle/mailcompose/internal/autosave"
	"github.com/nhle/mailcompose/internal/compose"
	"github.com/nhle/mailcompose/internal/locale"
	"github.com/nhle/mailcompose/internal/mailer"
	"github.com/nhle/mailcompose/internal/model"
	"github.com/nhle/mailcompose/internal/recipient"
	"github.com/nhle/mailcompose/internal/store"
	"github.com/nhle/mailcompose/internal/ui/command"
	composeview "github.com/nhle/mailcompose/internal/ui/compose"
	"github.com/nhle/mailcompose/internal/ui/identityform"
	"github.com/nhle/mailcompose/tests/testutil"
)

var (
	home = model.Identity{ID: "home", Name: "Me", Email: "me@home.test"}
	work = model.Identity{ID: "work", Email: "me@work.test", AutoCc: "boss@work.test"}
)

type fakeMailer struct {
	sent    []mailer.Message
	sendErr error
	uploads int
}

func (f *fakeMailer) Send(_ context.Context, _ model.Identity, msg mailer.Message) (mailer.Result, error) {
	if f.sendErr != nil {
		return mailer.Result{}, f.sendErr
	}
	f.sent = append(f.sent, msg)
	rcpts, err := mailer.Recipients(msg.Fields)
	if err != nil {
		return mailer.Result{}, err
	}
	if len(rcpts) == 0 {
		return mailer.Result{}, mailer.ErrNoRecipients
	}
	return mailer.Result{MessageID: "<id@test>", Recipients: rcpts}, nil
}

func (f *fakeMailer) UploadDraft(_ context.Context, _ model.Identity, _ mailer.Message) (string, error) {
	f.uploads++
	return "Drafts", nil
}

type fixture struct {
	app       Model
	store     *store.SQLiteStore
	mailer    *fakeMailer
	passwords map[string]string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := testutil.NewTestStore(t)
	book := addressbook.New(s)
	require.NoError(t, book.Reload(context.Background()))
	tr, err := locale.New("en", nil)
	require.NoError(t, err)

	cfg := &model.AppConfig{Identities: []model.Identity{home, work}}
	confirms := composeview.NewConfirmQueue()
	sess := compose.New(cfg.Compose, home, book,
		compose.WithLabelFunc(tr.RecipientLabel),
		compose.WithConfirmer(confirms),
	)

	f := &fixture{store: s, mailer: &fakeMailer{}, passwords: map[string]string{}}
	f.app = New(Deps{
		Config:     cfg,
		Store:      s,
		Book:       book,
		Mailer:     f.mailer,
		Saver:      autosave.New(s, time.Hour),
		Translator: tr,
		Confirms:   confirms,
		Session:    sess,
		SetPassword: func(id, pw string) error {
			f.passwords[id] = pw
			return nil
		},
	})
	f.update(t, tea.WindowSizeMsg{Width: 100, Height: 30})
	return f
}

func (f *fixture) session() *compose.Session { return f.app.compose.Session() }

// sync reloads the widgets after a test edited the session directly.
func (f *fixture) sync() { f.app.compose.SetSession(f.session()) }

// update applies msg and returns the command it produced.
func (f *fixture) update(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := f.app.Update(msg)
	m, ok := next.(Model)
	require.True(t, ok)
	f.app = m
	return cmd
}

// run executes cmd and feeds every resulting message back, one level
// deep, the way the runtime would.
func (f *fixture) run(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c != nil {
				f.update(t, c())
			}
		}
		return
	}
	f.update(t, msg)
}

func TestSendRecordsContactsAndStartsOver(t *testing.T) {
	f := newFixture(t)
	sess := f.session()
	sess.SetHeader(recipient.KindTo, "Ann <ann@x.test>")
	sess.SetSubject("Hi")
	f.sync()

	f.run(t, f.update(t, composeview.SendRequestMsg{}))

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "Hi", f.mailer.sent[0].Subject)
	assert.Equal(t, "Message sent to 1 recipient", f.app.status)
	assert.Equal(t, "ok", f.app.statusLevel)
	assert.False(t, f.app.sending)

	assert.NotEqual(t, sess.DraftID(), f.session().DraftID())
	assert.Empty(t, f.session().Subject())

	contacts, err := f.store.GetContacts(context.Background())
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "ann@x.test", contacts[0].Email)
	assert.Equal(t, 1, contacts[0].UseCount)
}

func TestSendBlockedByUnresolvedText(t *testing.T) {
	f := newFixture(t)
	f.session().Recipients().SetInput(recipient.KindTo, "nope")
	f.sync()

	cmd := f.update(t, composeview.SendRequestMsg{})

	assert.Nil(t, cmd)
	assert.Empty(t, f.mailer.sent)
	assert.Equal(t, "error", f.app.statusLevel)
	assert.Contains(t, f.app.status, "nope")
}

func TestSendErrorsReachStatusBar(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"auth", &mailer.AuthError{Identity: "home", Message: "535"}, "Authentication failed for Me <me@home.test>"},
		{"no recipients", mailer.ErrNoRecipients, "Add at least one recipient before sending"},
		{"other", errors.New("connection refused"), "Sending failed: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.mailer.sendErr = tt.err
			f.session().SetHeader(recipient.KindTo, "ann@x.test")
			draftID := f.session().DraftID()

			f.run(t, f.update(t, composeview.SendRequestMsg{}))

			assert.Equal(t, tt.want, f.app.status)
			assert.Equal(t, draftID, f.session().DraftID(), "message stays open")
		})
	}
}

func TestSaveDraft(t *testing.T) {
	f := newFixture(t)
	f.session().SetHeader(recipient.KindTo, "ann@x.test")
	f.session().SetSubject("Plans")
	f.sync()

	f.run(t, f.update(t, composeview.SaveRequestMsg{}))

	assert.Equal(t, "Draft saved", f.app.status)
	assert.False(t, f.session().Dirty())

	ctx := context.Background()
	d, err := f.store.GetDraft(ctx, f.session().DraftID())
	require.NoError(t, err)
	assert.Equal(t, "Plans", d.Subject)
	assert.Equal(t, "ann@x.test", d.Header("to"))

	last, err := f.store.GetPref(ctx, store.PrefLastDraft)
	require.NoError(t, err)
	assert.Equal(t, d.ID, last)
	assert.Zero(t, f.mailer.uploads)
}

func TestUploadDraft(t *testing.T) {
	f := newFixture(t)

	f.run(t, f.update(t, composeview.SaveRequestMsg{Upload: true}))

	assert.Equal(t, 1, f.mailer.uploads)
	assert.Equal(t, "Draft saved to Drafts", f.app.status)
}

func TestAutosaveTickSnapshotsDirtySession(t *testing.T) {
	f := newFixture(t)

	f.update(t, autosave.TickMsg{At: time.Now()})
	assert.False(t, f.session().Dirty())

	f.session().SetSubject("x")
	f.sync()
	require.True(t, f.session().Dirty())
	cmd := f.update(t, autosave.TickMsg{At: time.Now()})

	assert.NotNil(t, cmd, "keeps listening to the saver")
	assert.False(t, f.session().Dirty())
}

func TestAutosaveFailureKeepsSessionDirty(t *testing.T) {
	f := newFixture(t)

	f.update(t, autosave.SavedMsg{DraftID: f.session().DraftID(), Err: errors.New("disk full")})

	assert.True(t, f.session().Dirty())
	assert.Equal(t, "warn", f.app.statusLevel)
}

func TestSentDraftStaysDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.session().SetHeader(recipient.KindTo, "ann@x.test")
	f.session().SetSubject("Hi")
	f.sync()
	sent := f.session().Snapshot()
	require.NoError(t, f.store.SaveDraft(ctx, &sent))

	sendCmd := f.update(t, composeview.SendRequestMsg{})
	require.NotNil(t, sendCmd)

	f.update(t, autosave.TickMsg{At: time.Now()})
	assert.True(t, f.session().Dirty(), "no snapshot is taken while sending")
	assert.Nil(t, f.update(t, composeview.SaveRequestMsg{}), "no manual save while sending")

	f.run(t, sendCmd)
	require.Len(t, f.mailer.sent, 1)
	_, err := f.store.GetDraft(ctx, sent.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	// A snapshot queued before the send reaches the saver afterwards.
	saver := f.app.saver
	wait := saver.Start()
	defer saver.Stop()
	saver.Save(sent)
	saver.Save(model.Draft{ID: "next", Subject: "later"})

	saved, ok := wait().(autosave.SavedMsg)
	require.True(t, ok)
	assert.Equal(t, "next", saved.DraftID)
	_, err = f.store.GetDraft(ctx, sent.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestIdentitySwitch(t *testing.T) {
	f := newFixture(t)

	f.run(t, f.update(t, identityform.SelectedMsg{Identity: work, Password: "pw"}))

	assert.Equal(t, ViewCompose, f.app.currentView)
	assert.Equal(t, "work", f.session().Identity().ID)
	assert.Equal(t, "boss@work.test", f.session().Header(recipient.KindCc))
	assert.Equal(t, "Composing as me@work.test", f.app.status)
	assert.Equal(t, "pw", f.passwords["work"])

	last, err := f.store.GetPref(context.Background(), store.PrefLastIdentity)
	require.NoError(t, err)
	assert.Equal(t, "work", last)
}

func TestPaletteShowsAndHidesRows(t *testing.T) {
	f := newFixture(t)
	list := f.session().Recipients()

	f.update(t, command.CommandMsg{Name: command.Show, Arg: "followup"})
	row, ok := list.Row(recipient.KindFollowupTo)
	require.True(t, ok)
	assert.False(t, row.Hidden())

	f.update(t, command.CommandMsg{Name: command.Hide, Arg: "followup"})
	assert.True(t, row.Hidden())

	f.update(t, command.CommandMsg{Name: command.Show, Arg: "X-Nope"})
	assert.Equal(t, "error", f.app.statusLevel)
}

func TestPaletteNewsMode(t *testing.T) {
	f := newFixture(t)

	f.update(t, command.CommandMsg{Name: command.News})
	assert.True(t, f.session().Recipients().NewsMode())

	f.update(t, command.CommandMsg{Name: command.Mail})
	assert.False(t, f.session().Recipients().NewsMode())
}

func TestViewRouting(t *testing.T) {
	f := newFixture(t)

	f.update(t, tea.KeyMsg{Type: tea.KeyF1})
	assert.Equal(t, ViewHelp, f.app.currentView)
	f.update(t, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewCompose, f.app.currentView)

	f.update(t, tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.Equal(t, ViewCommand, f.app.currentView)
	f.update(t, command.ErrorMsg{Err: errors.New("unknown command")})
	assert.Equal(t, ViewCompose, f.app.currentView)
	assert.Equal(t, "unknown command", f.app.status)

	f.update(t, tea.KeyMsg{Type: tea.KeyCtrlB})
	assert.Equal(t, ViewAddressBook, f.app.currentView)
}
