package app

import (
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mailcompose/internal/addressbook"
	"github.com/nhle/mailcompose/internal/autosave"
	"github.com/nhle/mailcompose/internal/compose"
	"github.com/nhle/mailcompose/internal/credential"
	"github.com/nhle/mailcompose/internal/keys"
	"github.com/nhle/mailcompose/internal/locale"
	"github.com/nhle/mailcompose/internal/model"
	"github.com/nhle/mailcompose/internal/store"
	"github.com/nhle/mailcompose/internal/ui"
	"github.com/nhle/mailcompose/internal/ui/abook"
	"github.com/nhle/mailcompose/internal/ui/command"
	composeview "github.com/nhle/mailcompose/internal/ui/compose"
	helpview "github.com/nhle/mailcompose/internal/ui/help"
	"github.com/nhle/mailcompose/internal/ui/identityform"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewCompose ViewState = iota
	ViewHelp
	ViewCommand
	ViewAddressBook
	ViewIdentity
)

// Deps are the services the application is built from.
type Deps struct {
	Config     *model.AppConfig
	Store      store.Store
	Book       *addressbook.Book
	Mailer     Mailer
	Saver      *autosave.Saver
	Translator *locale.Translator
	Confirms   *composeview.ConfirmQueue
	Session    *compose.Session
	Log        *slog.Logger

	// NewSession opens a blank message after a send. Defaults to an
	// empty session for the same identity.
	NewSession func(id model.Identity) *compose.Session

	// SetPassword stores an identity password. Defaults to the system
	// keyring.
	SetPassword func(identityID, password string) error
}

// Model is the root Bubble Tea model that manages view routing,
// layout, and access to the services.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	cfg         *model.AppConfig
	store       store.Store
	book        *addressbook.Book
	mailer      Mailer
	saver       *autosave.Saver
	tr          *locale.Translator
	log         *slog.Logger
	newSession  func(id model.Identity) *compose.Session
	setPassword func(identityID, password string) error

	compose      composeview.Model
	helpView     helpview.Model
	commandView  command.Model
	bookView     abook.Model
	identityView identityform.Model

	ready       bool
	sending     bool
	status      string
	statusLevel string
}

// New creates the root application model.
func New(d Deps) Model {
	km := keys.DefaultKeyMap()
	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	m := Model{
		currentView: ViewCompose,
		keys:        km,
		cfg:         d.Config,
		store:       d.Store,
		book:        d.Book,
		mailer:      d.Mailer,
		saver:       d.Saver,
		tr:          d.Translator,
		log:         log,
		newSession:  d.NewSession,
		setPassword: d.SetPassword,

		compose:      composeview.New(d.Session, d.Confirms, d.Book, d.Translator, km, log, 80, 24),
		helpView:     helpview.New(km, 80, 24),
		commandView:  command.New(80, 24),
		bookView:     abook.New(d.Store, d.Book, km, 80, 24),
		identityView: identityform.New(d.Config.Identities, 80, 24),
	}

	if m.newSession == nil {
		cfg := d.Config.Compose
		book, confirms, tr := d.Book, d.Confirms, d.Translator
		m.newSession = func(id model.Identity) *compose.Session {
			return compose.New(cfg, id, book,
				compose.WithLabelFunc(tr.RecipientLabel),
				compose.WithConfirmer(confirms),
				compose.WithLogger(log),
			)
		}
	}
	if m.setPassword == nil {
		m.setPassword = credential.Set
	}
	return m
}

// Init starts the cursor blink and the autosave timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.compose.Init(),
		m.saver.Start(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.compose.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		m.bookView.SetSize(contentWidth, contentHeight)
		m.identityView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case composeview.SendRequestMsg:
		return m.handleSend()

	case composeview.SaveRequestMsg:
		if m.sending {
			return m, nil
		}
		return m, m.saveDraft(msg.Upload)

	case composeview.StatusMsg:
		m.setStatus(msg.Text, msg.Level)
		return m, nil

	case sendResultMsg:
		return m.handleSendResult(msg)

	case draftSavedMsg:
		return m.handleDraftSaved(msg)

	case autosave.TickMsg:
		if m.sending {
			// The send decides the draft's fate.
			return m, m.saver.WaitForNext()
		}
		m.compose = m.compose.Flush()
		if s := m.compose.Session(); s.Dirty() {
			m.saver.Save(s.Snapshot())
			s.MarkSaved()
		}
		return m, m.saver.WaitForNext()

	case autosave.SavedMsg:
		if msg.Err != nil {
			m.log.Warn("autosave failed", "draft", msg.DraftID, "err", msg.Err)
			m.setStatus(msg.Err.Error(), "warn")
			// Try again on the next tick.
			m.compose.Session().MarkDirty()
		}
		return m, m.saver.WaitForNext()

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(msg)

	case command.ErrorMsg:
		m.currentView = m.previousView
		m.setStatus(msg.Err.Error(), "error")
		return m, nil

	case abook.CloseMsg:
		m.currentView = ViewCompose
		return m, nil

	case abook.PickedMsg:
		m.currentView = ViewCompose
		m.compose.Insert(msg.Address)
		return m, nil

	case abook.ChangedMsg:
		return m, m.reloadBook()

	case bookReloadedMsg:
		if msg.err != nil {
			m.setStatus(msg.err.Error(), "error")
		}
		return m, m.bookView.Reload()

	case identityform.SelectedMsg:
		m.currentView = ViewCompose
		return m.switchIdentity(msg.Identity, msg.Password)

	case identityform.CancelMsg:
		m.currentView = ViewCompose
		return m, nil

	case prefSavedMsg:
		if msg.err != nil {
			m.log.Warn("saving preference failed", "err", msg.err)
		}
		return m, nil

	case passwordSavedMsg:
		if msg.err != nil {
			m.setStatus(msg.err.Error(), "error")
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m.quit()
		}
		// The removal dialog owns the keyboard until it closes.
		if m.currentView == ViewCompose && m.compose.DialogOpen() {
			break
		}
		if m.currentView == ViewCompose {
			m.status = ""
		}

		switch {
		case key.Matches(msg, m.keys.Help):
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case key.Matches(msg, m.keys.Command):
			if m.currentView == ViewCommand {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewCommand
			cmd := m.commandView.Focus()
			return m, cmd

		case key.Matches(msg, m.keys.AddressBook):
			if m.currentView == ViewCompose {
				cmd := m.openAddressBook()
				return m, cmd
			}

		case key.Matches(msg, m.keys.Identity):
			if m.currentView == ViewCompose {
				cmd := m.openIdentity()
				return m, cmd
			}

		case key.Matches(msg, m.keys.Back):
			switch m.currentView {
			case ViewHelp, ViewCommand:
				m.currentView = m.previousView
				return m, nil
			case ViewIdentity:
				m.currentView = ViewCompose
				return m, nil
			}
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewCompose:
		m.compose, cmd = m.compose.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewAddressBook:
		m.bookView, cmd = m.bookView.Update(msg)
	case ViewIdentity:
		m.identityView, cmd = m.identityView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := "mailcompose: " + m.compose.Session().Identity().From()
	header := m.layout.RenderHeader(title, m.saveState())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.status, m.statusLevel)

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewCompose:
		return m.compose.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewAddressBook:
		return m.bookView.View()
	case ViewIdentity:
		return m.identityView.View()
	default:
		return ""
	}
}

// saveState describes the draft for the header.
func (m Model) saveState() string {
	if m.sending {
		return "sending..."
	}
	st := m.saver.Status()
	switch {
	case st.State == autosave.Saving:
		return "saving..."
	case st.State == autosave.Failed:
		return "autosave failed"
	case m.compose.Session().Dirty():
		return "modified"
	case !st.LastSave.IsZero():
		return fmt.Sprintf("saved %s", st.LastSave.Format("15:04"))
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "f1 close help | esc back"
	case ViewCommand:
		return "enter execute | right complete | esc back"
	case ViewAddressBook:
		return "enter address | n new | l list | e edit | d delete | esc back"
	case ViewIdentity:
		return "enter select | esc cancel"
	default:
		return "ctrl+s send | ctrl+d save | ctrl+b contacts | ctrl+o from | ctrl+r more | ctrl+p commands | f1 help"
	}
}

func (m *Model) setStatus(text, level string) {
	m.status = text
	m.statusLevel = level
}

func (m *Model) openAddressBook() tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewAddressBook
	return m.bookView.Init()
}

func (m *Model) openIdentity() tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewIdentity
	return m.identityView.Start(m.compose.Session().Identity().ID)
}

// quit stops autosave and leaves, saving the draft first when it has
// unsaved changes.
func (m Model) quit() (tea.Model, tea.Cmd) {
	m.saver.Stop()
	m.compose = m.compose.Flush()
	if m.compose.Session().Dirty() {
		return m, tea.Sequence(m.saveDraft(false), tea.Quit)
	}
	return m, tea.Quit
}
