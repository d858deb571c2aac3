// Package autosave periodically persists the open draft in the
// background and reports the outcome to the Bubble Tea runtime.
package autosave

import (
	"context"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mailcompose/internal/model"
)

// State is the current state of the saver.
type State int

const (
	Idle State = iota
	Saving
	Failed
)

// Status holds the outcome of the last save.
type Status struct {
	State    State
	LastSave time.Time
	Error    error
}

// TickMsg is sent on every interval. The receiver decides whether the
// session changed and, if so, calls Save with a fresh snapshot.
type TickMsg struct {
	At time.Time
}

// SavedMsg is sent when a save completes.
type SavedMsg struct {
	DraftID string
	At      time.Time
	Err     error
}

// DraftStore is the part of the store the saver writes to.
type DraftStore interface {
	SaveDraft(ctx context.Context, d *model.Draft) error
	DeleteDraft(ctx context.Context, id string) error
}

// saveTimeout is the maximum time allowed for a single save.
const saveTimeout = 10 * time.Second

// DefaultInterval is used when the configured interval is not positive.
const DefaultInterval = 30 * time.Second

// Saver owns the autosave goroutine. Snapshots are taken on the UI
// goroutine; the saver only ever sees copies.
type Saver struct {
	store    DraftStore
	interval time.Duration
	msgCh    chan tea.Msg
	saveCh   chan model.Draft
	stopCh   chan struct{}
	now      func() time.Time

	mu      sync.Mutex
	running bool
	status  Status

	// writeMu orders draft writes against Discard.
	writeMu   sync.Mutex
	discarded map[string]struct{}
}

// New creates a saver writing to store every interval.
func New(store DraftStore, interval time.Duration) *Saver {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Saver{
		store:     store,
		interval:  interval,
		msgCh:     make(chan tea.Msg, 16),
		saveCh:    make(chan model.Draft, 1),
		stopCh:    make(chan struct{}),
		now:       time.Now,
		discarded: make(map[string]struct{}),
	}
}

// Start launches the saver goroutine and returns a command that waits
// for its first message.
func (s *Saver) Start() tea.Cmd {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	go s.loop()
	return s.WaitForNext()
}

// Stop halts the saver goroutine. A save in flight completes first.
func (s *Saver) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
}

// Save queues d for saving. Only the newest queued snapshot is kept.
func (s *Saver) Save(d model.Draft) {
	for {
		select {
		case s.saveCh <- d:
			return
		default:
		}
		// Replace the stale snapshot nobody picked up yet.
		select {
		case <-s.saveCh:
		default:
		}
	}
}

// Discard deletes the stored draft id and drops every later write of
// it, including a snapshot already queued or being written. Call it once
// the message was sent.
func (s *Saver) Discard(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.discarded[id] = struct{}{}
	return s.store.DeleteDraft(ctx, id)
}

// Status returns the outcome of the last save.
func (s *Saver) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Saver) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case t := <-ticker.C:
			s.send(TickMsg{At: t})
		case d := <-s.saveCh:
			s.save(d)
		}
	}
}

func (s *Saver) save(d model.Draft) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, gone := s.discarded[d.ID]; gone {
		return
	}
	s.setStatus(Saving, nil)

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := s.store.SaveDraft(ctx, &d); err != nil {
		err = fmt.Errorf("autosaving draft %s: %w", d.ID, err)
		s.setStatus(Failed, err)
		s.send(SavedMsg{DraftID: d.ID, Err: err})
		return
	}

	s.setStatus(Idle, nil)
	s.send(SavedMsg{DraftID: d.ID, At: s.now()})
}

func (s *Saver) setStatus(state State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.State = state
	s.status.Error = err
	if state == Idle && err == nil {
		s.status.LastSave = s.now()
	}
}

// send delivers msg without blocking. A full channel drops the message;
// the next tick brings the UI up to date.
func (s *Saver) send(msg tea.Msg) {
	select {
	case s.msgCh <- msg:
	default:
	}
}

// WaitForNext returns a command that waits for the next saver message.
// Call it again after handling each TickMsg or SavedMsg.
func (s *Saver) WaitForNext() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-s.msgCh
		if !ok {
			return nil
		}
		return msg
	}
}
