package compose

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/mailcompose/internal/recipient"
)

// ConfirmQueue is the recipient.Confirmer of a terminal session. A
// Bubble Tea update cannot block on a dialog, so the request is
// recorded, answered with a cancellation, and replayed through a huh
// form whose answer is applied with List.ApplyHide.
type ConfirmQueue struct {
	pending *recipient.ConfirmRequest
}

// NewConfirmQueue creates an empty queue.
func NewConfirmQueue() *ConfirmQueue {
	return &ConfirmQueue{}
}

// Confirm records req and declines for now.
func (q *ConfirmQueue) Confirm(_ context.Context, req recipient.ConfirmRequest) (recipient.ConfirmResponse, error) {
	q.pending = &req
	return recipient.Cancelled, nil
}

func (q *ConfirmQueue) take() (recipient.ConfirmRequest, bool) {
	if q == nil || q.pending == nil {
		return recipient.ConfirmRequest{}, false
	}
	req := *q.pending
	q.pending = nil
	return req, true
}

// dialog is an open row removal confirmation.
type dialog struct {
	form *huh.Form
	req  recipient.ConfirmRequest
	dir  recipient.Direction

	// accepted lives on the heap so huh's Value pointer survives model
	// copies.
	accepted *bool
}

func (m *Model) openDialog(req recipient.ConfirmRequest, dir recipient.Direction) tea.Cmd {
	text := m.tr.Confirm(req)
	accepted := new(bool)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(text.Title).
				Description(text.Body).
				Affirmative(text.Affirmative).
				Negative(text.Negative).
				Value(accepted),
		),
	).WithWidth(m.dialogWidth()).WithShowHelp(false)

	m.dialog = &dialog{form: form, req: req, dir: dir, accepted: accepted}
	return form.Init()
}

func (m Model) updateDialog(msg tea.Msg) (Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && key.Matches(k, m.keys.Back) {
		m.dialog = nil
		m.syncInput()
		return m, nil
	}

	mdl, cmd := m.dialog.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.dialog.form = f
	}

	switch m.dialog.form.State {
	case huh.StateCompleted:
		d := m.dialog
		m.dialog = nil
		resp := recipient.Cancelled
		if *d.accepted {
			resp = recipient.Accepted
		}
		return m.applyHide(d.req.Kind, resp, d.dir)
	case huh.StateAborted:
		m.dialog = nil
		m.syncInput()
		return m, nil
	}
	return m, cmd
}

func (m Model) dialogWidth() int {
	w := m.width / 2
	if w < 40 {
		w = 40
	}
	return w
}
