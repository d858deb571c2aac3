package recipient

import (
	"context"
	"testing"
)

func newTestNavigator(t *testing.T) (*List, *Navigator) {
	t.Helper()
	l := NewList(NewResolver(nil), nil)
	return l, NewNavigator(l, nil)
}

func press(t *testing.T, n *Navigator, k Key) Outcome {
	t.Helper()
	return n.HandleKey(context.Background(), k)
}

func TestBackspaceFocusesThenDeletes(t *testing.T) {
	l, n := newTestNavigator(t)
	l.SetInput(KindTo, "a@x.test")
	l.Commit(KindTo)

	out := press(t, n, Key{Name: "backspace"})
	if out.Action != ActionHandled || out.Removed != 0 {
		t.Fatalf("first backspace = %+v", out)
	}
	f := l.Focus()
	if f.OnInput() || f.Pill.FullAddress != "a@x.test" {
		t.Fatalf("focus = %+v", f)
	}
	if l.TotalPills() != 1 {
		t.Fatalf("first backspace removed a pill")
	}

	out = press(t, n, Key{Name: "backspace"})
	if out.Removed != 1 {
		t.Fatalf("second backspace = %+v", out)
	}
	if l.TotalPills() != 0 {
		t.Fatalf("pill not removed")
	}
	if f := l.Focus(); !f.OnInput() || f.Kind != KindTo {
		t.Fatalf("focus after removal = %+v", f)
	}
}

func TestBackspaceIgnoredWhenNotAtStart(t *testing.T) {
	l, n := newTestNavigator(t)
	l.SetInput(KindTo, "a@x.test")
	l.Commit(KindTo)

	if out := press(t, n, Key{Name: "backspace", Repeat: true}); out.Action != ActionIgnored {
		t.Fatalf("repeated backspace = %+v", out)
	}
	if out := press(t, n, Key{Name: "backspace", Alt: true}); out.Action != ActionIgnored {
		t.Fatalf("alt backspace = %+v", out)
	}

	l.SetInput(KindTo, "x")
	if out := press(t, n, Key{Name: "backspace", Cursor: 1}); out.Action != ActionIgnored {
		t.Fatalf("backspace with text = %+v", out)
	}
	if !l.Focus().OnInput() {
		t.Fatalf("focus left the input")
	}
}

func TestHomeAndLeftPickEnds(t *testing.T) {
	l, n := newTestNavigator(t)
	l.SetInput(KindTo, "a@x.test, b@x.test, c@x.test")
	l.Commit(KindTo)

	press(t, n, Key{Name: "home"})
	if p := l.Focus().Pill; p == nil || p.FullAddress != "a@x.test" {
		t.Fatalf("home focused %+v", p)
	}

	l.FocusInput(KindTo)
	press(t, n, Key{Name: "left"})
	if p := l.Focus().Pill; p == nil || p.FullAddress != "c@x.test" {
		t.Fatalf("left focused %+v", p)
	}
}

func TestBackspaceHidesEmptyRow(t *testing.T) {
	l, n := newTestNavigator(t)
	l.Show(KindCc)

	out := press(t, n, Key{Name: "backspace"})
	if !out.HiddenRow || out.Action != ActionHandled {
		t.Fatalf("outcome = %+v", out)
	}
	if r, _ := l.Row(KindCc); !r.Hidden() {
		t.Fatalf("cc row still visible")
	}
	if f := l.Focus(); f.Kind != KindTo {
		t.Fatalf("focus = %+v", f)
	}

	if out := press(t, n, Key{Name: "backspace"}); out.HiddenRow {
		t.Fatalf("to row hidden by backspace")
	}
}

func TestDeleteHidesTowardsNext(t *testing.T) {
	l, n := newTestNavigator(t)
	l.Show(KindBcc)

	out := press(t, n, Key{Name: "delete"})
	if !out.HiddenRow {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Action != ActionFocusNext {
		t.Fatalf("no row after bcc, expected focus to leave the list: %+v", out)
	}
}

func TestEndFocusesLastPill(t *testing.T) {
	l, n := newTestNavigator(t)
	l.Drop(KindCc, "a@x.test, b@x.test")
	l.FocusInput(KindCc)

	press(t, n, Key{Name: "end"})
	if p := l.Focus().Pill; p == nil || p.FullAddress != "b@x.test" {
		t.Fatalf("end focused %+v", p)
	}
}

func TestCommaCommitsValidPrefix(t *testing.T) {
	l, n := newTestNavigator(t)

	l.SetInput(KindTo, "bob")
	if out := press(t, n, Key{Name: ",", Cursor: 3}); out.Action != ActionIgnored {
		t.Fatalf("comma after invalid text = %+v", out)
	}

	l.SetInput(KindTo, "bob@x.test,")
	if out := press(t, n, Key{Name: ",", Cursor: 11}); out.Action != ActionIgnored {
		t.Fatalf("comma after comma = %+v", out)
	}

	l.SetInput(KindTo, "bob@x.test")
	out := press(t, n, Key{Name: ",", Cursor: 10})
	if out.Action != ActionHandled || out.Committed != 1 {
		t.Fatalf("comma after address = %+v", out)
	}
	if r, _ := l.Row(KindTo); r.Input() != "" || r.Len() != 1 {
		t.Fatalf("row after comma: input=%q len=%d", r.Input(), r.Len())
	}

	if out := press(t, n, Key{Name: ","}); out.Action != ActionIgnored {
		t.Fatalf("comma on empty input = %+v", out)
	}
}

func TestEnter(t *testing.T) {
	l, n := newTestNavigator(t)

	if out := press(t, n, Key{Name: "enter"}); out.Action != ActionFocusNext {
		t.Fatalf("enter on empty input = %+v", out)
	}

	l.SetInput(KindTo, "a@x.test")
	if out := press(t, n, Key{Name: "enter", Ctrl: true}); out.Action != ActionIgnored {
		t.Fatalf("ctrl+enter = %+v", out)
	}

	out := press(t, n, Key{Name: "enter"})
	if out.Action != ActionHandled || out.Committed != 1 {
		t.Fatalf("enter with text = %+v", out)
	}
}

func TestTabCommitsAndLeaves(t *testing.T) {
	l, n := newTestNavigator(t)

	l.SetInput(KindTo, "a@x.test")
	out := press(t, n, Key{Name: "tab"})
	if out.Action != ActionFocusNext || out.Committed != 1 {
		t.Fatalf("tab = %+v", out)
	}

	l.SetInput(KindTo, "b@x.test")
	out = press(t, n, Key{Name: "tab", Shift: true})
	if out.Action != ActionFocusPrevious || out.Committed != 1 {
		t.Fatalf("shift+tab = %+v", out)
	}
}

func TestSpaceClearsBlankInput(t *testing.T) {
	l, n := newTestNavigator(t)

	l.SetInput(KindTo, "   ")
	if out := press(t, n, Key{Name: " "}); out.Action != ActionHandled {
		t.Fatalf("space = %+v", out)
	}
	if r, _ := l.Row(KindTo); r.Input() != "" {
		t.Fatalf("input = %q", r.Input())
	}

	l.SetInput(KindTo, "Bob")
	if out := press(t, n, Key{Name: " ", Cursor: 3}); out.Action != ActionIgnored {
		t.Fatalf("space inside a name = %+v", out)
	}
}

func TestSelectAllFromInput(t *testing.T) {
	l, n := newTestNavigator(t)
	l.SetInput(KindTo, "a@x.test, b@x.test")
	l.Commit(KindTo)

	out := press(t, n, Key{Name: "a", Ctrl: true})
	if out.Action != ActionHandled {
		t.Fatalf("ctrl+a = %+v", out)
	}
	if len(l.Selected()) != 2 {
		t.Fatalf("selected %d", len(l.Selected()))
	}
	if p := l.Focus().Pill; p == nil || p.FullAddress != "b@x.test" {
		t.Fatalf("focus = %+v", p)
	}

	out = press(t, n, Key{Name: "delete"})
	if out.Removed != 2 || l.TotalPills() != 0 {
		t.Fatalf("delete selected = %+v", out)
	}
}

func TestPillArrowKeys(t *testing.T) {
	l, n := newTestNavigator(t)
	l.SetInput(KindTo, "a@x.test, b@x.test")
	l.Commit(KindTo)

	press(t, n, Key{Name: "home"})
	press(t, n, Key{Name: "right"})
	if p := l.Focus().Pill; p == nil || p.FullAddress != "b@x.test" {
		t.Fatalf("right focused %+v", p)
	}
	press(t, n, Key{Name: "right"})
	if !l.Focus().OnInput() {
		t.Fatalf("right past the last pill should reach the input")
	}

	press(t, n, Key{Name: "left"})
	press(t, n, Key{Name: "left"})
	press(t, n, Key{Name: "left"})
	if p := l.Focus().Pill; p == nil || p.FullAddress != "a@x.test" {
		t.Fatalf("left stopped at %+v", p)
	}
}

func TestEnterEditsPill(t *testing.T) {
	l, n := newTestNavigator(t)
	l.SetInput(KindTo, "Ann <ann@x.test>")
	l.Commit(KindTo)

	press(t, n, Key{Name: "home"})
	press(t, n, Key{Name: "enter"})

	r, _ := l.Row(KindTo)
	if r.Len() != 0 || r.Input() != "Ann <ann@x.test>" {
		t.Fatalf("edit: len=%d input=%q", r.Len(), r.Input())
	}
	if !l.Focus().OnInput() {
		t.Fatalf("edit should focus the input")
	}
}

func TestTypingOnPillReturnsToInput(t *testing.T) {
	l, n := newTestNavigator(t)
	l.SetInput(KindTo, "a@x.test")
	l.Commit(KindTo)

	press(t, n, Key{Name: "home"})
	out := press(t, n, Key{Name: "x"})
	if out.Action != ActionIgnored {
		t.Fatalf("typed key = %+v", out)
	}
	if !l.Focus().OnInput() || len(l.Selected()) != 0 {
		t.Fatalf("typing should return to the input and clear selection")
	}
}

func TestDeleteOnPillMovesForward(t *testing.T) {
	l, n := newTestNavigator(t)
	l.SetInput(KindTo, "a@x.test, b@x.test, c@x.test")
	l.Commit(KindTo)

	press(t, n, Key{Name: "home"})
	press(t, n, Key{Name: "right"})
	press(t, n, Key{Name: "delete"})
	if p := l.Focus().Pill; p == nil || p.FullAddress != "c@x.test" {
		t.Fatalf("focus after delete = %+v", p)
	}

	press(t, n, Key{Name: "backspace"})
	if p := l.Focus().Pill; p == nil || p.FullAddress != "a@x.test" {
		t.Fatalf("focus after backspace = %+v", p)
	}
}
