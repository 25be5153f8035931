package router

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/practiz/internal/screen"
)

// stubScreen is a minimal screen for testing.
type stubScreen struct {
	title   string
	initRan bool
	closed  bool
}

func (s *stubScreen) Close() { s.closed = true }

func (s *stubScreen) Init() tea.Cmd {
	s.initRan = true
	return nil
}
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                    { return s.title }
func (s *stubScreen) Title() string                           { return s.title }

func TestPush(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	s2 := &stubScreen{title: "second"}
	r.Push(s2)

	if r.Depth() != 2 {
		t.Errorf("expected depth 2, got %d", r.Depth())
	}
	if r.Active().Title() != "second" {
		t.Errorf("expected active 'second', got %q", r.Active().Title())
	}
	if !s2.initRan {
		t.Error("expected Init() to run on pushed screen")
	}
}

func TestPop(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	s2 := &stubScreen{title: "second"}
	r.Push(s2)
	r.Pop()

	if r.Depth() != 1 {
		t.Errorf("expected depth 1, got %d", r.Depth())
	}
	if r.Active().Title() != "first" {
		t.Errorf("expected active 'first', got %q", r.Active().Title())
	}
}

func TestPopNoopAtBottom(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	r.Pop()

	if r.Depth() != 1 {
		t.Errorf("expected depth 1 after pop at bottom, got %d", r.Depth())
	}
}

func TestReplace(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	s2 := &stubScreen{title: "second"}
	r.Replace(s2)

	if r.Depth() != 1 {
		t.Errorf("expected depth 1 after replace, got %d", r.Depth())
	}
	if r.Active().Title() != "second" {
		t.Errorf("expected active 'second', got %q", r.Active().Title())
	}
	if !s2.initRan {
		t.Error("expected Init() to run on replaced screen")
	}
}

func TestReplaceScreenMsg(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	s2 := &stubScreen{title: "second"}
	r.Update(ReplaceScreenMsg{Screen: s2})

	if r.Active().Title() != "second" {
		t.Errorf("expected active 'second', got %q", r.Active().Title())
	}
	if !s2.initRan {
		t.Error("expected Init() to run via ReplaceScreenMsg")
	}
}

func TestReplacePreservesStackDepth(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	s2 := &stubScreen{title: "second"}
	r.Push(s2)

	s3 := &stubScreen{title: "third"}
	r.Replace(s3)

	if r.Depth() != 2 {
		t.Errorf("expected depth 2, got %d", r.Depth())
	}
	if r.Active().Title() != "third" {
		t.Errorf("expected active 'third', got %q", r.Active().Title())
	}
}

func TestPopClosesScreen(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)
	s2 := &stubScreen{title: "second"}
	r.Push(s2)

	r.Update(PopScreenMsg{})

	if !s2.closed {
		t.Error("expected popped screen to be closed")
	}
	if s1.closed {
		t.Error("root screen must stay open")
	}
}

func TestPopToRoot(t *testing.T) {
	root := &stubScreen{title: "home"}
	r := New(root)
	screens := []*stubScreen{{title: "a"}, {title: "b"}, {title: "c"}}
	for _, s := range screens {
		r.Push(s)
	}

	r.Update(PopToRootMsg{})

	if r.Depth() != 1 || r.Active().Title() != "home" {
		t.Errorf("expected only home on the stack, got depth %d active %q", r.Depth(), r.Active().Title())
	}
	for _, s := range screens {
		if !s.closed {
			t.Errorf("screen %q not closed", s.title)
		}
	}
}

func TestReset(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)
	r.Push(&stubScreen{title: "second"})

	login := &stubScreen{title: "login"}
	r.Update(ResetMsg{Screen: login})

	if r.Depth() != 1 {
		t.Errorf("expected depth 1 after reset, got %d", r.Depth())
	}
	if !s1.closed {
		t.Error("expected old root to be closed")
	}
	if !login.initRan {
		t.Error("expected Init() to run on the new root")
	}
}

type resumingScreen struct {
	stubScreen
	resumed int
}

func (s *resumingScreen) Resume() tea.Cmd {
	s.resumed++
	return nil
}

func TestResumeOnReturn(t *testing.T) {
	root := &resumingScreen{stubScreen: stubScreen{title: "home"}}
	r := New(root)

	r.Push(&stubScreen{title: "a"})
	r.Update(PopScreenMsg{})
	if root.resumed != 1 {
		t.Errorf("resumed = %d after pop, want 1", root.resumed)
	}

	r.Push(&stubScreen{title: "a"})
	r.Push(&stubScreen{title: "b"})
	r.Update(PopToRootMsg{})
	if root.resumed != 2 {
		t.Errorf("resumed = %d after pop to root, want 2", root.resumed)
	}

	r.Update(PopToRootMsg{})
	if root.resumed != 2 {
		t.Errorf("pop to root at the bottom must not resume, got %d", root.resumed)
	}
}

func TestCloseAll(t *testing.T) {
	s1 := &stubScreen{title: "home"}
	s2 := &stubScreen{title: "session"}
	r := New(s1)
	r.Push(s2)

	r.CloseAll()
	if !s1.closed || !s2.closed {
		t.Error("expected every screen to be closed")
	}
	if r.Depth() != 2 {
		t.Errorf("CloseAll must keep the stack, depth = %d", r.Depth())
	}
}
