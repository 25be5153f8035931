package homework

import (
	"errors"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/practiz/internal/portal"
	"github.com/abhisek/practiz/internal/router"
	"github.com/abhisek/practiz/internal/screens/practice"
	"github.com/abhisek/practiz/internal/screens/screenstest"
)

func load(t *testing.T, s *Screen) {
	t.Helper()
	cmd := s.Init()
	require.NotNil(t, cmd)
	s.Update(cmd())
}

func TestHomeworkScreen_List(t *testing.T) {
	p := &screenstest.Portal{Pending: []portal.Homework{
		{ID: "hw-1", Name: "Fractions", EndDate: "2026-03-10"},
		{ID: "hw-2", Name: "Mixed review"},
	}}
	s := New(screenstest.New(t, p).Services)
	load(t, s)

	view := s.View(100, 30)
	assert.Contains(t, view, "Fractions")
	assert.Contains(t, view, "due 2026-03-10")
	assert.Contains(t, view, "Mixed review")

	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	assert.Equal(t, 1, s.selected)

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	push, ok := cmd().(router.PushScreenMsg)
	require.True(t, ok)
	ps, ok := push.Screen.(*practice.Screen)
	require.True(t, ok)
	assert.Equal(t, "Mixed review", ps.Title())
}

func TestHomeworkScreen_Empty(t *testing.T) {
	s := New(screenstest.New(t, nil).Services)
	load(t, s)

	assert.Contains(t, s.View(100, 30), "All homework done")
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestHomeworkScreen_ErrorAndReload(t *testing.T) {
	p := &screenstest.Portal{Err: errors.New("offline")}
	s := New(screenstest.New(t, p).Services)
	load(t, s)
	assert.Contains(t, s.View(100, 30), "offline")

	p.Err = nil
	p.Pending = []portal.Homework{{ID: "hw-1", Name: "Fractions"}}
	_, cmd := s.Update(tea.KeyPressMsg{Code: 'r', Text: "r"})
	require.NotNil(t, cmd)
	s.Update(cmd())
	assert.Contains(t, s.View(100, 30), "Fractions")
}

func TestHomeworkScreen_ResumeReloads(t *testing.T) {
	p := &screenstest.Portal{Pending: []portal.Homework{{ID: "hw-1", Name: "Fractions"}}}
	s := New(screenstest.New(t, p).Services)
	load(t, s)

	p.Pending = nil
	s.Update(s.Resume()())
	assert.Empty(t, s.homework)
	assert.Equal(t, 0, s.selected)
}
