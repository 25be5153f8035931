package welcome

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/practiz/internal/router"
	"github.com/abhisek/practiz/internal/screen"
)

type stubScreen struct{}

func (s *stubScreen) Init() tea.Cmd                          { return nil }
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                   { return "home" }
func (s *stubScreen) Title() string                          { return "Home" }

func newWelcome() (*WelcomeScreen, *int) {
	calls := 0
	return New(func() screen.Screen {
		calls++
		return &stubScreen{}
	}, "Hi mia!"), &calls
}

func sendTicks(w *WelcomeScreen, n int) tea.Cmd {
	var cmd tea.Cmd
	for range n {
		_, cmd = w.Update(tickMsg(time.Now()))
	}
	return cmd
}

func TestWelcome_Phases(t *testing.T) {
	w, _ := newWelcome()
	assert.NotContains(t, w.View(80, 24), "|  _ \\")

	sendTicks(w, 4)
	view := w.View(80, 24)
	assert.Contains(t, view, "|  _ \\")
	assert.NotContains(t, view, "Hi mia!")

	sendTicks(w, 5)
	assert.Contains(t, w.View(80, 24), "Hi mia!")
}

func TestWelcome_CompactBanner(t *testing.T) {
	assert.Equal(t, bannerCompact, strings.TrimSpace(ansi.Strip(RenderBanner(40))))
}

func TestWelcome_KeySkips(t *testing.T) {
	w, calls := newWelcome()
	sendTicks(w, 2)

	_, cmd := w.Update(tea.KeyPressMsg{Code: ' ', Text: " "})
	require.NotNil(t, cmd)
	msg, ok := cmd().(router.ReplaceScreenMsg)
	require.True(t, ok)
	assert.NotNil(t, msg.Screen)
	assert.Equal(t, 1, *calls)

	_, cmd = w.Update(tea.KeyPressMsg{Code: 'a', Text: "a"})
	assert.Nil(t, cmd, "only advances once")
	assert.Equal(t, 1, *calls)
}

func TestWelcome_AutoAdvance(t *testing.T) {
	w, calls := newWelcome()
	n := int(autoAdvance / tickInterval)

	cmd := sendTicks(w, n-1)
	assert.Equal(t, 0, *calls)
	require.NotNil(t, cmd)

	cmd = sendTicks(w, 1)
	require.NotNil(t, cmd)
	_, ok := cmd().(router.ReplaceScreenMsg)
	assert.True(t, ok)
	assert.Equal(t, 1, *calls)

	assert.Nil(t, sendTicks(w, 1), "ticks stop after advancing")
}

func TestWelcome_TitleEmpty(t *testing.T) {
	w, _ := newWelcome()
	assert.Empty(t, w.Title())
}
