// Package welcome is the splash shown at startup before the first real
// screen.
package welcome

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/practiz/internal/router"
	"github.com/abhisek/practiz/internal/screen"
	"github.com/abhisek/practiz/internal/ui/theme"
)

const (
	tickInterval = 100 * time.Millisecond
	bannerAt     = 400 * time.Millisecond
	greetingAt   = 900 * time.Millisecond
	autoAdvance  = 2500 * time.Millisecond
)

const pencilArt = `    ╱╲
   ╱  ╲
  │ ✎  │
  │    │
  │ A+ │
  └────┘`

var sparkles = []string{"✦", "·", "✧"}

type tickMsg time.Time

// WelcomeScreen plays a short intro and then replaces itself with the
// screen built by next. Any key skips ahead.
type WelcomeScreen struct {
	next     func() screen.Screen
	greeting string
	elapsed  time.Duration
	ticks    int
	done     bool
}

var _ screen.Screen = (*WelcomeScreen)(nil)

// New creates a WelcomeScreen. greeting is shown under the banner, for
// example "Hi mia!" or "Sign in to start".
func New(next func() screen.Screen, greeting string) *WelcomeScreen {
	return &WelcomeScreen{next: next, greeting: greeting}
}

func (w *WelcomeScreen) Title() string {
	return ""
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (w *WelcomeScreen) Init() tea.Cmd {
	return tick()
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg.(type) {
	case tickMsg:
		if w.done {
			return w, nil
		}
		w.elapsed += tickInterval
		w.ticks++
		if w.elapsed >= autoAdvance {
			return w, w.advance()
		}
		return w, tick()

	case tea.KeyPressMsg:
		return w, w.advance()
	}
	return w, nil
}

func (w *WelcomeScreen) advance() tea.Cmd {
	if w.done {
		return nil
	}
	w.done = true
	next := w.next()
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: next}
	}
}

func (w *WelcomeScreen) View(width, height int) string {
	art := lipgloss.NewStyle().Foreground(theme.ArcadeYellow).Render(pencilArt)
	if w.elapsed > 0 {
		sparkle := sparkles[w.ticks%len(sparkles)]
		left := lipgloss.NewStyle().Foreground(theme.ArcadeCyan).Render(sparkle)
		right := lipgloss.NewStyle().Foreground(theme.ArcadePink).Render(sparkle)
		lines := strings.Split(art, "\n")
		lines[0] = left + "  " + lines[0]
		lines[len(lines)-2] = lines[len(lines)-2] + "  " + right
		art = strings.Join(lines, "\n")
	}

	sections := []string{art}
	if w.elapsed >= bannerAt {
		sections = append(sections, "", RenderBanner(width))
	}
	if w.elapsed >= greetingAt {
		sections = append(sections, "",
			lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render("A little practice every day"),
			theme.Dim.Render(w.greeting),
			"",
			lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true).Render("press any key"))
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(sections, "\n"))
}
