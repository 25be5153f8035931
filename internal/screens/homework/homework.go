// Package homework lists the learner's pending homework.
package homework

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/practiz/internal/portal"
	engine "github.com/abhisek/practiz/internal/practice"
	"github.com/abhisek/practiz/internal/router"
	"github.com/abhisek/practiz/internal/screen"
	"github.com/abhisek/practiz/internal/screens"
	practicescreen "github.com/abhisek/practiz/internal/screens/practice"
	"github.com/abhisek/practiz/internal/ui/layout"
	"github.com/abhisek/practiz/internal/ui/theme"
)

const loadTimeout = 15 * time.Second

type loadedMsg struct {
	Homework []portal.Homework
	Err      error
}

// Screen shows pending homework; Enter starts the selected one.
type Screen struct {
	svc      *screens.Services
	homework []portal.Homework
	selected int
	loaded   bool
	err      error
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.Resumer = (*Screen)(nil)

// New creates a homework list screen.
func New(svc *screens.Services) *Screen {
	return &Screen{svc: svc}
}

func (s *Screen) Init() tea.Cmd {
	return s.load()
}

// Resume reloads the list; a finished homework drops out of it.
func (s *Screen) Resume() tea.Cmd {
	return s.load()
}

func (s *Screen) load() tea.Cmd {
	svc := s.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		hws, err := svc.Portal.PendingHomeworks(ctx, svc.Learner.UserID)
		return loadedMsg{Homework: hws, Err: err}
	}
}

func (s *Screen) Title() string {
	return "Homework"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Start"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "R", Description: "Reload"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.loaded = true
		s.err = msg.Err
		if msg.Err != nil {
			s.svc.Log().Warnf("load homework: %v", msg.Err)
			return s, nil
		}
		s.homework = msg.Homework
		s.selected = min(s.selected, max(len(s.homework)-1, 0))
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.homework)-1 {
				s.selected++
			}
		case "r", "R":
			s.loaded = false
			return s, s.load()
		case "enter":
			if s.selected < len(s.homework) {
				hw := s.homework[s.selected]
				src := engine.Source{HomeworkID: hw.ID}
				return s, router.Push(practicescreen.New(s.svc, src, hw.Name))
			}
		}
	}
	return s, nil
}

func (s *Screen) View(width, height int) string {
	switch {
	case s.err != nil:
		return layout.Centered(fmt.Sprintf("\n\nCould not load homework: %v\n\nPress R to retry.", s.err), width, lipgloss.NewStyle().Foreground(theme.Error))
	case !s.loaded:
		return layout.Centered("\n\n  Loading homework...", width, theme.Dim)
	case len(s.homework) == 0:
		return layout.Centered("\n\n  All homework done. Nice work!", width, theme.Dim.Italic(true))
	}

	var b strings.Builder
	b.WriteString("\n")
	for i, hw := range s.homework {
		due := ""
		if hw.EndDate != "" {
			due = "due " + hw.EndDate
		}
		line := fmt.Sprintf("%-32s %-18s", truncate(hw.Name, 32), due)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		prefix := "  "
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
			prefix = "▸ "
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(prefix+line)))
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
