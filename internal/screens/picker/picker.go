// Package picker chooses the subject and grade of a free practice session.
package picker

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	engine "github.com/abhisek/practiz/internal/practice"
	"github.com/abhisek/practiz/internal/question"
	"github.com/abhisek/practiz/internal/router"
	"github.com/abhisek/practiz/internal/screen"
	"github.com/abhisek/practiz/internal/screens"
	practicescreen "github.com/abhisek/practiz/internal/screens/practice"
	"github.com/abhisek/practiz/internal/ui/layout"
	"github.com/abhisek/practiz/internal/ui/theme"
)

// MaxGrade is the highest grade offered.
const MaxGrade = 6

// Screen is a two-column subject and grade picker.
type Screen struct {
	svc      *screens.Services
	subjects []question.Subject // "" means any subject
	subject  int
	grade    int // 0 means any grade
	column   int
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates a picker with any subject and any grade selected.
func New(svc *screens.Services) *Screen {
	return &Screen{
		svc:      svc,
		subjects: append([]question.Subject{""}, question.AllSubjects...),
	}
}

func (s *Screen) Init() tea.Cmd { return nil }

func (s *Screen) Title() string { return "Practice" }

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "←→", Description: "Column"},
		{Key: "↑↓", Description: "Choose"},
		{Key: "Enter", Description: "Start"},
		{Key: "Esc", Description: "Back"},
	}
}

// Source returns the current selection.
func (s *Screen) Source() engine.Source {
	return engine.Source{Subject: s.subjects[s.subject], Grade: s.grade}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	switch kmsg.String() {
	case "left", "h", "shift+tab":
		s.column = 0
	case "right", "l", "tab":
		s.column = 1
	case "up", "k":
		if s.column == 0 && s.subject > 0 {
			s.subject--
		} else if s.column == 1 && s.grade > 0 {
			s.grade--
		}
	case "down", "j":
		if s.column == 0 && s.subject < len(s.subjects)-1 {
			s.subject++
		} else if s.column == 1 && s.grade < MaxGrade {
			s.grade++
		}
	case "enter":
		return s, router.Push(practicescreen.New(s.svc, s.Source(), SessionTitle(s.Source())))
	}
	return s, nil
}

// SessionTitle names a free practice session for src.
func SessionTitle(src engine.Source) string {
	subject := "All subjects"
	if src.Subject != "" {
		subject = src.Subject.DisplayName()
	}
	if src.Grade == 0 {
		return subject
	}
	return fmt.Sprintf("%s · Grade %d", subject, src.Grade)
}

func subjectLabel(sub question.Subject) string {
	if sub == "" {
		return "Any subject"
	}
	return sub.DisplayName()
}

func gradeLabel(g int) string {
	if g == 0 {
		return "Any grade"
	}
	return fmt.Sprintf("Grade %d", g)
}

func (s *Screen) View(width, height int) string {
	subjects := make([]string, len(s.subjects))
	for i, sub := range s.subjects {
		subjects[i] = subjectLabel(sub)
	}
	grades := make([]string, MaxGrade+1)
	for g := range grades {
		grades[g] = gradeLabel(g)
	}

	left := renderColumn("Subject", subjects, s.subject, s.column == 0)
	right := renderColumn("Grade", grades, s.grade, s.column == 1)
	cols := lipgloss.JoinHorizontal(lipgloss.Top, left, "    ", right)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(layout.Centered("What do you want to practice?", width, lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, cols))
	b.WriteString("\n\n")
	b.WriteString(layout.Centered("Session: "+SessionTitle(s.Source()), width, theme.Dim))
	return b.String()
}

func renderColumn(title string, items []string, selected int, active bool) string {
	border := theme.Border
	if active {
		border = theme.ArcadeYellow
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(title))
	b.WriteString("\n\n")
	for i, item := range items {
		style := lipgloss.NewStyle().Foreground(theme.Text)
		prefix := "  "
		if i == selected {
			prefix = "▸ "
			style = style.Bold(true)
			if active {
				style = style.Foreground(theme.Primary)
			}
		}
		b.WriteString(style.Render(prefix + item))
		if i < len(items)-1 {
			b.WriteString("\n")
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(20).
		Padding(0, 1).
		Render(b.String())
}
