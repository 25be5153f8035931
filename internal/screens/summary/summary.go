package summary

import (
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/practiz/internal/delivery"
	"github.com/abhisek/practiz/internal/practice"
	"github.com/abhisek/practiz/internal/router"
	"github.com/abhisek/practiz/internal/screen"
	"github.com/abhisek/practiz/internal/store"
	"github.com/abhisek/practiz/internal/ui/layout"
	"github.com/abhisek/practiz/internal/ui/theme"
)

// SummaryScreen shows a finished session and where its results went.
type SummaryScreen struct {
	result *practice.Result
	status []store.OutboxMessage
	err    error
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a SummaryScreen. status holds the outbox entries queued for
// the session; err is set when the result could not be stored locally.
func New(result *practice.Result, status []store.OutboxMessage, err error) *SummaryScreen {
	return &SummaryScreen{result: result, status: status, err: err}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Session Summary"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Continue"},
		{Key: "Esc", Description: "Home"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "enter", "esc":
			return s, func() tea.Msg { return router.PopToRootMsg{} }
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	r := s.result
	if r == nil {
		return ""
	}

	var b strings.Builder

	title := "Practice complete!"
	if r.Kind == practice.KindHomework {
		title = "Homework complete!"
	}
	b.WriteString(layout.Centered(title, width, lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)))
	b.WriteString("\n")
	b.WriteString(layout.Centered(r.Name, width, theme.Dim))
	b.WriteString("\n\n")

	d := r.FinishedAt.Sub(r.StartedAt)
	b.WriteString(layout.Centered(fmt.Sprintf("Duration: %d:%02d", int(d.Minutes()), int(d.Seconds())%60), width, theme.Dim))
	b.WriteString("\n\n")

	stats := fmt.Sprintf("Questions: %d        Correct: %d        Wrong: %d        Accuracy: %.0f%%",
		r.Total, r.CorrectCount, r.WrongCount, r.Accuracy()*100)
	b.WriteString(layout.Centered(stats, width, theme.Body))
	b.WriteString("\n\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", min(width-8, 60)))
	b.WriteString(layout.Centered("Questions", width, theme.Dim))
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
	b.WriteString("\n\n")

	for i, q := range r.Questions {
		mark, style := "✓", lipgloss.NewStyle().Foreground(theme.Success)
		if q.Status == practice.StatusWrong {
			mark, style = "✗", lipgloss.NewStyle().Foreground(theme.Error)
		}
		stem := q.Question.StemText
		if w := min(width-30, 40); len([]rune(stem)) > w && w > 3 {
			stem = string([]rune(stem)[:w-3]) + "..."
		}
		line := fmt.Sprintf("%s %2d. %-40s  tries %d", mark, i+1, stem, q.Attempts)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(s.renderDelivery(width))
	return b.String()
}

// renderDelivery reports whether the result reached the portal.
func (s *SummaryScreen) renderDelivery(width int) string {
	if s.err != nil {
		return layout.Centered("Result could not be saved: "+s.err.Error(), width, theme.Incorrect)
	}
	if len(s.status) == 0 {
		return layout.Centered("Result saved.", width, theme.Dim)
	}

	var lines []string
	for _, m := range s.status {
		lines = append(lines, lipgloss.NewStyle().Foreground(statusColor(m.Status)).
			Render(fmt.Sprintf("%s: %s", kindLabel(m.Kind), statusLabel(m.Status))))
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, strings.Join(lines, "\n"))
}

func kindLabel(kind string) string {
	switch kind {
	case delivery.KindHistory:
		return "Result"
	case delivery.KindHomeworkComplete:
		return "Homework hand-in"
	}
	return kind
}

func statusLabel(st store.OutboxStatus) string {
	switch st {
	case store.OutboxDelivered:
		return "sent to the portal"
	case store.OutboxDead:
		return "rejected by the portal"
	}
	return "queued, will retry"
}

func statusColor(st store.OutboxStatus) color.Color {
	switch st {
	case store.OutboxDelivered:
		return theme.Success
	case store.OutboxDead:
		return theme.Error
	}
	return theme.Accent
}
