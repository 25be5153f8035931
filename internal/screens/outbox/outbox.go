// Package outbox shows results waiting to reach the portal.
package outbox

import (
	"context"
	"fmt"
	"image/color"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/practiz/internal/delivery"
	"github.com/abhisek/practiz/internal/screen"
	"github.com/abhisek/practiz/internal/screens"
	"github.com/abhisek/practiz/internal/store"
	"github.com/abhisek/practiz/internal/ui/layout"
	"github.com/abhisek/practiz/internal/ui/theme"
)

const (
	listLimit    = 100
	flushTimeout = time.Minute
)

type loadedMsg struct {
	Messages []store.OutboxMessage
	Counts   map[store.OutboxStatus]int
	Err      error
}

type flushedMsg struct {
	Report delivery.Report
	Err    error
}

type requeuedMsg struct {
	ID  string
	Err error
}

// Screen lists outbox messages and lets the learner retry them.
type Screen struct {
	svc      *screens.Services
	messages []store.OutboxMessage
	counts   map[store.OutboxStatus]int
	selected int
	expanded map[int]bool
	loaded   bool
	busy     bool
	status   string
	err      error
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates an outbox screen.
func New(svc *screens.Services) *Screen {
	return &Screen{svc: svc, expanded: make(map[int]bool)}
}

func (s *Screen) Init() tea.Cmd {
	return s.load()
}

func (s *Screen) load() tea.Cmd {
	outbox := s.svc.Outbox
	return func() tea.Msg {
		ctx := context.Background()
		msgs, err := outbox.List(ctx, "", listLimit)
		if err != nil {
			return loadedMsg{Err: err}
		}
		counts, err := outbox.Counts(ctx)
		return loadedMsg{Messages: msgs, Counts: counts, Err: err}
	}
}

func (s *Screen) Title() string {
	return "Outbox"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "F", Description: "Send now"},
		{Key: "R", Description: "Retry rejected"},
		{Key: "Enter", Description: "Details"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.loaded = true
		s.err = msg.Err
		s.messages = msg.Messages
		s.counts = msg.Counts
		s.selected = min(s.selected, max(len(s.messages)-1, 0))
		return s, nil

	case flushedMsg:
		s.busy = false
		s.status = flushStatus(msg.Report, msg.Err)
		return s, tea.Batch(s.load(), changed)

	case requeuedMsg:
		s.busy = false
		if msg.Err != nil {
			s.status = "Retry failed: " + msg.Err.Error()
			return s, nil
		}
		s.status = "Queued again. Press F to send."
		return s, tea.Batch(s.load(), changed)

	case tea.KeyMsg:
		if s.busy {
			return s, nil
		}
		switch msg.String() {
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.messages)-1 {
				s.selected++
			}
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
		case "f", "F":
			s.busy = true
			s.status = "Sending..."
			return s, s.flush()
		case "r", "R":
			if s.selected < len(s.messages) && s.messages[s.selected].Status == store.OutboxDead {
				s.busy = true
				return s, s.requeue(s.messages[s.selected].ID)
			}
		}
	}
	return s, nil
}

func changed() tea.Msg { return screens.OutboxChangedMsg{} }

func (s *Screen) flush() tea.Cmd {
	d := s.svc.Delivery
	return func() tea.Msg {
		if d == nil {
			return flushedMsg{}
		}
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		rep, err := d.Flush(ctx)
		return flushedMsg{Report: rep, Err: err}
	}
}

func (s *Screen) requeue(id string) tea.Cmd {
	outbox := s.svc.Outbox
	return func() tea.Msg {
		return requeuedMsg{ID: id, Err: outbox.Requeue(context.Background(), id)}
	}
}

func flushStatus(r delivery.Report, err error) string {
	if err != nil {
		return "Send failed: " + err.Error()
	}
	text := fmt.Sprintf("Sent %d, %d waiting", r.Delivered, r.Pending)
	if r.Dead > 0 {
		text += fmt.Sprintf(", %d rejected", r.Dead)
	}
	if r.LastError != nil {
		text += " (" + r.LastError.Error() + ")"
	}
	return text
}

func (s *Screen) View(width, height int) string {
	switch {
	case s.err != nil:
		return layout.Centered(fmt.Sprintf("\n\nCould not read the outbox: %v", s.err), width, lipgloss.NewStyle().Foreground(theme.Error))
	case !s.loaded:
		return layout.Centered("\n\n  Loading...", width, theme.Dim)
	}

	var b strings.Builder
	b.WriteString("\n")
	counts := fmt.Sprintf("%d waiting   %d sent   %d rejected",
		s.counts[store.OutboxPending], s.counts[store.OutboxDelivered], s.counts[store.OutboxDead])
	b.WriteString(layout.Centered(counts, width, lipgloss.NewStyle().Foreground(theme.ArcadeCyan).Bold(true)))
	b.WriteString("\n\n")

	if len(s.messages) == 0 {
		b.WriteString(layout.Centered("Nothing here yet.", width, theme.Dim.Italic(true)))
	}
	for i, m := range s.messages {
		prefix := "  "
		style := lipgloss.NewStyle().Foreground(statusColor(m.Status))
		if i == s.selected {
			prefix = "▸ "
			style = style.Bold(true)
		}
		line := fmt.Sprintf("%s%s  %-18s  %-10s  tries %d",
			prefix, m.CreatedAt.Local().Format("Jan 02 15:04"), m.Kind, m.Status, m.Attempts)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")
		if s.expanded[i] {
			b.WriteString(s.renderDetail(width, m))
		}
	}

	if s.status != "" {
		b.WriteString("\n")
		b.WriteString(layout.Centered(s.status, width, theme.Warning))
	}
	return b.String()
}

func (s *Screen) renderDetail(width int, m store.OutboxMessage) string {
	lines := []string{
		"session " + m.SessionID,
		fmt.Sprintf("%d bytes, updated %s", len(m.Payload), m.UpdatedAt.Local().Format("Jan 02 15:04:05")),
	}
	if m.LastError != "" {
		lines = append(lines, "last error: "+m.LastError)
	}
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Dim.Render("    "+l)))
		b.WriteString("\n")
	}
	return b.String()
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
