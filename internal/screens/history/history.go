package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/practiz/internal/portal"
	"github.com/abhisek/practiz/internal/screen"
	"github.com/abhisek/practiz/internal/screens"
	"github.com/abhisek/practiz/internal/store"
	"github.com/abhisek/practiz/internal/ui/layout"
	"github.com/abhisek/practiz/internal/ui/theme"
)

// PageSize is the number of portal records per page.
const PageSize = 10

const loadTimeout = 15 * time.Second

type tab int

const (
	tabPortal tab = iota
	tabLocal
)

type remoteLoadedMsg struct {
	Page *portal.HistoryPage
	Err  error
}

// localSession is one session from the local event log.
type localSession struct {
	store.SessionEventRecord
	Answers []store.AnswerEventRecord
	Rewards []store.RewardEventRecord
}

type localLoadedMsg struct {
	Sessions []localSession
	Err      error
}

// HistoryScreen shows the learner's saved results from the portal and the
// sessions recorded on this machine.
type HistoryScreen struct {
	svc *screens.Services
	tab tab

	page       int
	total      int64
	remote     []portal.HistoryEntry
	remoteDone bool
	remoteErr  error

	local     []localSession
	localDone bool
	localErr  error

	selected int
	expanded map[int]bool
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a HistoryScreen.
func New(svc *screens.Services) *HistoryScreen {
	return &HistoryScreen{svc: svc, page: 1, expanded: make(map[int]bool)}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return tea.Batch(s.loadRemote(s.page), s.loadLocal())
}

func (s *HistoryScreen) loadRemote(page int) tea.Cmd {
	p := s.svc.Portal
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		hp, err := p.History(ctx, page, PageSize)
		return remoteLoadedMsg{Page: hp, Err: err}
	}
}

func (s *HistoryScreen) loadLocal() tea.Cmd {
	events := s.svc.Events
	learner := s.svc.Learner.UserID
	return func() tea.Msg {
		if events == nil {
			return localLoadedMsg{}
		}
		ctx := context.Background()
		recs, err := events.QuerySessionEvents(ctx, store.QueryOpts{Limit: 200})
		if err != nil {
			return localLoadedMsg{Err: err}
		}
		var out []localSession
		for _, r := range recs {
			if r.Action == store.SessionStart || r.LearnerID != learner {
				continue
			}
			ls := localSession{SessionEventRecord: r}
			if ls.Answers, err = events.SessionAnswers(ctx, r.SessionID); err != nil {
				return localLoadedMsg{Err: err}
			}
			if ls.Rewards, err = events.SessionRewards(ctx, r.SessionID); err != nil {
				return localLoadedMsg{Err: err}
			}
			out = append(out, ls)
			if len(out) == 50 {
				break
			}
		}
		return localLoadedMsg{Sessions: out}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "Tab", Description: "Portal/Local"},
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
	}
	if s.tab == tabPortal {
		hints = append(hints, layout.KeyHint{Key: "N/P", Description: "Page"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
}

func (s *HistoryScreen) pages() int {
	return max(1, int((s.total+PageSize-1)/PageSize))
}

func (s *HistoryScreen) rows() int {
	if s.tab == tabPortal {
		return len(s.remote)
	}
	return len(s.local)
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case remoteLoadedMsg:
		s.remoteDone = true
		s.remoteErr = msg.Err
		if msg.Err != nil {
			s.svc.Log().Warnf("load history page %d: %v", s.page, msg.Err)
			return s, nil
		}
		s.remote = msg.Page.List
		s.total = msg.Page.Total
		if s.tab == tabPortal {
			s.resetSelection()
		}
		return s, nil

	case localLoadedMsg:
		s.localDone = true
		s.localErr = msg.Err
		s.local = msg.Sessions
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "tab":
			s.tab = 1 - s.tab
			s.resetSelection()
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < s.rows()-1 {
				s.selected++
			}
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
		case "n", "right":
			if s.tab == tabPortal && s.page < s.pages() {
				s.page++
				s.remoteDone = false
				return s, s.loadRemote(s.page)
			}
		case "p", "left":
			if s.tab == tabPortal && s.page > 1 {
				s.page--
				s.remoteDone = false
				return s, s.loadRemote(s.page)
			}
		}
	}
	return s, nil
}

func (s *HistoryScreen) resetSelection() {
	s.selected = 0
	clear(s.expanded)
}

func (s *HistoryScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString(s.renderTabs(width))
	b.WriteString("\n\n")
	if s.tab == tabPortal {
		b.WriteString(s.renderRemote(width))
	} else {
		b.WriteString(s.renderLocal(width))
	}
	return b.String()
}

func (s *HistoryScreen) renderTabs(width int) string {
	active := lipgloss.NewStyle().Foreground(theme.BgDark).Background(theme.ArcadeYellow).Bold(true).Padding(0, 1)
	idle := lipgloss.NewStyle().Foreground(theme.TextDim).Padding(0, 1)
	portalTab, localTab := idle.Render("Portal"), idle.Render("This device")
	if s.tab == tabPortal {
		portalTab = active.Render("Portal")
	} else {
		localTab = active.Render("This device")
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, portalTab+"  "+localTab)
}

func message(width int, text string, style lipgloss.Style) string {
	return layout.Centered("\n"+text, width, style)
}

func (s *HistoryScreen) renderRemote(width int) string {
	switch {
	case s.remoteErr != nil:
		return message(width, fmt.Sprintf("Could not load history: %v", s.remoteErr), lipgloss.NewStyle().Foreground(theme.Error))
	case !s.remoteDone:
		return message(width, "Loading history...", theme.Dim)
	case len(s.remote) == 0:
		return message(width, "No results yet. Start practicing!", theme.Dim.Italic(true))
	}

	var b strings.Builder
	for i, e := range s.remote {
		line := fmt.Sprintf("%-19s  %-24s  %d/%s correct", e.Date, truncate(e.Name, 24), e.CorrectCount, e.Total)
		b.WriteString(s.row(width, i, line))
		if s.expanded[i] {
			b.WriteString(renderRemoteDetail(width, e))
		}
	}
	b.WriteString("\n")
	b.WriteString(layout.Centered(fmt.Sprintf("Page %d of %d", s.page, s.pages()), width, theme.Dim))
	return b.String()
}

func renderRemoteDetail(width int, e portal.HistoryEntry) string {
	qs, err := e.DecodeQuestions()
	if err != nil {
		return detailLine(width, "Details unavailable", theme.Dim)
	}
	if len(qs) == 0 {
		return detailLine(width, "No question details", theme.Dim)
	}
	var b strings.Builder
	for _, q := range qs {
		mark, style := "✓", lipgloss.NewStyle().Foreground(theme.Success)
		if q.Status != "correct" {
			mark, style = "✗", lipgloss.NewStyle().Foreground(theme.Error)
		}
		text := fmt.Sprintf("%s %s  answered %s (answer %s, %d tries)",
			mark, truncate(q.Stem, 30), q.UserAnswer, q.Answer, q.Attempts)
		b.WriteString(detailLine(width, text, style))
	}
	return b.String()
}

func (s *HistoryScreen) renderLocal(width int) string {
	switch {
	case s.localErr != nil:
		return message(width, fmt.Sprintf("Could not read the local log: %v", s.localErr), lipgloss.NewStyle().Foreground(theme.Error))
	case !s.localDone:
		return message(width, "Loading sessions...", theme.Dim)
	case len(s.local) == 0:
		return message(width, "No sessions on this device yet.", theme.Dim.Italic(true))
	}

	var b strings.Builder
	for i, ls := range s.local {
		status := fmt.Sprintf("%d/%d correct", ls.CorrectCount, ls.Total)
		if ls.Action == store.SessionAbandon {
			status = "left early"
		}
		line := fmt.Sprintf("%s  %-8s  %d:%02d  %s",
			ls.Timestamp.Local().Format("Jan 02 15:04"), ls.Kind,
			ls.DurationSecs/60, ls.DurationSecs%60, status)
		b.WriteString(s.row(width, i, line))
		if s.expanded[i] {
			b.WriteString(renderLocalDetail(width, ls))
		}
	}
	return b.String()
}

func renderLocalDetail(width int, ls localSession) string {
	var b strings.Builder
	b.WriteString(detailLine(width, fmt.Sprintf("%d answers, %d rewards", len(ls.Answers), len(ls.Rewards)), theme.Dim))
	for _, a := range ls.Answers {
		style := lipgloss.NewStyle().Foreground(theme.Success)
		if !a.Correct {
			style = lipgloss.NewStyle().Foreground(theme.Error)
		}
		b.WriteString(detailLine(width, fmt.Sprintf("%s #%d  %q  %s", a.QuestionID, a.Attempt, a.Answer, a.Outcome), style))
	}
	for _, r := range ls.Rewards {
		b.WriteString(detailLine(width, fmt.Sprintf("reward %s (%s) after %d solved", r.RuleID, r.RewardKind, r.Finished), theme.Hint))
	}
	return b.String()
}

func (s *HistoryScreen) row(width, i int, line string) string {
	prefix, style := "  ", theme.Unselected
	if i == s.selected {
		prefix, style = "▸ ", theme.Selected
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(prefix+line)) + "\n"
}

func detailLine(width int, text string, style lipgloss.Style) string {
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render("    "+text)) + "\n"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
