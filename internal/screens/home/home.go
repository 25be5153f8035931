package home

import (
	"context"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/practiz/internal/router"
	"github.com/abhisek/practiz/internal/screen"
	"github.com/abhisek/practiz/internal/screens"
	"github.com/abhisek/practiz/internal/screens/history"
	"github.com/abhisek/practiz/internal/screens/homework"
	"github.com/abhisek/practiz/internal/screens/outbox"
	"github.com/abhisek/practiz/internal/screens/picker"
	"github.com/abhisek/practiz/internal/store"
	"github.com/abhisek/practiz/internal/ui/components"
	"github.com/abhisek/practiz/internal/ui/layout"
)

const statsTimeout = 10 * time.Second

// stats are the dashboard counters.
type stats struct {
	loaded   bool
	homework int
	today    int
	queued   int
	// offline is set when pending homework could not be fetched.
	offline bool
}

type statsMsg stats

// HomeScreen is the main menu for a signed-in learner.
type HomeScreen struct {
	svc   *screens.Services
	menu  components.Menu
	stats stats
	note  string
	now   func() time.Time
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.Resumer = (*HomeScreen)(nil)

// New creates a HomeScreen.
func New(svc *screens.Services) *HomeScreen {
	h := &HomeScreen{svc: svc, now: time.Now}
	h.menu = components.NewMenu([]components.MenuItem{
		{Label: "HOMEWORK", Action: func() tea.Cmd { return router.Push(homework.New(svc)) }},
		{Label: "PRACTICE", Action: func() tea.Cmd { return router.Push(picker.New(svc)) }},
		{Label: "HISTORY", Action: func() tea.Cmd { return router.Push(history.New(svc)) }},
		{Label: "OUTBOX", Action: func() tea.Cmd { return router.Push(outbox.New(svc)) }},
		{Label: "SIGN OUT", Action: func() tea.Cmd {
			return func() tea.Msg { return screens.LogoutMsg{} }
		}},
		{Label: "EXIT", Action: func() tea.Cmd { return tea.Quit }},
	})
	return h
}

// SetNote shows a one-line notice under the menu, such as a portal
// version warning.
func (h *HomeScreen) SetNote(note string) { h.note = note }

func (h *HomeScreen) Init() tea.Cmd {
	return h.loadStats()
}

// Resume refreshes the counters after a session or the outbox screen.
func (h *HomeScreen) Resume() tea.Cmd {
	return h.loadStats()
}

func (h *HomeScreen) loadStats() tea.Cmd {
	svc := h.svc
	now := h.now()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
		defer cancel()

		var st stats
		st.loaded = true
		if svc.Portal != nil {
			hws, err := svc.Portal.PendingHomeworks(ctx, svc.Learner.UserID)
			if err != nil {
				svc.Log().Warnf("pending homework: %v", err)
				st.offline = true
			}
			st.homework = len(hws)
		}
		if svc.Outbox != nil {
			if counts, err := svc.Outbox.Counts(ctx); err == nil {
				st.queued = counts[store.OutboxPending]
			}
		}
		if svc.Events != nil {
			y, m, d := now.Date()
			recs, err := svc.Events.QuerySessionEvents(ctx, store.QueryOpts{From: time.Date(y, m, d, 0, 0, 0, 0, now.Location())})
			if err == nil {
				for _, r := range recs {
					if r.Action == store.SessionEnd && r.LearnerID == svc.Learner.UserID {
						st.today++
					}
				}
			}
		}
		return statsMsg(st)
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case statsMsg:
		h.stats = stats(msg)
		return h, nil
	case screens.OutboxChangedMsg:
		return h, h.loadStats()
	}
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) mascot() MascotVariant {
	switch {
	case h.stats.homework > 0:
		return MascotAlert
	case h.stats.today > 0:
		return MascotCelebrating
	}
	return MascotIdle
}

func (h *HomeScreen) View(width, height int) string {
	// height is the content area; add back header, footer and gaps.
	compact := layout.IsCompactHeight(height+8) || layout.IsCompactWidth(width)

	cw := components.ContentWidth(width)

	sections := []string{renderTitle(cw, compact)}
	if !compact {
		sections = append(sections, renderMascotBox(h.mascot(), cw))
	}
	sections = append(sections,
		renderStatsBar(h.stats, cw, compact),
		components.ArcadeMenu(h.menu, cw, compact),
	)

	note := h.note
	if note == "" && h.stats.offline {
		note = "Portal unreachable, results will be queued"
	}
	if note != "" {
		sections = append(sections, renderNote(note, cw))
	}

	return components.CabinetFrame(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) Title() string {
	return "Home"
}
