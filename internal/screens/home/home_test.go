package home

import (
	"context"
	"errors"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/practiz/internal/portal"
	"github.com/abhisek/practiz/internal/router"
	"github.com/abhisek/practiz/internal/screens"
	"github.com/abhisek/practiz/internal/screens/history"
	"github.com/abhisek/practiz/internal/screens/homework"
	"github.com/abhisek/practiz/internal/screens/outbox"
	"github.com/abhisek/practiz/internal/screens/picker"
	"github.com/abhisek/practiz/internal/screens/screenstest"
	"github.com/abhisek/practiz/internal/store"
)

func loaded(t *testing.T, h *HomeScreen) {
	t.Helper()
	cmd := h.Init()
	require.NotNil(t, cmd)
	h.Update(cmd())
	require.True(t, h.stats.loaded)
}

func TestHome_Stats(t *testing.T) {
	p := &screenstest.Portal{Pending: []portal.Homework{{ID: "hw-1", Name: "Fractions"}, {ID: "hw-2", Name: "Decimals"}}}
	env := screenstest.New(t, p)
	ctx := context.Background()
	ev := env.Store.EventRepo()
	require.NoError(t, ev.AppendSessionEvent(ctx, store.SessionEventData{SessionID: "s-1", Action: store.SessionEnd, LearnerID: "stu-1"}))
	require.NoError(t, ev.AppendSessionEvent(ctx, store.SessionEventData{SessionID: "s-2", Action: store.SessionAbandon, LearnerID: "stu-1"}))
	require.NoError(t, ev.AppendSessionEvent(ctx, store.SessionEventData{SessionID: "s-3", Action: store.SessionEnd, LearnerID: "stu-2"}))
	require.NoError(t, env.Store.OutboxRepo().Enqueue(ctx, store.OutboxMessage{ID: "m-1", Kind: "history", SessionID: "s-1", Payload: []byte(`{}`)}))

	h := New(env.Services)
	loaded(t, h)
	assert.Equal(t, 2, h.stats.homework)
	assert.Equal(t, 1, h.stats.today, "only finished sessions of this learner")
	assert.Equal(t, 1, h.stats.queued)
	assert.False(t, h.stats.offline)
	assert.Equal(t, MascotAlert, h.mascot())

	view := h.View(120, 40)
	assert.Contains(t, view, "2 HOMEWORK")
	assert.Contains(t, view, "1 QUEUED")
}

func TestHome_Offline(t *testing.T) {
	h := New(screenstest.New(t, &screenstest.Portal{Err: errors.New("dial tcp: refused")}).Services)
	loaded(t, h)
	assert.True(t, h.stats.offline)
	assert.Contains(t, h.View(120, 40), "Portal unreachable")

	h.SetNote("Please update")
	view := h.View(120, 40)
	assert.Contains(t, view, "Please update")
	assert.NotContains(t, view, "Portal unreachable")
}

func TestHome_MascotCelebratesToday(t *testing.T) {
	env := screenstest.New(t, nil)
	require.NoError(t, env.Store.EventRepo().AppendSessionEvent(context.Background(),
		store.SessionEventData{SessionID: "s-1", Action: store.SessionEnd, LearnerID: "stu-1"}))
	h := New(env.Services)
	loaded(t, h)
	assert.Equal(t, MascotCelebrating, h.mascot())
}

func TestHome_MenuActions(t *testing.T) {
	h := New(screenstest.New(t, nil).Services)

	tests := []struct {
		downs int
		check func(t *testing.T, msg tea.Msg)
	}{
		{0, func(t *testing.T, msg tea.Msg) {
			assert.IsType(t, &homework.Screen{}, msg.(router.PushScreenMsg).Screen)
		}},
		{1, func(t *testing.T, msg tea.Msg) {
			assert.IsType(t, &picker.Screen{}, msg.(router.PushScreenMsg).Screen)
		}},
		{2, func(t *testing.T, msg tea.Msg) {
			assert.IsType(t, &history.HistoryScreen{}, msg.(router.PushScreenMsg).Screen)
		}},
		{3, func(t *testing.T, msg tea.Msg) {
			assert.IsType(t, &outbox.Screen{}, msg.(router.PushScreenMsg).Screen)
		}},
		{4, func(t *testing.T, msg tea.Msg) {
			assert.Equal(t, screens.LogoutMsg{}, msg)
		}},
	}
	for _, tc := range tests {
		h.menu.Selected = 0
		for range tc.downs {
			h.Update(tea.KeyPressMsg{Code: tea.KeyDown})
		}
		_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
		require.NotNil(t, cmd)
		tc.check(t, cmd())
	}
}

func TestHome_OutboxChangedReloads(t *testing.T) {
	h := New(screenstest.New(t, nil).Services)
	_, cmd := h.Update(screens.OutboxChangedMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, statsMsg{}, cmd())
	assert.NotNil(t, h.Resume())
}
