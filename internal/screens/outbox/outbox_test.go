package outbox

import (
	"context"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/practiz/internal/delivery"
	"github.com/abhisek/practiz/internal/portal"
	"github.com/abhisek/practiz/internal/practice"
	"github.com/abhisek/practiz/internal/question"
	"github.com/abhisek/practiz/internal/screens"
	"github.com/abhisek/practiz/internal/screens/screenstest"
	"github.com/abhisek/practiz/internal/store"
)

func result() *practice.Result {
	q := &question.Question{ID: "q1", Variant: question.Calculation{}, StemText: "1 + 1", Answer: "2"}
	now := time.Now()
	return &practice.Result{
		SessionID:    "s-1",
		LearnerID:    "stu-1",
		Kind:         practice.KindPractice,
		Name:         "数学练习",
		NameEn:       "Math Practice",
		CorrectCount: 1,
		Total:        1,
		Questions:    []practice.QuestionResult{{Question: q, Status: practice.StatusCorrect, FinalAnswer: "2", Attempts: 1}},
		StartedAt:    now.Add(-time.Minute),
		FinishedAt:   now,
	}
}

// run executes cmd, feeding the screen's messages back, and returns the
// app-level messages.
func run(s *Screen, cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	var out []tea.Msg
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			out = append(out, run(s, c)...)
		}
	case loadedMsg, flushedMsg, requeuedMsg:
		_, next := s.Update(msg)
		out = append(out, run(s, next)...)
	default:
		out = append(out, msg)
	}
	return out
}

func TestOutboxScreen_Empty(t *testing.T) {
	s := New(screenstest.New(t, nil).Services)
	run(s, s.Init())
	view := s.View(100, 30)
	assert.Contains(t, view, "0 waiting")
	assert.Contains(t, view, "Nothing here yet.")
}

func TestOutboxScreen_RetryRejected(t *testing.T) {
	env := screenstest.New(t, nil)
	env.Writer.Err = &portal.APIError{Method: "POST", Path: "/history", Status: 400, Code: 1, Msg: "invalid record"}
	require.NoError(t, env.Services.Delivery.Deliver(context.Background(), result()))

	s := New(env.Services)
	run(s, s.Init())
	require.Len(t, s.messages, 1)
	assert.Equal(t, store.OutboxDead, s.messages[0].Status)
	assert.Contains(t, s.View(100, 30), "1 rejected")

	s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.Contains(t, s.View(100, 30), "invalid record")

	env.Writer.Err = nil
	_, cmd := s.Update(tea.KeyPressMsg{Code: 'r', Text: "r"})
	require.NotNil(t, cmd)
	msgs := run(s, cmd)
	assert.Contains(t, msgs, tea.Msg(screens.OutboxChangedMsg{}))
	assert.Equal(t, store.OutboxPending, s.messages[0].Status)

	_, cmd = s.Update(tea.KeyPressMsg{Code: 'f', Text: "f"})
	assert.True(t, s.busy)
	run(s, cmd)
	assert.False(t, s.busy)
	assert.Equal(t, store.OutboxDelivered, s.messages[0].Status)
	assert.Contains(t, s.View(100, 30), "Sent 1, 0 waiting")
	assert.Len(t, env.Writer.History, 1)
}

func TestOutboxScreen_RequeueOnlyDead(t *testing.T) {
	env := screenstest.New(t, nil)
	env.Writer.Err = &portal.APIError{Method: "POST", Path: "/history", Status: 503}
	require.NoError(t, env.Services.Delivery.Deliver(context.Background(), result()))

	s := New(env.Services)
	run(s, s.Init())
	require.Len(t, s.messages, 1)
	assert.Equal(t, store.OutboxPending, s.messages[0].Status)

	_, cmd := s.Update(tea.KeyPressMsg{Code: 'r', Text: "r"})
	assert.Nil(t, cmd)
}

func TestFlushStatus(t *testing.T) {
	assert.Equal(t, "Sent 2, 1 waiting, 1 rejected", flushStatus(delivery.Report{Delivered: 2, Pending: 1, Dead: 1}, nil))
}
