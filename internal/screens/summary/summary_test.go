package summary

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/practiz/internal/delivery"
	"github.com/abhisek/practiz/internal/practice"
	"github.com/abhisek/practiz/internal/question"
	"github.com/abhisek/practiz/internal/router"
	"github.com/abhisek/practiz/internal/store"
)

func testResult() *practice.Result {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	q1 := &question.Question{ID: "q1", Variant: question.Calculation{}, StemText: "1 + 1 = ?", Answer: "2"}
	q2 := &question.Question{ID: "q2", Variant: question.Calculation{}, StemText: "2 + 2 = ?", Answer: "4"}
	return &practice.Result{
		SessionID:    "s-1",
		LearnerID:    "stu-1",
		Kind:         practice.KindHomework,
		HomeworkID:   "hw-1",
		Name:         "Fractions",
		CorrectCount: 1,
		WrongCount:   1,
		Total:        2,
		Questions: []practice.QuestionResult{
			{Question: q1, Status: practice.StatusCorrect, FinalAnswer: "2", Attempts: 1},
			{Question: q2, Status: practice.StatusWrong, FinalAnswer: "5", Attempts: 3},
		},
		StartedAt:  start,
		FinishedAt: start.Add(95 * time.Second),
	}
}

func TestSummaryScreen_Title(t *testing.T) {
	s := New(testResult(), nil, nil)
	if s.Title() != "Session Summary" {
		t.Errorf("Title = %q, want %q", s.Title(), "Session Summary")
	}
}

func TestSummaryScreen_Display(t *testing.T) {
	status := []store.OutboxMessage{
		{Kind: delivery.KindHistory, SessionID: "s-1", Status: store.OutboxDelivered},
		{Kind: delivery.KindHomeworkComplete, SessionID: "s-1", Status: store.OutboxPending},
	}
	view := New(testResult(), status, nil).View(100, 30)

	for _, want := range []string{"Homework complete!", "Fractions", "1:35", "Accuracy: 50%", "sent to the portal", "queued, will retry"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestSummaryScreen_SaveError(t *testing.T) {
	view := New(testResult(), nil, errors.New("disk full")).View(100, 30)
	if !strings.Contains(view, "disk full") {
		t.Error("expected the save error in the view")
	}
}

func TestSummaryScreen_NilResult(t *testing.T) {
	if v := New(nil, nil, nil).View(80, 24); v != "" {
		t.Errorf("View = %q, want empty", v)
	}
}

func TestSummaryScreen_Navigation(t *testing.T) {
	for _, key := range []tea.KeyPressMsg{{Code: tea.KeyEnter}, {Code: tea.KeyEscape}} {
		s := New(testResult(), nil, nil)
		_, cmd := s.Update(key)
		if cmd == nil {
			t.Fatalf("%s: expected a command", key.String())
		}
		if _, ok := cmd().(router.PopToRootMsg); !ok {
			t.Errorf("%s: expected PopToRootMsg", key.String())
		}
	}
}

func TestSummaryScreen_KeyHints(t *testing.T) {
	s := New(testResult(), nil, nil)
	if hints := s.KeyHints(); len(hints) != 2 {
		t.Errorf("KeyHints length = %d, want 2", len(hints))
	}
}
