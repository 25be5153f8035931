// Package screenstest provides in-memory services for screen tests.
package screenstest

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/practiz/internal/delivery"
	"github.com/abhisek/practiz/internal/portal"
	"github.com/abhisek/practiz/internal/practice"
	"github.com/abhisek/practiz/internal/question"
	"github.com/abhisek/practiz/internal/reinforcement"
	"github.com/abhisek/practiz/internal/screens"
	"github.com/abhisek/practiz/internal/store"
)

// Portal is a canned portal.
type Portal struct {
	QuestionList []question.Question
	Homework     map[string][]question.Question
	RuleList     []reinforcement.Rule
	Pending      []portal.Homework
	Entries      []portal.HistoryEntry
	// Err fails every read when set.
	Err error
}

func (p *Portal) Questions(_ context.Context, subject question.Subject, grade int) ([]question.Question, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	var out []question.Question
	for _, q := range p.QuestionList {
		if subject != "" && q.Subject != subject {
			continue
		}
		if grade != 0 && q.Grade != grade {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

func (p *Portal) HomeworkQuestions(_ context.Context, homeworkID string) ([]question.Question, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	qs, ok := p.Homework[homeworkID]
	if !ok {
		return nil, portal.ErrNotFound
	}
	return qs, nil
}

func (p *Portal) Rules(context.Context) ([]reinforcement.Rule, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	return p.RuleList, nil
}

func (p *Portal) PendingHomeworks(context.Context, string) ([]portal.Homework, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Pending, nil
}

func (p *Portal) History(_ context.Context, page, pageSize int) (*portal.HistoryPage, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	start := min((page-1)*pageSize, len(p.Entries))
	end := min(start+pageSize, len(p.Entries))
	return &portal.HistoryPage{
		List:     p.Entries[start:end],
		Total:    int64(len(p.Entries)),
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Writer records what delivery sends to the portal.
type Writer struct {
	mu        sync.Mutex
	History   []portal.HistoryPayload
	Completed []string
	Err       error
}

func (w *Writer) SaveHistory(_ context.Context, p portal.HistoryPayload, _ string) (*portal.HistoryEntry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Err != nil {
		return nil, w.Err
	}
	w.History = append(w.History, p)
	return &portal.HistoryEntry{ID: fmt.Sprintf("h-%d", len(w.History))}, nil
}

func (w *Writer) CompleteHomework(_ context.Context, homeworkID, _ string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Err != nil {
		return w.Err
	}
	w.Completed = append(w.Completed, homeworkID)
	return nil
}

// Env is a set of services backed by an in-memory store.
type Env struct {
	Services *screens.Services
	Portal   *Portal
	Writer   *Writer
	Store    *store.Store
}

// New returns services for learner stu-1 over an in-memory store.
func New(t *testing.T, p *Portal) *Env {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	if p == nil {
		p = &Portal{}
	}
	w := &Writer{}
	return &Env{
		Services: &screens.Services{
			Learner:  portal.Claims{UserID: "stu-1", Role: portal.RoleStudent, Username: "mia"},
			Portal:   p,
			Events:   st.EventRepo(),
			Outbox:   st.OutboxRepo(),
			Delivery: delivery.New(st.OutboxRepo(), w),
			Timings:  practice.Timings{Short: time.Millisecond, Long: time.Millisecond},
			Rand:     rand.New(rand.NewPCG(1, 2)),
		},
		Portal: p,
		Writer: w,
		Store:  st,
	}
}

// Calc returns n grade-3 math calculation questions whose answer is their
// 1-based index.
func Calc(n int) []question.Question {
	qs := make([]question.Question, n)
	for i := range qs {
		qs[i] = question.Question{
			ID:       fmt.Sprintf("q%d", i+1),
			Subject:  question.SubjectMath,
			Grade:    3,
			Variant:  question.Calculation{},
			StemText: fmt.Sprintf("%d + 0 = ?", i+1),
			Answer:   fmt.Sprintf("%d", i+1),
		}
	}
	return qs
}
