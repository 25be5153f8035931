package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/abhisek/practiz/internal/question"
	"github.com/abhisek/practiz/internal/reinforcement"
)

// Homework status values.
const (
	HomeworkPending   = "pending"
	HomeworkCompleted = "completed"
)

// Homework is an assignment of a paper to learners.
type Homework struct {
	ID         string   `json:"id"`
	TeacherID  string   `json:"teacherId,omitempty"`
	PaperID    string   `json:"paperId"`
	Name       string   `json:"name"`
	ClassID    string   `json:"classId,omitempty"`
	StartDate  string   `json:"startDate,omitempty"`
	EndDate    string   `json:"endDate,omitempty"`
	Status     string   `json:"status"`
	Total      int      `json:"total"`
	Completed  int      `json:"completed"`
	StudentIDs []string `json:"studentIds,omitempty"`
}

// AssignedTo reports whether the homework targets learnerID. Homework with
// no student list is for everyone.
func (h Homework) AssignedTo(learnerID string) bool {
	return len(h.StudentIDs) == 0 || slices.Contains(h.StudentIDs, learnerID)
}

// Paper is a named, ordered question set.
type Paper struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Questions     []question.Question `json:"-"`
	Total         int                 `json:"total"`
	AssignedCount int                 `json:"assignedCount,omitempty"`
}

type wirePaper struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Questions     json.RawMessage `json:"questions"`
	Total         int             `json:"total"`
	AssignedCount int             `json:"assignedCount,omitempty"`
}

// Questions lists bank questions. An empty subject or zero grade does not
// filter. Every question is validated; one malformed question fails the
// whole call.
func (c *Client) Questions(ctx context.Context, subject question.Subject, grade int) ([]question.Question, error) {
	q := url.Values{}
	if subject != "" {
		q.Set("subject", string(subject))
	}
	if grade > 0 {
		q.Set("grade", strconv.Itoa(grade))
	}

	var raw json.RawMessage
	if err := c.call(ctx, request{method: http.MethodGet, path: "/questions", query: q}, &raw); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	qs, err := question.DecodeList(raw)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return qs, nil
}

// Homeworks lists homework visible to the signed-in account.
func (c *Client) Homeworks(ctx context.Context) ([]Homework, error) {
	var hws []Homework
	if err := c.call(ctx, request{method: http.MethodGet, path: "/homeworks"}, &hws); err != nil {
		return nil, fmt.Errorf("list homeworks: %w", err)
	}
	return hws, nil
}

// PendingHomeworks lists homework assigned to learnerID that is not yet
// completed.
func (c *Client) PendingHomeworks(ctx context.Context, learnerID string) ([]Homework, error) {
	all, err := c.Homeworks(ctx)
	if err != nil {
		return nil, err
	}
	var out []Homework
	for _, h := range all {
		if h.Status != HomeworkCompleted && h.AssignedTo(learnerID) {
			out = append(out, h)
		}
	}
	return out, nil
}

// Papers lists papers with their embedded questions.
func (c *Client) Papers(ctx context.Context) ([]Paper, error) {
	var wire []wirePaper
	if err := c.call(ctx, request{method: http.MethodGet, path: "/papers"}, &wire); err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}

	papers := make([]Paper, 0, len(wire))
	for _, w := range wire {
		p := Paper{ID: w.ID, Name: w.Name, Total: w.Total, AssignedCount: w.AssignedCount}
		if len(w.Questions) > 0 && string(w.Questions) != "null" {
			qs, err := question.DecodeList(w.Questions)
			if err != nil {
				return nil, fmt.Errorf("paper %s: %w", w.ID, err)
			}
			p.Questions = qs
		}
		papers = append(papers, p)
	}
	return papers, nil
}

// HomeworkQuestions resolves a homework to its paper's questions.
func (c *Client) HomeworkQuestions(ctx context.Context, homeworkID string) ([]question.Question, error) {
	hws, err := c.Homeworks(ctx)
	if err != nil {
		return nil, err
	}
	idx := slices.IndexFunc(hws, func(h Homework) bool { return h.ID == homeworkID })
	if idx < 0 {
		return nil, fmt.Errorf("homework %s: %w", homeworkID, ErrNotFound)
	}
	paperID := hws[idx].PaperID

	papers, err := c.Papers(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range papers {
		if p.ID == paperID {
			return p.Questions, nil
		}
	}
	return nil, fmt.Errorf("paper %s of homework %s: %w", paperID, homeworkID, ErrNotFound)
}

// Rules lists the configured reward rules.
func (c *Client) Rules(ctx context.Context) ([]reinforcement.Rule, error) {
	var rules []reinforcement.Rule
	if err := c.call(ctx, request{method: http.MethodGet, path: "/reinforcements"}, &rules); err != nil {
		return nil, fmt.Errorf("list reinforcement rules: %w", err)
	}
	return rules, nil
}
