package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/abhisek/practiz/internal/practice"
	"github.com/abhisek/practiz/internal/question"
)

// HistoryAttempt is one logged submission in a history record.
type HistoryAttempt struct {
	Answer  string    `json:"answer"`
	Correct bool      `json:"correct"`
	At      time.Time `json:"at"`
}

// HistoryQuestion is the per-question part of a history record.
type HistoryQuestion struct {
	ID         string            `json:"id"`
	Type       string            `json:"type,omitempty"`
	Stem       string            `json:"stem"`
	StemImage  string            `json:"stemImage,omitempty"`
	Options    []question.Option `json:"options,omitempty"`
	Status     string            `json:"status"`
	Answer     string            `json:"answer"`
	UserAnswer string            `json:"userAnswer"`
	Attempts   int               `json:"attempts"`
	Log        []HistoryAttempt  `json:"log"`
}

// HistoryPayload is the body of POST /history. Total is a string on the
// wire.
type HistoryPayload struct {
	Type         string            `json:"type"`
	Name         string            `json:"name"`
	NameEn       string            `json:"nameEn"`
	CorrectCount int               `json:"correctCount"`
	WrongCount   int               `json:"wrongCount"`
	Total        string            `json:"total"`
	HomeworkID   string            `json:"homeworkId"`
	SessionID    string            `json:"sessionId,omitempty"`
	Questions    []HistoryQuestion `json:"questions"`
}

// NewHistoryPayload converts a session result into the history wire body.
func NewHistoryPayload(r *practice.Result) HistoryPayload {
	p := HistoryPayload{
		Type:         string(r.Kind),
		Name:         r.Name,
		NameEn:       r.NameEn,
		CorrectCount: r.CorrectCount,
		WrongCount:   r.WrongCount,
		Total:        strconv.Itoa(r.Total),
		HomeworkID:   r.HomeworkID,
		SessionID:    r.SessionID,
		Questions:    make([]HistoryQuestion, 0, len(r.Questions)),
	}
	for _, qr := range r.Questions {
		q := qr.Question
		hq := HistoryQuestion{
			ID:         q.ID,
			Stem:       q.StemText,
			StemImage:  q.StemImage,
			Options:    q.Options,
			Status:     string(qr.Status),
			Answer:     q.AnswerLabel(),
			UserAnswer: qr.FinalAnswer,
			Attempts:   qr.Attempts,
			Log:        make([]HistoryAttempt, 0, len(qr.Log)),
		}
		if q.Variant != nil {
			hq.Type = string(q.Variant.Kind())
		}
		for _, a := range qr.Log {
			hq.Log = append(hq.Log, HistoryAttempt{Answer: a.Answer, Correct: a.Correct, At: a.At})
		}
		p.Questions = append(p.Questions, hq)
	}
	return p
}

// HistoryEntry is a stored history record as returned by the portal.
type HistoryEntry struct {
	ID           string          `json:"id"`
	StudentID    string          `json:"studentId"`
	Type         string          `json:"type"`
	Name         string          `json:"name"`
	NameEn       string          `json:"nameEn"`
	CorrectCount int             `json:"correctCount"`
	WrongCount   int             `json:"wrongCount"`
	Total        string          `json:"total"`
	HomeworkID   string          `json:"homeworkId"`
	Date         string          `json:"date"`
	Questions    json.RawMessage `json:"questions,omitempty"`
}

// DecodeQuestions returns the per-question detail of the record. The
// portal stores it either as a JSON array or as a string holding one.
func (e HistoryEntry) DecodeQuestions() ([]HistoryQuestion, error) {
	raw := e.Questions
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode history questions: %w", err)
		}
		if s == "" {
			return nil, nil
		}
		raw = json.RawMessage(s)
	}
	var qs []HistoryQuestion
	if err := json.Unmarshal(raw, &qs); err != nil {
		return nil, fmt.Errorf("decode history questions: %w", err)
	}
	return qs, nil
}

// HistoryPage is one page of GET /history.
type HistoryPage struct {
	List     []HistoryEntry `json:"list"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

// SaveHistory persists a finished session. idemKey is sent as the
// idempotency header and should be stable across retries of one result.
func (c *Client) SaveHistory(ctx context.Context, p HistoryPayload, idemKey string) (*HistoryEntry, error) {
	var entry HistoryEntry
	err := c.call(ctx, request{
		method:  http.MethodPost,
		path:    "/history",
		body:    p,
		idemKey: idemKey,
	}, &entry)
	if err != nil {
		return nil, fmt.Errorf("save history: %w", err)
	}
	return &entry, nil
}

// CompleteHomework marks a homework complete for the signed-in learner.
func (c *Client) CompleteHomework(ctx context.Context, homeworkID, idemKey string) error {
	err := c.call(ctx, request{
		method:  http.MethodPut,
		path:    "/homeworks/" + url.PathEscape(homeworkID) + "/complete",
		idemKey: idemKey,
	}, nil)
	if err != nil {
		return fmt.Errorf("complete homework %s: %w", homeworkID, err)
	}
	return nil
}

// History lists the signed-in learner's history records, newest first.
func (c *Client) History(ctx context.Context, page, pageSize int) (*HistoryPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("pageSize", strconv.Itoa(pageSize))
	}

	var hp HistoryPage
	if err := c.call(ctx, request{method: http.MethodGet, path: "/history", query: q}, &hp); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return &hp, nil
}
