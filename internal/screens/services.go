// Package screens holds what the individual screens share: the services
// they are built with and the app-level messages they emit.
package screens

import (
	"context"
	"math/rand/v2"

	"github.com/labstack/gommon/log"

	"github.com/abhisek/practiz/internal/delivery"
	"github.com/abhisek/practiz/internal/logging"
	"github.com/abhisek/practiz/internal/portal"
	"github.com/abhisek/practiz/internal/practice"
	"github.com/abhisek/practiz/internal/question"
	"github.com/abhisek/practiz/internal/store"
)

// Portal is the part of the portal client the screens read from.
type Portal interface {
	practice.QuestionBank
	practice.RuleSource
	PendingHomeworks(ctx context.Context, learnerID string) ([]portal.Homework, error)
	History(ctx context.Context, page, pageSize int) (*portal.HistoryPage, error)
}

// Delivery persists finished sessions and retries what is still queued.
type Delivery interface {
	practice.ResultSink
	Flush(ctx context.Context) (delivery.Report, error)
}

// HintFiller adds generated hints to questions that have none.
type HintFiller interface {
	Fill(ctx context.Context, qs []question.Question) ([]question.Question, int)
}

// Services bundles what screens need from the rest of the program for
// the signed-in learner.
type Services struct {
	Learner  portal.Claims
	Portal   Portal
	Events   store.EventRepo
	Outbox   store.OutboxRepo
	Delivery Delivery
	// Hints is nil when no LLM provider is configured.
	Hints   HintFiller
	Logger  *log.Logger
	Timings practice.Timings
	// Rand drives probability rewards; nil seeds from the clock.
	Rand *rand.Rand
}

// Log returns the logger, or a discarding one.
func (s *Services) Log() *log.Logger {
	if s.Logger == nil {
		s.Logger = logging.Discard("tui")
	}
	return s.Logger
}

// LoggedInMsg is sent by the login screen once a token has been saved.
type LoggedInMsg struct {
	Credential store.Credential
}

// LogoutMsg asks the app to forget the saved token and show the login
// screen.
type LogoutMsg struct{}

// OutboxChangedMsg tells the app that queued result counts may have
// changed.
type OutboxChangedMsg struct{}
