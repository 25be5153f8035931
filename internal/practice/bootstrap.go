package practice

import (
	"context"
	"fmt"

	"github.com/abhisek/practiz/internal/question"
	"github.com/abhisek/practiz/internal/reinforcement"
)

// QuestionBank supplies the immutable question set for a session.
type QuestionBank interface {
	// Questions returns bank questions matching subject and grade. An empty
	// subject or zero grade does not filter.
	Questions(ctx context.Context, subject question.Subject, grade int) ([]question.Question, error)
	// HomeworkQuestions resolves a homework to its paper's questions.
	HomeworkQuestions(ctx context.Context, homeworkID string) ([]question.Question, error)
}

// RuleSource supplies the configured reward rules.
type RuleSource interface {
	Rules(ctx context.Context) ([]reinforcement.Rule, error)
}

// BootstrapError reports which part of session setup failed.
type BootstrapError struct {
	Stage string // "questions" or "rules"
	Err   error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Stage, e.Err)
}

func (e *BootstrapError) Unwrap() error { return e.Err }

// Load fetches the questions and rules a session needs. An empty question
// set is reported as ErrNoQuestions wrapped in a BootstrapError.
func Load(ctx context.Context, bank QuestionBank, rules RuleSource, src Source) ([]question.Question, []reinforcement.Rule, error) {
	var (
		qs  []question.Question
		err error
	)
	if src.IsHomework() {
		qs, err = bank.HomeworkQuestions(ctx, src.HomeworkID)
	} else {
		qs, err = bank.Questions(ctx, src.Subject, src.Grade)
	}
	if err != nil {
		return nil, nil, &BootstrapError{Stage: "questions", Err: err}
	}
	if len(qs) == 0 {
		return nil, nil, &BootstrapError{Stage: "questions", Err: ErrNoQuestions}
	}

	rs, err := rules.Rules(ctx)
	if err != nil {
		return nil, nil, &BootstrapError{Stage: "rules", Err: err}
	}
	return qs, rs, nil
}
