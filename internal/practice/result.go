package practice

import (
	"time"

	"github.com/abhisek/practiz/internal/question"
)

// Status is the final verdict for one question.
type Status string

const (
	StatusCorrect Status = "correct"
	StatusWrong   Status = "wrong"
)

// QuestionResult is the per-question line of a session result.
type QuestionResult struct {
	Question *question.Question
	Status   Status
	// FinalAnswer is the learner's last submitted answer.
	FinalAnswer string
	// Attempts equals len(Log).
	Attempts int
	Log      []Attempt
}

// Result is the immutable record of a finished session.
type Result struct {
	SessionID    string
	LearnerID    string
	Kind         Kind
	HomeworkID   string
	Name         string
	NameEn       string
	CorrectCount int
	WrongCount   int
	Total        int
	Questions    []QuestionResult
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Accuracy returns the share of questions solved.
func (r *Result) Accuracy() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.CorrectCount) / float64(r.Total)
}

var subjectNamesZh = map[question.Subject]string{
	question.SubjectMath:     "数学",
	question.SubjectLanguage: "语文",
	question.SubjectReading:  "阅读",
	question.SubjectLiteracy: "识字",
}

// displayNames derives the localized result names for a session.
func displayNames(cfg Config) (zh, en string) {
	if cfg.Name != "" {
		return cfg.Name, cfg.Name
	}
	if cfg.Kind == KindHomework {
		return "家庭作业完成", "Homework Finished"
	}
	if cfg.Subject == "" {
		return "自主练习", "Free Practice"
	}
	zhSubject, ok := subjectNamesZh[cfg.Subject]
	if !ok {
		zhSubject = string(cfg.Subject)
	}
	return zhSubject + "练习", cfg.Subject.DisplayName() + " Practice"
}

// BuildResult derives the session result from the attempt logs. Each
// question's status and final answer come from its last logged attempt.
// Questions are listed in their original order; total is the initial
// question count.
func BuildResult(cfg Config, order []string, questions map[string]*question.Question, attempts *AttemptTracker, startedAt, now time.Time) *Result {
	zh, en := displayNames(cfg)
	r := &Result{
		SessionID:  cfg.SessionID,
		LearnerID:  cfg.LearnerID,
		Kind:       cfg.Kind,
		HomeworkID: cfg.HomeworkID,
		Name:       zh,
		NameEn:     en,
		Total:      len(order),
		StartedAt:  startedAt,
		FinishedAt: now,
	}

	for _, id := range order {
		log := attempts.Log(id)
		if len(log) == 0 {
			continue
		}
		last := log[len(log)-1]
		status := StatusWrong
		if last.Correct {
			status = StatusCorrect
			r.CorrectCount++
		} else {
			r.WrongCount++
		}
		r.Questions = append(r.Questions, QuestionResult{
			Question:    questions[id],
			Status:      status,
			FinalAnswer: last.Answer,
			Attempts:    len(log),
			Log:         log,
		})
	}
	return r
}
