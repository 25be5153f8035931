package practice

import (
	"os"
	"time"

	"github.com/abhisek/practiz/internal/question"
)

// Kind is the origin of a session.
type Kind string

const (
	KindPractice Kind = "practice"
	KindHomework Kind = "homework"
)

// Timings holds the feedback delays.
type Timings struct {
	// Short is how long a silent retry or a "correct" flash stays up
	// before the next question.
	Short time.Duration
	// Long is how long a hint or a revealed answer stays up.
	Long time.Duration
}

// DefaultTimings returns the standard delays.
func DefaultTimings() Timings {
	return Timings{
		Short: 1200 * time.Millisecond,
		Long:  3 * time.Second,
	}
}

// TimingsFromEnv reads PRACTIZ_SHORT_DELAY and PRACTIZ_LONG_DELAY (Go
// duration strings), falling back to defaults for unset or invalid values.
func TimingsFromEnv() Timings {
	t := DefaultTimings()
	if d, err := time.ParseDuration(os.Getenv("PRACTIZ_SHORT_DELAY")); err == nil && d >= 0 {
		t.Short = d
	}
	if d, err := time.ParseDuration(os.Getenv("PRACTIZ_LONG_DELAY")); err == nil && d >= 0 {
		t.Long = d
	}
	return t
}

// Config describes one session.
type Config struct {
	SessionID string
	// LearnerID is matched against targeted reward rules.
	LearnerID string
	Kind      Kind
	// HomeworkID is set for homework sessions.
	HomeworkID string
	// Subject and Grade describe a free practice session.
	Subject question.Subject
	Grade   int
	// Name overrides the derived display name.
	Name    string
	Timings Timings
}

// Source selects which questions a session runs over.
type Source struct {
	HomeworkID string
	Subject    question.Subject
	Grade      int
}

// IsHomework reports whether the source is a homework assignment.
func (s Source) IsHomework() bool {
	return s.HomeworkID != ""
}
