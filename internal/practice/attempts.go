package practice

import "time"

// Attempt is one submitted answer.
type Attempt struct {
	Answer  string    `json:"answer"`
	Correct bool      `json:"correct"`
	At      time.Time `json:"at"`
}

// AttemptTracker keeps an append-only attempt log and a wrong-answer count
// per question.
type AttemptTracker struct {
	logs  map[string][]Attempt
	wrong map[string]int
}

// NewAttemptTracker returns an empty tracker.
func NewAttemptTracker() *AttemptTracker {
	return &AttemptTracker{
		logs:  make(map[string][]Attempt),
		wrong: make(map[string]int),
	}
}

// Record appends an attempt for questionID.
func (t *AttemptTracker) Record(questionID, answer string, correct bool, at time.Time) {
	t.logs[questionID] = append(t.logs[questionID], Attempt{Answer: answer, Correct: correct, At: at})
	if !correct {
		t.wrong[questionID]++
	}
}

// Log returns a copy of the attempts for questionID, oldest first.
func (t *AttemptTracker) Log(questionID string) []Attempt {
	log := t.logs[questionID]
	out := make([]Attempt, len(log))
	copy(out, log)
	return out
}

// Wrong returns how many wrong answers questionID has received.
func (t *AttemptTracker) Wrong(questionID string) int {
	return t.wrong[questionID]
}

// Last returns the most recent attempt for questionID.
func (t *AttemptTracker) Last(questionID string) (Attempt, bool) {
	log := t.logs[questionID]
	if len(log) == 0 {
		return Attempt{}, false
	}
	return log[len(log)-1], true
}
