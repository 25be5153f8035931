package practice

// RetireThreshold is the wrong-answer count at which a question is
// revealed and retired.
const RetireThreshold = 3

// Outcome is what the retry state machine decides for one submission.
type Outcome int

const (
	// OutcomeSolved retires the question as correct.
	OutcomeSolved Outcome = iota
	// OutcomeRetry requeues silently after the short delay.
	OutcomeRetry
	// OutcomeHint shows the hint for the long delay, then requeues.
	OutcomeHint
	// OutcomeReveal shows the answer for the long delay, then retires the
	// question as wrong.
	OutcomeReveal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSolved:
		return "solved"
	case OutcomeRetry:
		return "retry"
	case OutcomeHint:
		return "hint"
	case OutcomeReveal:
		return "reveal"
	default:
		return "unknown"
	}
}

// Decide maps a submission to its outcome. wrong is the question's wrong
// count after recording this submission.
func Decide(correct bool, wrong int) Outcome {
	switch {
	case correct:
		return OutcomeSolved
	case wrong >= RetireThreshold:
		return OutcomeReveal
	case wrong == RetireThreshold-1:
		return OutcomeHint
	default:
		return OutcomeRetry
	}
}
