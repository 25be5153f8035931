package reinforcement

import (
	"math/rand/v2"
	"time"
)

// Evaluator selects at most one reward rule after a correct answer.
// It holds the rules applicable to one learner for one session.
type Evaluator struct {
	applicable []Rule
	rng        *rand.Rand
}

// NewEvaluator filters rules down to those applicable to learnerID,
// keeping their configured order. A nil rng seeds one from the clock.
func NewEvaluator(rules []Rule, learnerID string, rng *rand.Rand) *Evaluator {
	if rng == nil {
		now := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(now, now>>1|1))
	}
	var applicable []Rule
	for _, r := range rules {
		if r.AppliesTo(learnerID) {
			applicable = append(applicable, r)
		}
	}
	return &Evaluator{applicable: applicable, rng: rng}
}

// Applicable returns the rules in scope for the learner, in order.
func (e *Evaluator) Applicable() []Rule {
	return e.applicable
}

// Evaluate picks the first applicable rule whose trigger holds for c. When
// none holds and the queue is now empty, the first applicable rule is
// forced so the session ends on a reward. Call only after a correct answer.
func (e *Evaluator) Evaluate(c Counters, queueEmpty bool) (Selection, bool) {
	for _, r := range e.applicable {
		if e.fires(r, c) {
			return Selection{Rule: r}, true
		}
	}
	if queueEmpty && len(e.applicable) > 0 {
		return Selection{Rule: e.applicable[0], Forced: true}, true
	}
	return Selection{}, false
}

func (e *Evaluator) fires(r Rule, c Counters) bool {
	n := r.TriggerValue
	if n <= 0 {
		return false
	}
	switch r.TriggerType {
	case TriggerFixedInterval:
		return c.TotalAnswered%n == 0
	case TriggerCorrectCount:
		return c.Finished%n == 0
	case TriggerAverageProbability:
		return e.rng.IntN(n) == 0
	default:
		return false
	}
}
