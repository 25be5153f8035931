package practice

import (
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/abhisek/practiz/internal/question"
	"github.com/abhisek/practiz/internal/reinforcement"
)

var (
	// ErrNoQuestions is returned when a session would start empty.
	ErrNoQuestions = errors.New("no questions available for this session")
	// ErrBusy is returned when an answer arrives while feedback or a
	// reward is on screen.
	ErrBusy = errors.New("session is showing feedback")
	// ErrFinished is returned for input after the session has finalized
	// or been closed.
	ErrFinished = errors.New("session is finished")
	// ErrEmptyAnswer is returned for a blank submission.
	ErrEmptyAnswer = errors.New("answer is empty")
)

// GenericHint is shown on a second wrong answer when the question has no
// authored hint.
const GenericHint = "Think again!"

// Phase is where the session is in its answer cycle.
type Phase int

const (
	PhaseAnswering Phase = iota // waiting for an answer
	PhaseFeedback               // showing the outcome of the last answer
	PhaseFinished               // result built
	PhaseClosed                 // torn down before finishing
)

// Reward is a reward currently on screen.
type Reward struct {
	Rule    reinforcement.Rule
	Forced  bool
	ShownAt time.Time
}

// Blocking reports whether the learner must dismiss the reward.
func (r *Reward) Blocking() bool {
	return r.Rule.Blocking()
}

// Submission reports what happened to one answer.
type Submission struct {
	QuestionID string
	Correct    bool
	Outcome    Outcome
	// Wrong is the question's wrong count after this answer.
	Wrong int
	// Reward is set when a reward rule fired.
	Reward *Reward
	// Schedule is the transition the caller must deliver back via Fire
	// after its delay, or nil.
	Schedule *Transition
	// Result is set when this answer finished the session.
	Result *Result
}

// Step reports what a fired transition or a dismissal did.
type Step struct {
	// Applied is false when the transition was stale and ignored.
	Applied  bool
	Schedule *Transition
	Result   *Result
}

// Counters is a read-only view of the session counters.
type Counters struct {
	Finished      int
	TotalAnswered int
	TotalInitial  int
	Remaining     int
}

// Session is the practice engine for one learner over a fixed question set.
// It is not safe for concurrent use; the UI event loop owns it.
type Session struct {
	cfg       Config
	questions map[string]*question.Question
	order     []string
	queue     *Queue
	attempts  *AttemptTracker
	evaluator *reinforcement.Evaluator
	sched     Scheduler

	finished      int
	totalAnswered int

	phase     Phase
	outcome   Outcome
	feedbackQ *question.Question
	reward    *Reward
	result    *Result
	startedAt time.Time
}

// New starts a session over questions with the given reward rules. rng
// drives probability triggers; nil seeds from the clock.
func New(cfg Config, questions []question.Question, rules []reinforcement.Rule, rng *rand.Rand, now time.Time) (*Session, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	if cfg.Timings == (Timings{}) {
		cfg.Timings = DefaultTimings()
	}
	if cfg.Kind == "" {
		cfg.Kind = KindPractice
		if cfg.HomeworkID != "" {
			cfg.Kind = KindHomework
		}
	}

	byID := make(map[string]*question.Question, len(questions))
	ids := make([]string, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		if _, dup := byID[q.ID]; dup {
			continue
		}
		byID[q.ID] = q
		ids = append(ids, q.ID)
	}

	return &Session{
		cfg:       cfg,
		questions: byID,
		order:     ids,
		queue:     NewQueue(ids),
		attempts:  NewAttemptTracker(),
		evaluator: reinforcement.NewEvaluator(rules, cfg.LearnerID, rng),
		phase:     PhaseAnswering,
		startedAt: now,
	}, nil
}

// Config returns the session configuration.
func (s *Session) Config() Config { return s.cfg }

// Phase returns the current phase.
func (s *Session) Phase() Phase { return s.phase }

// Outcome returns the outcome of the answer whose feedback is showing.
func (s *Session) Outcome() Outcome { return s.outcome }

// Reward returns the reward on screen, or nil.
func (s *Session) Reward() *Reward { return s.reward }

// Result returns the result once the session has finished.
func (s *Session) Result() *Result { return s.result }

// StartedAt returns when the session began.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// ApplicableRules returns the reward rules in scope for the learner.
func (s *Session) ApplicableRules() []reinforcement.Rule {
	return s.evaluator.Applicable()
}

// Counters returns a snapshot of the session counters.
func (s *Session) Counters() Counters {
	return Counters{
		Finished:      s.finished,
		TotalAnswered: s.totalAnswered,
		TotalInitial:  len(s.order),
		Remaining:     s.queue.Len(),
	}
}

// Current returns the question on screen. While "correct" feedback is
// showing this is the solved question, which has already left the queue.
func (s *Session) Current() (*question.Question, bool) {
	if s.phase == PhaseFeedback && s.feedbackQ != nil {
		return s.feedbackQ, true
	}
	id, ok := s.queue.Current()
	if !ok {
		return nil, false
	}
	return s.questions[id], true
}

// Hint returns the hint text for the current question.
func (s *Session) Hint() string {
	q, ok := s.Current()
	if !ok || strings.TrimSpace(q.Hint) == "" {
		return GenericHint
	}
	return q.Hint
}

// Attempts returns the attempt log of a question.
func (s *Session) Attempts(questionID string) []Attempt {
	return s.attempts.Log(questionID)
}

// Pending returns the transition waiting to fire, if any.
func (s *Session) Pending() (Transition, bool) {
	return s.sched.Pending()
}

// Submit evaluates an answer for the current question.
func (s *Session) Submit(answer string, now time.Time) (Submission, error) {
	switch {
	case s.phase == PhaseFinished || s.phase == PhaseClosed:
		return Submission{}, ErrFinished
	case s.phase != PhaseAnswering || s.reward != nil:
		return Submission{}, ErrBusy
	case strings.TrimSpace(answer) == "":
		return Submission{}, ErrEmptyAnswer
	}

	id, ok := s.queue.Current()
	if !ok {
		return Submission{}, ErrFinished
	}
	q := s.questions[id]

	correct := q.Check(answer)
	s.totalAnswered++
	s.attempts.Record(id, answer, correct, now)
	wrong := s.attempts.Wrong(id)
	outcome := Decide(correct, wrong)

	sub := Submission{QuestionID: id, Correct: correct, Outcome: outcome, Wrong: wrong}
	s.phase = PhaseFeedback
	s.outcome = outcome
	s.feedbackQ = q

	switch outcome {
	case OutcomeSolved:
		s.finished++
		s.queue.Retire()
		sub.Reward = s.evaluate(now)
		sub.Schedule, sub.Result = s.afterSolve(now)
	case OutcomeRetry:
		sub.Schedule = s.schedule(TransitionRequeue, s.cfg.Timings.Short)
	case OutcomeHint:
		sub.Schedule = s.schedule(TransitionRequeue, s.cfg.Timings.Long)
	case OutcomeReveal:
		sub.Schedule = s.schedule(TransitionRetire, s.cfg.Timings.Long)
	}
	return sub, nil
}

// evaluate runs the reward rules after a solve and puts the selected
// reward on screen.
func (s *Session) evaluate(now time.Time) *Reward {
	sel, ok := s.evaluator.Evaluate(reinforcement.Counters{
		Finished:      s.finished,
		TotalAnswered: s.totalAnswered,
	}, s.queue.Len() == 0)
	if !ok {
		return nil
	}
	s.reward = &Reward{Rule: sel.Rule, Forced: sel.Forced, ShownAt: now}
	return s.reward
}

// afterSolve schedules what follows a solve. With questions left, the
// next question comes after the short delay regardless of any reward.
// With none left, the session finalizes once the reward is gone.
func (s *Session) afterSolve(now time.Time) (*Transition, *Result) {
	if s.queue.Len() > 0 {
		return s.schedule(TransitionNext, s.cfg.Timings.Short), nil
	}
	switch {
	case s.reward == nil:
		return nil, s.finalize(now)
	case s.reward.Blocking():
		return nil, nil
	default:
		return s.schedule(TransitionDismissReward, s.reward.Rule.Duration()), nil
	}
}

// Fire applies a transition previously returned by Submit, Fire or
// DismissReward. Stale transitions are ignored.
func (s *Session) Fire(t Transition, now time.Time) Step {
	if !s.sched.Take(t) {
		return Step{}
	}
	step := Step{Applied: true}

	switch t.Kind {
	case TransitionRequeue:
		s.queue.Requeue()
		s.clearFeedback()
	case TransitionRetire:
		s.queue.Retire()
		s.clearFeedback()
		if s.queue.Len() == 0 {
			step.Result = s.finalize(now)
		}
	case TransitionNext:
		s.clearFeedback()
		if s.reward != nil && !s.reward.Blocking() {
			remaining := s.reward.Rule.Duration() - now.Sub(s.reward.ShownAt)
			if remaining <= 0 {
				s.reward = nil
			} else {
				step.Schedule = s.schedule(TransitionDismissReward, remaining)
			}
		}
	case TransitionDismissReward:
		s.reward = nil
		if s.queue.Len() == 0 {
			step.Result = s.finalize(now)
		}
	}
	return step
}

// DismissReward closes a blocking reward on learner request. Animation
// rewards close on their own and are not affected.
func (s *Session) DismissReward(now time.Time) Step {
	if s.reward == nil || !s.reward.Blocking() || s.phase == PhaseClosed {
		return Step{}
	}
	s.reward = nil
	step := Step{Applied: true}
	if s.queue.Len() == 0 {
		step.Result = s.finalize(now)
	}
	return step
}

// Close tears the session down. Pending transitions are cancelled and no
// result is produced.
func (s *Session) Close() {
	s.sched.Cancel()
	if s.phase != PhaseFinished {
		s.phase = PhaseClosed
	}
}

func (s *Session) schedule(kind TransitionKind, delay time.Duration) *Transition {
	t := s.sched.Schedule(kind, delay)
	return &t
}

func (s *Session) clearFeedback() {
	if s.phase == PhaseFeedback {
		s.phase = PhaseAnswering
	}
	s.feedbackQ = nil
}

// finalize builds the result exactly once.
func (s *Session) finalize(now time.Time) *Result {
	if s.result != nil {
		return nil
	}
	s.sched.Cancel()
	s.feedbackQ = nil
	s.phase = PhaseFinished
	s.result = BuildResult(s.cfg, s.order, s.questions, s.attempts, s.startedAt, now)
	return s.result
}
