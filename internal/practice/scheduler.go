package practice

import "time"

// TransitionKind names a deferred session transition.
type TransitionKind int

const (
	// TransitionRequeue moves the current question to the back of the queue
	// after a wrong answer and shows the next one.
	TransitionRequeue TransitionKind = iota
	// TransitionRetire removes the current question after its answer was
	// revealed.
	TransitionRetire
	// TransitionNext clears the "correct" feedback and shows the next
	// question. The solved question already left the queue.
	TransitionNext
	// TransitionDismissReward hides an animation reward.
	TransitionDismissReward
)

func (k TransitionKind) String() string {
	switch k {
	case TransitionRequeue:
		return "requeue"
	case TransitionRetire:
		return "retire"
	case TransitionNext:
		return "next"
	case TransitionDismissReward:
		return "dismiss-reward"
	default:
		return "unknown"
	}
}

// Transition is a scheduled state change. Seq identifies which scheduling
// produced it; only the most recent one is ever applied.
type Transition struct {
	Kind  TransitionKind
	Delay time.Duration
	Seq   uint64
}

// Scheduler holds at most one pending transition. Scheduling a new
// transition supersedes whatever was pending; a superseded or cancelled
// transition is rejected by Take when its timer eventually fires.
type Scheduler struct {
	seq      uint64
	pending  *Transition
	canceled bool
}

// Schedule replaces the pending transition and returns the new one. The
// caller arranges for it to be delivered back through Take after Delay.
// After Cancel, Schedule returns a transition Take will never accept.
func (s *Scheduler) Schedule(kind TransitionKind, delay time.Duration) Transition {
	s.seq++
	t := Transition{Kind: kind, Delay: delay, Seq: s.seq}
	if !s.canceled {
		s.pending = &t
	}
	return t
}

// Take consumes t if it is the pending transition. It returns false for
// stale or cancelled transitions, which the caller must drop.
func (s *Scheduler) Take(t Transition) bool {
	if s.canceled || s.pending == nil || s.pending.Seq != t.Seq {
		return false
	}
	s.pending = nil
	return true
}

// Pending returns the transition waiting to fire, if any.
func (s *Scheduler) Pending() (Transition, bool) {
	if s.pending == nil {
		return Transition{}, false
	}
	return *s.pending, true
}

// Clear drops the pending transition without disabling the scheduler.
func (s *Scheduler) Clear() {
	s.pending = nil
}

// Cancel drops the pending transition and rejects all future ones.
func (s *Scheduler) Cancel() {
	s.pending = nil
	s.canceled = true
}

// Canceled reports whether Cancel has been called.
func (s *Scheduler) Canceled() bool {
	return s.canceled
}
