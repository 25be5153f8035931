package practice

import (
	"reflect"
	"testing"
	"time"
)

func TestQueue(t *testing.T) {
	q := NewQueue([]string{"a", "b", "a", "c"})
	if got := q.IDs(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("IDs = %v, want [a b c]", got)
	}

	q.Requeue()
	if got := q.IDs(); !reflect.DeepEqual(got, []string{"b", "c", "a"}) {
		t.Errorf("after requeue IDs = %v, want [b c a]", got)
	}
	if q.Len() != 3 {
		t.Errorf("requeue changed length to %d", q.Len())
	}

	q.Retire()
	if cur, _ := q.Current(); cur != "c" {
		t.Errorf("current = %q, want c", cur)
	}

	q.Retire()
	q.Requeue() // single element: no-op
	q.Retire()
	if _, ok := q.Current(); ok {
		t.Error("expected empty queue")
	}
	q.Retire() // no-op on empty
	if q.Len() != 0 {
		t.Errorf("len = %d, want 0", q.Len())
	}
}

func TestAttemptTracker(t *testing.T) {
	tr := NewAttemptTracker()
	now := time.Now()
	tr.Record("q", "1", false, now)
	tr.Record("q", "2", false, now)
	tr.Record("q", "3", true, now)

	if tr.Wrong("q") != 2 {
		t.Errorf("wrong = %d, want 2", tr.Wrong("q"))
	}
	log := tr.Log("q")
	if len(log) != 3 || !log[2].Correct || log[0].Answer != "1" {
		t.Errorf("unexpected log %+v", log)
	}
	log[0].Answer = "mutated"
	if tr.Log("q")[0].Answer != "1" {
		t.Error("Log must return a copy")
	}
	if _, ok := tr.Last("missing"); ok {
		t.Error("expected no last attempt for unknown question")
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		correct bool
		wrong   int
		want    Outcome
	}{
		{true, 0, OutcomeSolved},
		{true, 2, OutcomeSolved},
		{false, 1, OutcomeRetry},
		{false, 2, OutcomeHint},
		{false, 3, OutcomeReveal},
	}
	for _, tt := range tests {
		if got := Decide(tt.correct, tt.wrong); got != tt.want {
			t.Errorf("Decide(%v, %d) = %s, want %s", tt.correct, tt.wrong, got, tt.want)
		}
	}
}

func TestScheduler(t *testing.T) {
	var s Scheduler

	first := s.Schedule(TransitionRequeue, time.Second)
	second := s.Schedule(TransitionNext, time.Second)

	if s.Take(first) {
		t.Error("superseded transition must be rejected")
	}
	if p, ok := s.Pending(); !ok || p.Seq != second.Seq {
		t.Errorf("pending = %+v, want seq %d", p, second.Seq)
	}
	if !s.Take(second) {
		t.Error("current transition must be accepted")
	}
	if s.Take(second) {
		t.Error("transition must be accepted only once")
	}

	third := s.Schedule(TransitionRetire, time.Second)
	s.Cancel()
	if s.Take(third) {
		t.Error("cancelled transition must be rejected")
	}
	after := s.Schedule(TransitionRetire, time.Second)
	if s.Take(after) {
		t.Error("transitions scheduled after Cancel must be rejected")
	}
	if !s.Canceled() {
		t.Error("expected Canceled")
	}
}
