package practice

import (
	"time"

	engine "github.com/abhisek/practiz/internal/practice"
	"github.com/abhisek/practiz/internal/store"
)

// loadedMsg carries the bootstrapped session, or why it failed.
type loadedMsg struct {
	Session *engine.Session
	Hinted  int
	Err     error
}

// transitionMsg delivers a scheduled transition once its delay elapsed.
type transitionMsg struct {
	T engine.Transition
}

// frameMsg advances the reward animation.
type frameMsg time.Time

// publishedMsg reports how delivering the result went.
type publishedMsg struct {
	Result *engine.Result
	Status []store.OutboxMessage
	Err    error
}
