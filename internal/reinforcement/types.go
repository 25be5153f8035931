package reinforcement

import (
	"slices"
	"time"
)

// TriggerType decides when a rule fires after a correct answer.
type TriggerType string

const (
	// TriggerFixedInterval fires when the total number of submissions
	// (correct or wrong) is a multiple of N.
	TriggerFixedInterval TriggerType = "FIXED_INTERVAL"

	// TriggerCorrectCount fires when the number of correct answers is a
	// multiple of N.
	TriggerCorrectCount TriggerType = "CORRECT_COUNT"

	// TriggerAverageProbability fires with probability 1/N.
	TriggerAverageProbability TriggerType = "AVERAGE_PROBABILITY"
)

// RewardKind is how a reward is presented.
type RewardKind string

const (
	// RewardAnimation dismisses itself after its duration.
	RewardAnimation RewardKind = "ANIMATION"

	// RewardMiniGame blocks until the learner dismisses it.
	RewardMiniGame RewardKind = "MINI_GAME"
)

// DefaultAnimationDuration applies when a rule leaves its duration unset.
const DefaultAnimationDuration = 3 * time.Second

// Rule is a configured reward condition. Rules are read-only for a session.
type Rule struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	IsGlobal     bool        `json:"isGlobal"`
	TargetIDs    []string    `json:"targetIds,omitempty"`
	TriggerType  TriggerType `json:"triggerType"`
	TriggerValue int         `json:"triggerValue"`
	RewardKind   RewardKind  `json:"rewardType"`
	// RewardPayload is what the presenter shows: an animation name, a
	// caption, a URL or a mini-game id.
	RewardPayload string `json:"rewardPayload"`
	// DurationSecs is the animation length in seconds. Zero means default.
	DurationSecs int  `json:"duration,omitempty"`
	Active       bool `json:"isActive"`
}

// AppliesTo reports whether the rule is active and in scope for learnerID.
func (r Rule) AppliesTo(learnerID string) bool {
	if !r.Active {
		return false
	}
	if r.IsGlobal {
		return true
	}
	return learnerID != "" && slices.Contains(r.TargetIDs, learnerID)
}

// Duration returns how long an animation reward stays visible.
func (r Rule) Duration() time.Duration {
	if r.DurationSecs <= 0 {
		return DefaultAnimationDuration
	}
	return time.Duration(r.DurationSecs) * time.Second
}

// Blocking reports whether the reward waits for the learner to dismiss it.
func (r Rule) Blocking() bool {
	return r.RewardKind == RewardMiniGame
}

// Counters are the session counters a trigger is evaluated against.
type Counters struct {
	// Finished is the number of correct answers so far, including the one
	// being evaluated.
	Finished int
	// TotalAnswered is the number of submissions so far, correct or wrong,
	// including the one being evaluated.
	TotalAnswered int
}

// Selection is the outcome of an evaluation that picked a rule.
type Selection struct {
	Rule Rule
	// Forced is true when no trigger matched and the rule was picked
	// because the session just ran out of questions.
	Forced bool
}
