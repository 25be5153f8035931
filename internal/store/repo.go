package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit     int       // max results (0 = unlimited)
	After     int64     // sequence > After
	Before    int64     // sequence < Before
	From      time.Time // timestamp >= From
	To        time.Time // timestamp <= To
	SessionID string    // exact session match when set
}

// Session event actions.
const (
	SessionStart   = "start"
	SessionEnd     = "end"
	SessionAbandon = "abandon"
)

// SessionEventData records a session lifecycle transition.
type SessionEventData struct {
	SessionID    string
	Action       string // start, end, abandon
	Kind         string // practice or homework
	LearnerID    string
	HomeworkID   string
	Subject      string
	Grade        int
	Name         string
	Total        int
	CorrectCount int
	WrongCount   int
	DurationSecs int
}

// SessionEventRecord is a stored session event.
type SessionEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	SessionEventData
}

// AnswerEventData records one submitted answer.
type AnswerEventData struct {
	SessionID  string
	QuestionID string
	Variant    string
	Answer     string
	Correct    bool
	Attempt    int    // 1-based attempt number for this question
	Outcome    string // solved, retry, hint, reveal
}

// AnswerEventRecord is a stored answer event.
type AnswerEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	AnswerEventData
}

// RewardEventData records a reward shown to the learner.
type RewardEventData struct {
	SessionID     string
	RuleID        string
	RewardKind    string
	Payload       string
	Forced        bool
	Finished      int
	TotalAnswered int
}

// RewardEventRecord is a stored reward event.
type RewardEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	RewardEventData
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsageStats aggregates LLM calls by purpose.
type LLMUsageStats struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// LLMModelUsage aggregates LLM calls by model.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	AppendSessionEvent(ctx context.Context, data SessionEventData) error
	AppendAnswerEvent(ctx context.Context, data AnswerEventData) error
	AppendRewardEvent(ctx context.Context, data RewardEventData) error
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QuerySessionEvents returns session events, newest first.
	QuerySessionEvents(ctx context.Context, opts QueryOpts) ([]SessionEventRecord, error)
	// SessionAnswers returns a session's answer events in submission order.
	SessionAnswers(ctx context.Context, sessionID string) ([]AnswerEventRecord, error)
	// SessionRewards returns a session's reward events in display order.
	SessionRewards(ctx context.Context, sessionID string) ([]RewardEventRecord, error)

	// QueryLLMEvents returns LLM events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)
	// GetLLMEvent returns one LLM event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)
}

// OutboxStatus is the delivery state of an outbox message.
type OutboxStatus string

const (
	OutboxPending   OutboxStatus = "pending"
	OutboxDelivered OutboxStatus = "delivered"
	OutboxDead      OutboxStatus = "dead"
)

// OutboxMessage is a write waiting to reach the portal.
type OutboxMessage struct {
	ID        string
	Sequence  int64
	Kind      string
	SessionID string
	Payload   []byte
	Status    OutboxStatus
	Attempts  int
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OutboxRepo persists outgoing portal writes until they are delivered.
type OutboxRepo interface {
	// Enqueue stores msgs atomically as pending, in the given order.
	Enqueue(ctx context.Context, msgs ...OutboxMessage) error
	// Pending returns pending messages oldest first. limit 0 means all.
	Pending(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkDelivered(ctx context.Context, id string) error
	// MarkFailed records a failed attempt and keeps the message pending.
	MarkFailed(ctx context.Context, id string, reason string) error
	// MarkDead records a permanent failure; the message is not retried.
	MarkDead(ctx context.Context, id string, reason string) error
	// Requeue moves a dead message back to pending.
	Requeue(ctx context.Context, id string) error
	// List returns messages newest first, optionally filtered by status.
	List(ctx context.Context, status OutboxStatus, limit int) ([]OutboxMessage, error)
	// Counts returns the number of messages per status.
	Counts(ctx context.Context) (map[OutboxStatus]int, error)
	// Prune deletes delivered messages last updated before cutoff.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}

// Credential is a saved portal login.
type Credential struct {
	PortalURL string
	Token     string
	Username  string
	LearnerID string
	Role      string
	SavedAt   time.Time
}

// CredentialRepo stores one credential per portal URL.
type CredentialRepo interface {
	Save(ctx context.Context, c Credential) error
	// Load returns the credential for portalURL, or nil if none is saved.
	Load(ctx context.Context, portalURL string) (*Credential, error)
	Clear(ctx context.Context, portalURL string) error
}
