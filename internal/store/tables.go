package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table names.
const (
	tableSequence      = "global_sequence"
	tableSessionEvents = "session_events"
	tableAnswerEvents  = "answer_events"
	tableRewardEvents  = "reward_events"
	tableLLMEvents     = "llm_request_events"
	tableOutbox        = "outbox"
	tableCredentials   = "credentials"
)

// eventColumns returns the id, sequence and timestamp columns every event
// table starts with.
func eventColumns() []*schema.Column {
	return []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64},
		{Name: "timestamp", Type: field.TypeTime},
	}
}

// eventTable builds an event table from the shared columns plus cols, with
// the sequence and timestamp indexes every event table carries.
func eventTable(name string, cols ...*schema.Column) *schema.Table {
	all := append(eventColumns(), cols...)
	return &schema.Table{
		Name:       name,
		Columns:    all,
		PrimaryKey: []*schema.Column{all[0]},
		Indexes: []*schema.Index{
			{Name: name + "_sequence", Unique: true, Columns: []*schema.Column{all[1]}},
			{Name: name + "_timestamp", Columns: []*schema.Column{all[2]}},
		},
	}
}

var (
	sequenceColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt},
		{Name: "next_val", Type: field.TypeInt64, Default: 1},
	}
	sequenceTable = &schema.Table{
		Name:       tableSequence,
		Columns:    sequenceColumns,
		PrimaryKey: []*schema.Column{sequenceColumns[0]},
	}

	sessionEventsTable = eventTable(tableSessionEvents,
		&schema.Column{Name: "session_id", Type: field.TypeString},
		&schema.Column{Name: "action", Type: field.TypeString},
		&schema.Column{Name: "kind", Type: field.TypeString},
		&schema.Column{Name: "learner_id", Type: field.TypeString, Default: ""},
		&schema.Column{Name: "homework_id", Type: field.TypeString, Default: ""},
		&schema.Column{Name: "subject", Type: field.TypeString, Default: ""},
		&schema.Column{Name: "grade", Type: field.TypeInt, Default: 0},
		&schema.Column{Name: "name", Type: field.TypeString, Default: ""},
		&schema.Column{Name: "total", Type: field.TypeInt, Default: 0},
		&schema.Column{Name: "correct_count", Type: field.TypeInt, Default: 0},
		&schema.Column{Name: "wrong_count", Type: field.TypeInt, Default: 0},
		&schema.Column{Name: "duration_secs", Type: field.TypeInt, Default: 0},
	)

	answerEventsTable = eventTable(tableAnswerEvents,
		&schema.Column{Name: "session_id", Type: field.TypeString},
		&schema.Column{Name: "question_id", Type: field.TypeString},
		&schema.Column{Name: "variant", Type: field.TypeString},
		&schema.Column{Name: "answer", Type: field.TypeString},
		&schema.Column{Name: "correct", Type: field.TypeBool},
		&schema.Column{Name: "attempt", Type: field.TypeInt},
		&schema.Column{Name: "outcome", Type: field.TypeString},
	)

	rewardEventsTable = eventTable(tableRewardEvents,
		&schema.Column{Name: "session_id", Type: field.TypeString},
		&schema.Column{Name: "rule_id", Type: field.TypeString},
		&schema.Column{Name: "reward_kind", Type: field.TypeString},
		&schema.Column{Name: "payload", Type: field.TypeString, Default: ""},
		&schema.Column{Name: "forced", Type: field.TypeBool, Default: false},
		&schema.Column{Name: "finished", Type: field.TypeInt},
		&schema.Column{Name: "total_answered", Type: field.TypeInt},
	)

	llmEventsTable = eventTable(tableLLMEvents,
		&schema.Column{Name: "provider", Type: field.TypeString},
		&schema.Column{Name: "model", Type: field.TypeString},
		&schema.Column{Name: "purpose", Type: field.TypeString},
		&schema.Column{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		&schema.Column{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		&schema.Column{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		&schema.Column{Name: "success", Type: field.TypeBool},
		&schema.Column{Name: "error_message", Type: field.TypeString, Default: ""},
		&schema.Column{Name: "request_body", Type: field.TypeString, Size: 1 << 20, Default: ""},
		&schema.Column{Name: "response_body", Type: field.TypeString, Size: 1 << 20, Default: ""},
	)

	outboxColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "sequence", Type: field.TypeInt64},
		{Name: "kind", Type: field.TypeString},
		{Name: "session_id", Type: field.TypeString},
		{Name: "payload", Type: field.TypeString, Size: 1 << 20},
		{Name: "status", Type: field.TypeString, Default: string(OutboxPending)},
		{Name: "attempts", Type: field.TypeInt, Default: 0},
		{Name: "last_error", Type: field.TypeString, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	outboxTable = &schema.Table{
		Name:       tableOutbox,
		Columns:    outboxColumns,
		PrimaryKey: []*schema.Column{outboxColumns[0]},
		Indexes: []*schema.Index{
			{Name: "outbox_status_sequence", Columns: []*schema.Column{outboxColumns[5], outboxColumns[1]}},
			{Name: "outbox_session_id", Columns: []*schema.Column{outboxColumns[3]}},
		},
	}

	credentialColumns = []*schema.Column{
		{Name: "portal_url", Type: field.TypeString},
		{Name: "token", Type: field.TypeString, Size: 8192},
		{Name: "username", Type: field.TypeString, Default: ""},
		{Name: "learner_id", Type: field.TypeString, Default: ""},
		{Name: "role", Type: field.TypeString, Default: ""},
		{Name: "saved_at", Type: field.TypeTime},
	}
	credentialsTable = &schema.Table{
		Name:       tableCredentials,
		Columns:    credentialColumns,
		PrimaryKey: []*schema.Column{credentialColumns[0]},
	}

	// tables is the full schema, created in order on Open.
	tables = []*schema.Table{
		sequenceTable,
		sessionEventsTable,
		answerEventsTable,
		rewardEventsTable,
		llmEventsTable,
		outboxTable,
		credentialsTable,
	}
)
