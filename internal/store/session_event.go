package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// eventRepo implements EventRepo with ent's SQL builder and the global
// sequence counter.
type eventRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

// append inserts one event row with the next sequence number.
func (r *eventRepo) append(ctx context.Context, table string, cols []string, vals []any) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := builder().Insert(table).
		Columns(append([]string{"sequence", "timestamp"}, cols...)...).
		Values(append([]any{seqNum, time.Now().UTC()}, vals...)...).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// applyOpts adds the QueryOpts filters to sel.
func applyOpts(sel *entsql.Selector, opts QueryOpts) *entsql.Selector {
	if opts.After > 0 {
		sel.Where(entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		sel.Where(entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		sel.Where(entsql.GTE("timestamp", opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		sel.Where(entsql.LTE("timestamp", opts.To.UTC()))
	}
	if opts.SessionID != "" {
		sel.Where(entsql.EQ("session_id", opts.SessionID))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	return sel
}

func (r *eventRepo) AppendSessionEvent(ctx context.Context, data SessionEventData) error {
	err := r.append(ctx, tableSessionEvents,
		[]string{"session_id", "action", "kind", "learner_id", "homework_id", "subject", "grade", "name", "total", "correct_count", "wrong_count", "duration_secs"},
		[]any{data.SessionID, data.Action, data.Kind, data.LearnerID, data.HomeworkID, data.Subject, data.Grade, data.Name, data.Total, data.CorrectCount, data.WrongCount, data.DurationSecs},
	)
	if err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendAnswerEvent(ctx context.Context, data AnswerEventData) error {
	err := r.append(ctx, tableAnswerEvents,
		[]string{"session_id", "question_id", "variant", "answer", "correct", "attempt", "outcome"},
		[]any{data.SessionID, data.QuestionID, data.Variant, data.Answer, data.Correct, data.Attempt, data.Outcome},
	)
	if err != nil {
		return fmt.Errorf("save answer event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendRewardEvent(ctx context.Context, data RewardEventData) error {
	err := r.append(ctx, tableRewardEvents,
		[]string{"session_id", "rule_id", "reward_kind", "payload", "forced", "finished", "total_answered"},
		[]any{data.SessionID, data.RuleID, data.RewardKind, data.Payload, data.Forced, data.Finished, data.TotalAnswered},
	)
	if err != nil {
		return fmt.Errorf("save reward event: %w", err)
	}
	return nil
}

func (r *eventRepo) QuerySessionEvents(ctx context.Context, opts QueryOpts) ([]SessionEventRecord, error) {
	sel := builder().Select(
		"id", "sequence", "timestamp", "session_id", "action", "kind", "learner_id",
		"homework_id", "subject", "grade", "name", "total", "correct_count", "wrong_count", "duration_secs",
	).From(entsql.Table(tableSessionEvents))
	query, args := applyOpts(sel, opts).OrderBy(entsql.Desc("sequence")).Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query session events: %w", err)
	}
	defer rows.Close()

	var out []SessionEventRecord
	for rows.Next() {
		var e SessionEventRecord
		if err := rows.Scan(&e.ID, &e.Sequence, &e.Timestamp, &e.SessionID, &e.Action, &e.Kind, &e.LearnerID,
			&e.HomeworkID, &e.Subject, &e.Grade, &e.Name, &e.Total, &e.CorrectCount, &e.WrongCount, &e.DurationSecs); err != nil {
			return nil, fmt.Errorf("scan session event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepo) SessionAnswers(ctx context.Context, sessionID string) ([]AnswerEventRecord, error) {
	query, args := builder().Select(
		"id", "sequence", "timestamp", "session_id", "question_id", "variant", "answer", "correct", "attempt", "outcome",
	).From(entsql.Table(tableAnswerEvents)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("sequence").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query answer events: %w", err)
	}
	defer rows.Close()

	var out []AnswerEventRecord
	for rows.Next() {
		var e AnswerEventRecord
		if err := rows.Scan(&e.ID, &e.Sequence, &e.Timestamp, &e.SessionID, &e.QuestionID, &e.Variant,
			&e.Answer, &e.Correct, &e.Attempt, &e.Outcome); err != nil {
			return nil, fmt.Errorf("scan answer event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepo) SessionRewards(ctx context.Context, sessionID string) ([]RewardEventRecord, error) {
	query, args := builder().Select(
		"id", "sequence", "timestamp", "session_id", "rule_id", "reward_kind", "payload", "forced", "finished", "total_answered",
	).From(entsql.Table(tableRewardEvents)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("sequence").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reward events: %w", err)
	}
	defer rows.Close()

	var out []RewardEventRecord
	for rows.Next() {
		var e RewardEventRecord
		if err := rows.Scan(&e.ID, &e.Sequence, &e.Timestamp, &e.SessionID, &e.RuleID, &e.RewardKind,
			&e.Payload, &e.Forced, &e.Finished, &e.TotalAnswered); err != nil {
			return nil, fmt.Errorf("scan reward event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
