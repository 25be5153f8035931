package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

var outboxSelectColumns = []string{
	"id", "sequence", "kind", "session_id", "payload", "status", "attempts", "last_error", "created_at", "updated_at",
}

// outboxRepo implements OutboxRepo.
type outboxRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *outboxRepo) Enqueue(ctx context.Context, msgs ...OutboxMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	// Sequence numbers are drawn before the transaction: the counter uses
	// the same single connection.
	seqs := make([]int64, len(msgs))
	for i := range msgs {
		n, err := r.seq.Next(ctx)
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		seqs[i] = n
	}

	now := time.Now().UTC()
	ins := builder().Insert(tableOutbox).
		Columns("id", "sequence", "kind", "session_id", "payload", "status", "attempts", "last_error", "created_at", "updated_at")
	for i, m := range msgs {
		id := m.ID
		if id == "" {
			id = uuid.NewString()
		}
		ins.Values(id, seqs[i], m.Kind, m.SessionID, string(m.Payload), string(OutboxPending), 0, "", now, now)
	}
	query, args := ins.Query()

	// A single multi-row INSERT is atomic.
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("enqueue outbox messages: %w", err)
	}
	return nil
}

func (r *outboxRepo) Pending(ctx context.Context, limit int) ([]OutboxMessage, error) {
	sel := builder().Select(outboxSelectColumns...).
		From(entsql.Table(tableOutbox)).
		Where(entsql.EQ("status", string(OutboxPending))).
		OrderBy("sequence")
	if limit > 0 {
		sel.Limit(limit)
	}
	return r.query(ctx, sel)
}

func (r *outboxRepo) List(ctx context.Context, status OutboxStatus, limit int) ([]OutboxMessage, error) {
	sel := builder().Select(outboxSelectColumns...).
		From(entsql.Table(tableOutbox)).
		OrderBy(entsql.Desc("sequence"))
	if status != "" {
		sel.Where(entsql.EQ("status", string(status)))
	}
	if limit > 0 {
		sel.Limit(limit)
	}
	return r.query(ctx, sel)
}

func (r *outboxRepo) query(ctx context.Context, sel *entsql.Selector) ([]OutboxMessage, error) {
	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var out []OutboxMessage
	for rows.Next() {
		var (
			m       OutboxMessage
			payload string
			status  string
		)
		if err := rows.Scan(&m.ID, &m.Sequence, &m.Kind, &m.SessionID, &payload, &status,
			&m.Attempts, &m.LastError, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox message: %w", err)
		}
		m.Payload = []byte(payload)
		m.Status = OutboxStatus(status)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *outboxRepo) MarkDelivered(ctx context.Context, id string) error {
	return r.update(ctx, id, func(u *entsql.UpdateBuilder) {
		u.Set("status", string(OutboxDelivered)).
			Add("attempts", 1).
			Set("last_error", "")
	})
}

func (r *outboxRepo) MarkFailed(ctx context.Context, id string, reason string) error {
	return r.update(ctx, id, func(u *entsql.UpdateBuilder) {
		u.Add("attempts", 1).Set("last_error", reason)
	})
}

func (r *outboxRepo) MarkDead(ctx context.Context, id string, reason string) error {
	return r.update(ctx, id, func(u *entsql.UpdateBuilder) {
		u.Set("status", string(OutboxDead)).
			Add("attempts", 1).
			Set("last_error", reason)
	})
}

func (r *outboxRepo) Requeue(ctx context.Context, id string) error {
	return r.update(ctx, id, func(u *entsql.UpdateBuilder) {
		u.Set("status", string(OutboxPending))
	})
}

func (r *outboxRepo) update(ctx context.Context, id string, set func(*entsql.UpdateBuilder)) error {
	u := builder().Update(tableOutbox)
	set(u)
	u.Set("updated_at", time.Now().UTC()).Where(entsql.EQ("id", id))
	query, args := u.Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update outbox message %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("outbox message %s not found", id)
	}
	return nil
}

func (r *outboxRepo) Counts(ctx context.Context) (map[OutboxStatus]int, error) {
	query, args := builder().Select("status", entsql.As(entsql.Count("*"), "n")).
		From(entsql.Table(tableOutbox)).
		GroupBy("status").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count outbox: %w", err)
	}
	defer rows.Close()

	counts := make(map[OutboxStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan outbox count: %w", err)
		}
		counts[OutboxStatus(status)] = n
	}
	return counts, rows.Err()
}

func (r *outboxRepo) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	query, args := builder().Delete(tableOutbox).
		Where(entsql.And(
			entsql.EQ("status", string(OutboxDelivered)),
			entsql.LT("updated_at", cutoff.UTC()),
		)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("prune outbox: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune outbox: %w", err)
	}
	return int(n), nil
}
