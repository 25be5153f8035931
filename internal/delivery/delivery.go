// Package delivery moves finished session results to the portal through
// the local outbox, so a result survives network failures and restarts.
package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"github.com/abhisek/practiz/internal/logging"
	"github.com/abhisek/practiz/internal/portal"
	"github.com/abhisek/practiz/internal/practice"
	"github.com/abhisek/practiz/internal/store"
)

// Outbox message kinds.
const (
	KindHistory          = "history"
	KindHomeworkComplete = "homework_complete"
)

// DefaultMaxAttempts bounds how often a write the portal answered with an
// error envelope is tried before it is marked dead.
const DefaultMaxAttempts = 5

// ErrUnauthorized is returned by Flush when the portal rejected the token.
// Messages stay pending until the learner signs in again.
var ErrUnauthorized = errors.New("portal rejected the saved login")

// Portal is the subset of the portal client delivery writes through.
type Portal interface {
	SaveHistory(ctx context.Context, p portal.HistoryPayload, idemKey string) (*portal.HistoryEntry, error)
	CompleteHomework(ctx context.Context, homeworkID, idemKey string) error
}

// Report summarizes one flush.
type Report struct {
	Delivered int
	// Pending is the number of messages still waiting after the flush.
	Pending int
	// Dead is the number of messages marked dead during the flush.
	Dead int
	// LastError is the failure that stopped the flush, if any.
	LastError error
}

type homeworkPayload struct {
	HomeworkID string `json:"homeworkId"`
}

// Deliverer implements practice.ResultSink on top of the outbox.
type Deliverer struct {
	outbox      store.OutboxRepo
	portal      Portal
	logger      *log.Logger
	now         func() time.Time
	maxAttempts int

	// mu serializes flushes so two callers never send the same rows.
	mu sync.Mutex
}

// Option customizes a Deliverer.
type Option func(*Deliverer)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(d *Deliverer) { d.logger = l }
}

// WithMaxAttempts sets how often a rejected write is tried before it is
// marked dead. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(d *Deliverer) {
		if n > 0 {
			d.maxAttempts = n
		}
	}
}

// New creates a Deliverer.
func New(outbox store.OutboxRepo, p Portal, opts ...Option) *Deliverer {
	d := &Deliverer{
		outbox:      outbox,
		portal:      p,
		logger:      logging.Discard("delivery"),
		now:         time.Now,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var _ practice.ResultSink = (*Deliverer)(nil)

// Deliver records the result's writes in the outbox and flushes. The
// history write always precedes the homework completion. Deliver only
// fails when the result could not be stored locally; delivery failures
// leave the messages pending for a later Flush.
func (d *Deliverer) Deliver(ctx context.Context, r *practice.Result) error {
	msgs, err := Messages(r)
	if err != nil {
		return err
	}
	if err := d.outbox.Enqueue(ctx, msgs...); err != nil {
		return fmt.Errorf("store result of session %s: %w", r.SessionID, err)
	}
	d.logger.Infof("session %s queued %d outbox messages", r.SessionID, len(msgs))

	rep, err := d.Flush(ctx)
	if err != nil {
		d.logger.Warnf("session %s delivery deferred: %v", r.SessionID, err)
		return nil
	}
	if rep.Pending > 0 {
		d.logger.Warnf("session %s delivery deferred: %d pending: %v", r.SessionID, rep.Pending, rep.LastError)
	}
	return nil
}

// Messages converts a result into its outbox messages: a history write,
// followed by a homework completion for homework sessions.
func Messages(r *practice.Result) ([]store.OutboxMessage, error) {
	history, err := json.Marshal(portal.NewHistoryPayload(r))
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}
	msgs := []store.OutboxMessage{{
		ID:        uuid.NewString(),
		Kind:      KindHistory,
		SessionID: r.SessionID,
		Payload:   history,
	}}

	if r.Kind == practice.KindHomework && r.HomeworkID != "" {
		hw, err := json.Marshal(homeworkPayload{HomeworkID: r.HomeworkID})
		if err != nil {
			return nil, fmt.Errorf("encode homework completion: %w", err)
		}
		msgs = append(msgs, store.OutboxMessage{
			ID:        uuid.NewString(),
			Kind:      KindHomeworkComplete,
			SessionID: r.SessionID,
			Payload:   hw,
		})
	}
	return msgs, nil
}

// Flush sends pending messages oldest first. It stops at the first
// retryable failure so later messages never overtake earlier ones, and
// marks permanently rejected messages dead. A write the portal answered
// with an error envelope is retried on later flushes until it has been
// tried maxAttempts times. The returned error is non-nil only when the
// outbox itself failed, the context ended, or the portal rejected the
// token. Concurrent calls run one after the other.
func (d *Deliverer) Flush(ctx context.Context) (Report, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var rep Report

	pending, err := d.outbox.Pending(ctx, 0)
	if err != nil {
		return rep, fmt.Errorf("load outbox: %w", err)
	}

	for i, msg := range pending {
		sendErr := d.send(ctx, msg)
		if sendErr == nil {
			if err := d.outbox.MarkDelivered(ctx, msg.ID); err != nil {
				return rep, fmt.Errorf("mark %s delivered: %w", msg.ID, err)
			}
			rep.Delivered++
			d.logger.Debugf("delivered %s %s", msg.Kind, msg.ID)
			continue
		}

		rep.LastError = sendErr
		if permanent(ctx, sendErr) || (rejected(sendErr) && msg.Attempts+1 >= d.maxAttempts) {
			if err := d.outbox.MarkDead(ctx, msg.ID, sendErr.Error()); err != nil {
				return rep, fmt.Errorf("mark %s dead: %w", msg.ID, err)
			}
			rep.Dead++
			d.logger.Errorf("dropped %s %s: %v", msg.Kind, msg.ID, sendErr)
			continue
		}

		// Record against a fresh context so a cancelled flush still
		// counts the attempt.
		markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		markErr := d.outbox.MarkFailed(markCtx, msg.ID, sendErr.Error())
		cancel()
		if markErr != nil {
			return rep, fmt.Errorf("mark %s failed: %w", msg.ID, markErr)
		}
		rep.Pending = len(pending) - i
		d.logger.Warnf("delivery of %s %s failed: %v", msg.Kind, msg.ID, sendErr)

		switch {
		case ctx.Err() != nil:
			return rep, ctx.Err()
		case portal.IsUnauthorized(sendErr):
			return rep, fmt.Errorf("%w: %v", ErrUnauthorized, sendErr)
		}
		return rep, nil
	}
	return rep, nil
}

// permanent reports whether a failed send should not be retried. Auth
// failures are kept pending since signing in again fixes them.
func permanent(ctx context.Context, err error) bool {
	if ctx.Err() != nil || portal.IsTemporary(err) || portal.IsUnauthorized(err) || rejected(err) {
		return false
	}
	var apiErr *portal.APIError
	if errors.As(err, &apiErr) {
		return true
	}
	return errors.Is(err, errMalformed)
}

// rejected reports whether the portal accepted the request but answered
// with an error envelope. The portal reports failed writes this way.
func rejected(err error) bool {
	var apiErr *portal.APIError
	return errors.As(err, &apiErr) && apiErr.Code != 0 &&
		apiErr.Status >= 200 && apiErr.Status <= 299
}

var errMalformed = errors.New("malformed outbox message")

func (d *Deliverer) send(ctx context.Context, msg store.OutboxMessage) error {
	switch msg.Kind {
	case KindHistory:
		var p portal.HistoryPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("%w: %v", errMalformed, err)
		}
		_, err := d.portal.SaveHistory(ctx, p, msg.ID)
		return err
	case KindHomeworkComplete:
		var p homeworkPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("%w: %v", errMalformed, err)
		}
		if p.HomeworkID == "" {
			return fmt.Errorf("%w: no homework id", errMalformed)
		}
		return d.portal.CompleteHomework(ctx, p.HomeworkID, msg.ID)
	default:
		return fmt.Errorf("%w: unknown kind %q", errMalformed, msg.Kind)
	}
}

// Prune removes delivered messages older than age.
func (d *Deliverer) Prune(ctx context.Context, age time.Duration) (int, error) {
	n, err := d.outbox.Prune(ctx, d.now().Add(-age))
	if err != nil {
		return 0, fmt.Errorf("prune outbox: %w", err)
	}
	return n, nil
}
