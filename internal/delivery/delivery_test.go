package delivery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/practiz/internal/portal"
	"github.com/abhisek/practiz/internal/practice"
	"github.com/abhisek/practiz/internal/question"
	"github.com/abhisek/practiz/internal/store"
)

type call struct {
	kind    string
	target  string
	idemKey string
}

// fakePortal records calls and returns scripted errors per kind.
type fakePortal struct {
	mu    sync.Mutex
	calls []call
	errs  map[string][]error
	// delay is slept before each call is recorded.
	delay time.Duration
}

func (f *fakePortal) next(kind string) error {
	q := f.errs[kind]
	if len(q) == 0 {
		return nil
	}
	f.errs[kind] = q[1:]
	return q[0]
}

func (f *fakePortal) SaveHistory(_ context.Context, p portal.HistoryPayload, idemKey string) (*portal.HistoryEntry, error) {
	time.Sleep(f.delay)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{kind: KindHistory, target: p.SessionID, idemKey: idemKey})
	if err := f.next(KindHistory); err != nil {
		return nil, err
	}
	return &portal.HistoryEntry{ID: "h-" + p.SessionID, Total: p.Total}, nil
}

func (f *fakePortal) CompleteHomework(_ context.Context, homeworkID, idemKey string) error {
	time.Sleep(f.delay)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{kind: KindHomeworkComplete, target: homeworkID, idemKey: idemKey})
	return f.next(KindHomeworkComplete)
}

func (f *fakePortal) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.kind == kind {
			n++
		}
	}
	return n
}

func openOutbox(t *testing.T) store.OutboxRepo {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	s, err := store.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s.OutboxRepo()
}

func result(sessionID, homeworkID string) *practice.Result {
	q := &question.Question{ID: "q1", Variant: question.Calculation{}, StemText: "2+2", Answer: "4"}
	kind := practice.KindPractice
	if homeworkID != "" {
		kind = practice.KindHomework
	}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &practice.Result{
		SessionID: sessionID, Kind: kind, HomeworkID: homeworkID,
		Name: "数学练习", NameEn: "Math Practice", CorrectCount: 1, Total: 1,
		Questions: []practice.QuestionResult{{
			Question: q, Status: practice.StatusCorrect, FinalAnswer: "4", Attempts: 1,
			Log: []practice.Attempt{{Answer: "4", Correct: true, At: at}},
		}},
		StartedAt: at, FinishedAt: at,
	}
}

func unavailable() error {
	return &portal.APIError{Method: http.MethodPost, Path: "/history", Status: http.StatusServiceUnavailable}
}

func TestDeliver_HomeworkSendsHistoryThenCompletion(t *testing.T) {
	outbox := openOutbox(t)
	fp := &fakePortal{}
	d := New(outbox, fp)

	require.NoError(t, practice.Publish(context.Background(), d, result("s-1", "hw-1")))

	require.Len(t, fp.calls, 2)
	assert.Equal(t, KindHistory, fp.calls[0].kind)
	assert.Equal(t, KindHomeworkComplete, fp.calls[1].kind)
	assert.Equal(t, "hw-1", fp.calls[1].target)
	assert.NotEqual(t, fp.calls[0].idemKey, fp.calls[1].idemKey)

	counts, err := outbox.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, counts[store.OutboxDelivered])
	assert.Zero(t, counts[store.OutboxPending])
}

func TestDeliver_PracticeSkipsCompletion(t *testing.T) {
	fp := &fakePortal{}
	d := New(openOutbox(t), fp)

	require.NoError(t, d.Deliver(context.Background(), result("s-2", "")))
	assert.Equal(t, 1, fp.count(KindHistory))
	assert.Zero(t, fp.count(KindHomeworkComplete))
}

func TestPublish_NilResultIsNoop(t *testing.T) {
	fp := &fakePortal{}
	d := New(openOutbox(t), fp)
	require.NoError(t, practice.Publish(context.Background(), d, nil))
	assert.Empty(t, fp.calls)
}

func TestFlush_TransientFailureKeepsOrderAndRetriesLater(t *testing.T) {
	ctx := context.Background()
	outbox := openOutbox(t)
	fp := &fakePortal{errs: map[string][]error{KindHistory: {unavailable()}}}
	d := New(outbox, fp)

	require.NoError(t, d.Deliver(ctx, result("s-3", "hw-3")))

	// The completion must not overtake the failed history write.
	require.Len(t, fp.calls, 1)
	pending, err := outbox.Pending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, KindHistory, pending[0].Kind)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Contains(t, pending[0].LastError, "503")

	rep, err := d.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{Delivered: 2}, rep)
	require.Len(t, fp.calls, 3)
	assert.Equal(t, fp.calls[0].idemKey, fp.calls[1].idemKey, "retries reuse the idempotency key")
	assert.Equal(t, 1, fp.count(KindHomeworkComplete))
}

func TestFlush_PermanentFailureMarksDead(t *testing.T) {
	ctx := context.Background()
	outbox := openOutbox(t)
	rejected := &portal.APIError{Method: http.MethodPost, Path: "/history", Status: http.StatusBadRequest, Code: 1, Msg: "invalid payload"}
	fp := &fakePortal{errs: map[string][]error{KindHistory: {rejected}}}
	d := New(outbox, fp)

	msgs, err := Messages(result("s-4", "hw-4"))
	require.NoError(t, err)
	require.NoError(t, outbox.Enqueue(ctx, msgs...))

	rep, err := d.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Delivered)
	assert.Equal(t, 1, rep.Dead)
	assert.Zero(t, rep.Pending)
	assert.ErrorIs(t, rep.LastError, rejected)

	dead, err := outbox.List(ctx, store.OutboxDead, 0)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, KindHistory, dead[0].Kind)
	assert.Contains(t, dead[0].LastError, "invalid payload")
}

// failingHistory serves a portal whose history writes fail with an error
// envelope on HTTP 200 for the first failures requests. hits counts
// history writes only.
func failingHistory(t *testing.T, failures int32) (*portal.Client, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/history" {
			fmt.Fprint(w, `{"code":0,"err":"","data":null,"timestamp":0}`)
			return
		}
		n := hits.Add(1)
		if n <= failures {
			fmt.Fprint(w, `{"code":1,"err":"Failed to create history","data":null,"timestamp":0}`)
			return
		}
		fmt.Fprintf(w, `{"code":0,"err":"","data":{"id":"h-%d"},"timestamp":0}`, n)
	}))
	t.Cleanup(srv.Close)

	cfg := portal.DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.Retry.MaxAttempts = 1
	return portal.New(cfg, srv.Client()), &hits
}

func TestFlush_FailedWriteEnvelopeIsRetried(t *testing.T) {
	ctx := context.Background()
	outbox := openOutbox(t)
	client, hits := failingHistory(t, 1)
	d := New(outbox, client)

	require.NoError(t, d.Deliver(ctx, result("s-10", "")))
	pending, err := outbox.Pending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1, "a failed write stays pending")
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Contains(t, pending[0].LastError, "Failed to create history")

	rep, err := d.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{Delivered: 1}, rep)
	assert.Equal(t, int32(2), hits.Load())
}

func TestFlush_FailedWriteEnvelopeDeadAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	outbox := openOutbox(t)
	client, hits := failingHistory(t, 100)
	d := New(outbox, client, WithMaxAttempts(3))

	msgs, err := Messages(result("s-11", "hw-11"))
	require.NoError(t, err)
	require.NoError(t, outbox.Enqueue(ctx, msgs...))

	for range 2 {
		rep, err := d.Flush(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, rep.Pending, "the completion waits behind the history write")
		assert.Zero(t, rep.Dead)
	}

	// Third failure uses up the attempts; the completion is then sent.
	rep, err := d.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Dead)
	assert.Equal(t, 1, rep.Delivered)
	assert.Equal(t, int32(3), hits.Load())

	dead, err := outbox.List(ctx, store.OutboxDead, 0)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, KindHistory, dead[0].Kind)
	assert.Equal(t, 3, dead[0].Attempts)

	rep, err = d.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{}, rep)
	assert.Equal(t, int32(3), hits.Load())
}

func TestFlush_ConcurrentCallsSendOnce(t *testing.T) {
	ctx := context.Background()
	outbox := openOutbox(t)
	fp := &fakePortal{delay: 50 * time.Millisecond}
	d := New(outbox, fp)

	msgs, err := Messages(result("s-12", "hw-12"))
	require.NoError(t, err)
	require.NoError(t, outbox.Enqueue(ctx, msgs...))

	var wg sync.WaitGroup
	reports := make([]Report, 2)
	for i := range reports {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rep, err := d.Flush(ctx)
			assert.NoError(t, err)
			reports[i] = rep
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, fp.count(KindHistory))
	assert.Equal(t, 1, fp.count(KindHomeworkComplete))
	assert.Equal(t, 2, reports[0].Delivered+reports[1].Delivered)
}

func TestFlush_UnauthorizedStaysPending(t *testing.T) {
	ctx := context.Background()
	outbox := openOutbox(t)
	denied := &portal.APIError{Method: http.MethodPost, Path: "/history", Status: http.StatusUnauthorized}
	fp := &fakePortal{errs: map[string][]error{KindHistory: {denied}}}
	d := New(outbox, fp)

	msgs, err := Messages(result("s-5", ""))
	require.NoError(t, err)
	require.NoError(t, outbox.Enqueue(ctx, msgs...))

	rep, err := d.Flush(ctx)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, rep.Pending)
	assert.Zero(t, rep.Dead)
}

func TestFlush_MalformedMessageIsDead(t *testing.T) {
	ctx := context.Background()
	outbox := openOutbox(t)
	fp := &fakePortal{}
	d := New(outbox, fp)

	require.NoError(t, outbox.Enqueue(ctx,
		store.OutboxMessage{Kind: "mystery", SessionID: "s-6", Payload: []byte(`{}`)},
		store.OutboxMessage{Kind: KindHomeworkComplete, SessionID: "s-6", Payload: []byte(`{}`)},
	))

	rep, err := d.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Dead)
	assert.Empty(t, fp.calls)
}

func TestFlush_CanceledContext(t *testing.T) {
	outbox := openOutbox(t)
	fp := &fakePortal{errs: map[string][]error{KindHistory: {context.Canceled}}}
	d := New(outbox, fp)

	msgs, err := Messages(result("s-7", ""))
	require.NoError(t, err)
	require.NoError(t, outbox.Enqueue(context.Background(), msgs...))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := d.Flush(ctx)
	// Loading the outbox already observes the cancelled context.
	require.Error(t, err)
	assert.Zero(t, rep.Delivered)
}

func TestMessages(t *testing.T) {
	msgs, err := Messages(result("s-8", "hw-8"))
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.JSONEq(t, `{"homeworkId":"hw-8"}`, string(msgs[1].Payload))
	assert.Contains(t, string(msgs[0].Payload), `"total":"1"`)
	for _, m := range msgs {
		assert.Equal(t, "s-8", m.SessionID)
		assert.NotEmpty(t, m.ID)
	}
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	outbox := openOutbox(t)
	d := New(outbox, &fakePortal{})
	require.NoError(t, d.Deliver(ctx, result("s-9", "")))

	d.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	n, err := d.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
