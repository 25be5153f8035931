package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	s, err := Open(dsn)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil database")
	}
}

func TestOpen_IsIdempotentOnFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "practiz.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.EventRepo().AppendSessionEvent(context.Background(), SessionEventData{SessionID: "s", Action: SessionStart, Kind: "practice"}))
	require.NoError(t, s.Close())

	// Reopening migrates an existing schema without losing rows.
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	events, err := s.EventRepo().QuerySessionEvents(context.Background(), QueryOpts{})
	require.NoError(t, err)
	assert.Len(t, events, 1)

	var mode string
	require.NoError(t, s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is checked with a file-based DB above.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestSequenceIsGlobalAcrossTables(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	require.NoError(t, repo.AppendSessionEvent(ctx, SessionEventData{SessionID: "s1", Action: SessionStart, Kind: "practice"}))
	require.NoError(t, repo.AppendAnswerEvent(ctx, AnswerEventData{SessionID: "s1", QuestionID: "q1", Variant: "CALCULATION", Answer: "3", Correct: true, Attempt: 1, Outcome: "solved"}))
	require.NoError(t, repo.AppendRewardEvent(ctx, RewardEventData{SessionID: "s1", RuleID: "r1", RewardKind: "ANIMATION", Finished: 1, TotalAnswered: 1}))
	require.NoError(t, repo.AppendSessionEvent(ctx, SessionEventData{SessionID: "s1", Action: SessionEnd, Kind: "practice", Total: 1, CorrectCount: 1}))

	sessions, err := repo.QuerySessionEvents(ctx, QueryOpts{SessionID: "s1"})
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	answers, err := repo.SessionAnswers(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, answers, 1)
	rewards, err := repo.SessionRewards(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, rewards, 1)

	// Newest first: end, then start.
	end, start := sessions[0], sessions[1]
	assert.Equal(t, SessionEnd, end.Action)
	assert.Less(t, start.Sequence, answers[0].Sequence)
	assert.Less(t, answers[0].Sequence, rewards[0].Sequence)
	assert.Less(t, rewards[0].Sequence, end.Sequence)
	assert.True(t, answers[0].Correct)
	assert.Equal(t, 1, end.CorrectCount)
}

func TestQuerySessionEvents_Filters(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.AppendSessionEvent(ctx, SessionEventData{
			SessionID: fmt.Sprintf("s%d", i),
			Action:    SessionEnd,
			Kind:      "practice",
		}))
	}

	all, err := repo.QuerySessionEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 5)

	limited, err := repo.QuerySessionEvents(ctx, QueryOpts{Limit: 2})
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "s4", limited[0].SessionID)

	after, err := repo.QuerySessionEvents(ctx, QueryOpts{After: all[2].Sequence})
	require.NoError(t, err)
	assert.Len(t, after, 2)
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "anthropic", Model: "claude-haiku-4-5", Purpose: "hint",
		InputTokens: 100, OutputTokens: 20, LatencyMs: 300, Success: true,
		RequestBody: "[user]\nhint please", ResponseBody: `{"hint":"count on"}`,
	}))
	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "anthropic", Model: "claude-haiku-4-5", Purpose: "hint",
		InputTokens: 50, OutputTokens: 10, LatencyMs: 100, Success: false, ErrorMessage: "rate limited",
	}))

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 10})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.False(t, events[0].Success)
	assert.Equal(t, "rate limited", events[0].ErrorMessage)

	e, err := repo.GetLLMEvent(ctx, events[1].ID)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, `{"hint":"count on"}`, e.ResponseBody)

	missing, err := repo.GetLLMEvent(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	require.Len(t, byPurpose, 1)
	assert.Equal(t, LLMUsageStats{Purpose: "hint", Calls: 2, InputTokens: 150, OutputTokens: 30, AvgLatencyMs: 200}, byPurpose[0])

	byModel, err := repo.LLMUsageByModel(ctx)
	require.NoError(t, err)
	require.Len(t, byModel, 1)
	assert.Equal(t, 2, byModel[0].Calls)
}

func TestOutbox_Lifecycle(t *testing.T) {
	s := openTestStore(t)
	repo := s.OutboxRepo()
	ctx := context.Background()

	require.NoError(t, repo.Enqueue(ctx,
		OutboxMessage{Kind: "history", SessionID: "s1", Payload: []byte(`{"a":1}`)},
		OutboxMessage{Kind: "homework_complete", SessionID: "s1", Payload: []byte(`{"id":"hw"}`)},
	))

	pending, err := repo.Pending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "history", pending[0].Kind, "pending must be oldest first")
	assert.Equal(t, `{"a":1}`, string(pending[0].Payload))
	assert.NotEmpty(t, pending[0].ID)

	require.NoError(t, repo.MarkFailed(ctx, pending[0].ID, "connection refused"))
	again, err := repo.Pending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, pending[0].ID, again[0].ID)
	assert.Equal(t, 1, again[0].Attempts)
	assert.Equal(t, "connection refused", again[0].LastError)

	require.NoError(t, repo.MarkDelivered(ctx, pending[0].ID))
	require.NoError(t, repo.MarkDead(ctx, pending[1].ID, "homework not found"))

	left, err := repo.Pending(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, left)

	counts, err := repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[OutboxDelivered])
	assert.Equal(t, 1, counts[OutboxDead])

	dead, err := repo.List(ctx, OutboxDead, 0)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, "homework not found", dead[0].LastError)

	require.NoError(t, repo.Requeue(ctx, dead[0].ID))
	left, err = repo.Pending(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, left, 1)

	assert.Error(t, repo.MarkDelivered(ctx, "no-such-id"))
}

func TestOutbox_Prune(t *testing.T) {
	s := openTestStore(t)
	repo := s.OutboxRepo()
	ctx := context.Background()

	require.NoError(t, repo.Enqueue(ctx,
		OutboxMessage{Kind: "history", SessionID: "a"},
		OutboxMessage{Kind: "history", SessionID: "b"},
	))
	pending, err := repo.Pending(ctx, 0)
	require.NoError(t, err)
	require.NoError(t, repo.MarkDelivered(ctx, pending[0].ID))

	n, err := repo.Prune(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only delivered messages are pruned")

	all, err := repo.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "b", all[0].SessionID)
}

func TestCredentials(t *testing.T) {
	s := openTestStore(t)
	repo := s.CredentialRepo()
	ctx := context.Background()
	const url = "http://localhost:8080/api"

	c, err := repo.Load(ctx, url)
	require.NoError(t, err)
	assert.Nil(t, c)

	require.NoError(t, repo.Save(ctx, Credential{PortalURL: url, Token: "t1", Username: "mia", LearnerID: "stu-1", Role: "student"}))
	require.NoError(t, repo.Save(ctx, Credential{PortalURL: url, Token: "t2", Username: "mia", LearnerID: "stu-1", Role: "student"}))

	c, err = repo.Load(ctx, url)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "t2", c.Token, "save replaces the existing credential")
	assert.WithinDuration(t, time.Now(), c.SavedAt, time.Minute)

	require.NoError(t, repo.Clear(ctx, url))
	c, err = repo.Load(ctx, url)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()

	t.Run("env override", func(t *testing.T) {
		p := filepath.Join(dir, "custom", "x.db")
		t.Setenv("PRACTIZ_DB", p)
		got, err := DefaultDBPath()
		require.NoError(t, err)
		assert.Equal(t, p, got)
		assert.DirExists(t, filepath.Dir(p))
	})

	t.Run("xdg data home", func(t *testing.T) {
		t.Setenv("PRACTIZ_DB", "")
		t.Setenv("XDG_DATA_HOME", dir)
		got, err := DefaultDBPath()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "practiz", "practiz.db"), got)
	})
}
