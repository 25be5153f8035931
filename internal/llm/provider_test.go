package llm

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
)

var hintSchema = &Schema{
	Name: "test-hint",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"hint": map[string]any{"type": "string", "minLength": 1},
		},
		"required":             []string{"hint"},
		"additionalProperties": false,
	},
}

func TestMockProvider(t *testing.T) {
	m := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"hint":"count on"}`), Usage: Usage{InputTokens: 3, OutputTokens: 4}},
		MockResponse{Err: &ErrRateLimit{}},
	)
	ctx := context.Background()

	resp, err := m.Generate(ctx, UserPrompt("sys", "first"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	var out struct{ Hint string }
	if err := resp.Decode(&out); err != nil || out.Hint != "count on" {
		t.Fatalf("Decode = %+v, %v", out, err)
	}

	if _, err := m.Generate(ctx, UserPrompt("", "second")); !errors.As(err, new(*ErrRateLimit)) {
		t.Fatalf("second call error = %v, want rate limit", err)
	}
	if _, err := m.Generate(ctx, Request{}); !errors.As(err, new(*ErrProviderUnavailable)) {
		t.Fatalf("empty queue error = %v, want unavailable", err)
	}

	calls := m.Calls()
	if len(calls) != 3 || calls[0].Messages[0].Content != "first" || calls[0].System != "sys" {
		t.Fatalf("calls = %+v", calls)
	}
}

func TestMockProvider_EnforcesSchema(t *testing.T) {
	m := NewMockProvider(MockResponse{Content: json.RawMessage(`{"hint":""}`)})
	req := UserPrompt("", "x")
	req.Schema = hintSchema

	_, err := m.Generate(context.Background(), req)
	var invalid *ErrInvalidResponse
	if !errors.As(err, &invalid) {
		t.Fatalf("error = %v, want ErrInvalidResponse", err)
	}
}

func TestPurpose(t *testing.T) {
	if got := PurposeFrom(context.Background()); got != "unknown" {
		t.Errorf("PurposeFrom(empty) = %q", got)
	}
	if got := PurposeFrom(WithPurpose(context.Background(), "hint")); got != "hint" {
		t.Errorf("PurposeFrom = %q, want hint", got)
	}
}

func TestResolveModel(t *testing.T) {
	if got := resolveModel("claude-haiku", anthropicAliases); got != "claude-haiku-4-5-20251001" {
		t.Errorf("alias not resolved: %q", got)
	}
	if got := resolveModel("my-model", anthropicAliases); got != "my-model" {
		t.Errorf("unknown name changed: %q", got)
	}
}

func TestPrice(t *testing.T) {
	p, ok := LookupPrice("gpt-4o-mini")
	if !ok {
		t.Fatal("gpt-4o-mini not priced")
	}
	if got := p.Cost(1_000_000, 1_000_000); math.Abs(got-0.75) > 1e-9 {
		t.Errorf("Cost = %v, want 0.75", got)
	}
	if _, ok := LookupPrice("nope"); ok {
		t.Error("unknown model priced")
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	p, err := New(ctx, DefaultConfig(), nil, nil)
	if err != nil || p != nil {
		t.Fatalf("New(no provider) = %v, %v; want nil, nil", p, err)
	}

	cfg := DefaultConfig()
	cfg.Provider = ProviderOpenAI
	if _, err := New(ctx, cfg, nil, nil); err == nil {
		t.Fatal("expected missing key error")
	}

	cfg.Provider = ProviderMock
	p, err = New(ctx, cfg, nil, nil)
	if err != nil {
		t.Fatalf("New(mock): %v", err)
	}
	if p.ModelID() != "mock" {
		t.Errorf("ModelID = %q", p.ModelID())
	}
}
