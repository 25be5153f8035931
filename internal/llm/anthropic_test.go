package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestAnthropic(t *testing.T, h http.HandlerFunc) *AnthropicProvider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	p, err := NewAnthropicProvider(VendorConfig{APIKey: "k", Model: "claude-haiku", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewAnthropicProvider: %v", err)
	}
	return p
}

func anthropicMessage(text, stop string) map[string]any {
	return map[string]any{
		"id":          "msg_1",
		"type":        "message",
		"role":        "assistant",
		"model":       "claude-haiku-4-5-20251001",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 40, "output_tokens": 9},
	}
}

func TestAnthropicProvider(t *testing.T) {
	var body map[string]any
	p := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(anthropicMessage(`{"hint":"think of a pizza cut in halves"}`, "end_turn"))
	})

	req := UserPrompt("You write hints.", "1/2 + 1/4")
	req.Schema = hintSchema
	req.MaxTokens = 200
	resp, err := p.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Usage.TotalTokens != 49 || resp.StopReason != StopEnd {
		t.Errorf("resp = %+v", resp)
	}
	if body["model"] != "claude-haiku-4-5-20251001" {
		t.Errorf("model = %v", body["model"])
	}
	if p.ModelID() != "claude-haiku-4-5-20251001" {
		t.Errorf("ModelID = %q", p.ModelID())
	}
}

func TestAnthropicProvider_SchemaMismatch(t *testing.T) {
	p := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(anthropicMessage(`{"answer":"3/4"}`, "end_turn"))
	})
	req := UserPrompt("", "x")
	req.Schema = hintSchema
	if _, err := p.Generate(context.Background(), req); !errors.As(err, new(*ErrInvalidResponse)) {
		t.Fatalf("err = %v, want ErrInvalidResponse", err)
	}
}

func TestClassifyStatus(t *testing.T) {
	base := errors.New("x")
	if !errors.As(classifyStatus(429, base), new(*ErrRateLimit)) {
		t.Error("429 not a rate limit")
	}
	if !errors.As(classifyStatus(503, base), new(*ErrProviderUnavailable)) {
		t.Error("503 not unavailable")
	}
	if err := classifyStatus(0, context.Canceled); err != context.Canceled {
		t.Errorf("canceled wrapped: %v", err)
	}
}
