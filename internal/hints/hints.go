// Package hints generates hints for questions that were authored without
// one. Generation is best effort: any failure leaves the question on the
// generic hint.
package hints

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/practiz/internal/llm"
	"github.com/abhisek/practiz/internal/logging"
	"github.com/abhisek/practiz/internal/question"
)

// Config tunes hint generation.
type Config struct {
	MaxTokens   int
	Temperature float64
	// Concurrency bounds parallel provider calls.
	Concurrency int
	// Timeout bounds the whole Fill call.
	Timeout time.Duration
}

// DefaultConfig returns the standard settings.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   160,
		Temperature: 0.4,
		Concurrency: 4,
		Timeout:     15 * time.Second,
	}
}

// Schema is the structured output asked of the model.
var Schema = &llm.Schema{
	Name:        "question-hint",
	Description: "A short hint that nudges a young learner toward the answer without giving it away",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"hint": map[string]any{
				"type":        "string",
				"description": "One or two encouraging sentences, at most 40 words, never stating the answer",
			},
		},
		"required":             []any{"hint"},
		"additionalProperties": false,
	},
}

const systemPrompt = `You help primary school children practise. Given a question and its
correct answer, write one short hint in the language of the question. The
hint points at the method or a first step. It must not contain the answer,
must not name the correct option, and must be kind and encouraging.`

// Service fills missing hints using an LLM provider.
type Service struct {
	provider llm.Provider
	cfg      Config
	logger   *log.Logger
}

// NewService creates a Service. A nil provider makes Fill a no-op.
func NewService(p llm.Provider, cfg Config, logger *log.Logger) *Service {
	if logger == nil {
		logger = logging.Discard("hints")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Service{provider: p, cfg: cfg, logger: logger}
}

// Fill returns a copy of qs in which questions without an authored hint
// carry a generated one, and how many hints were generated.
func (s *Service) Fill(ctx context.Context, qs []question.Question) ([]question.Question, int) {
	out := make([]question.Question, len(qs))
	copy(out, qs)
	if s == nil || s.provider == nil {
		return out, 0
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	ctx = llm.WithPurpose(ctx, "hint")

	generated := make([]string, len(out))
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i := range out {
		if strings.TrimSpace(out[i].Hint) != "" {
			continue
		}
		q := &out[i]
		g.Go(func() error {
			hint, err := s.generate(ctx, q)
			if err != nil {
				s.logger.Warnf("hint for question %s: %v", q.ID, err)
				return nil
			}
			generated[i] = hint
			return nil
		})
	}
	g.Wait()

	n := 0
	for i, h := range generated {
		if h != "" {
			out[i].Hint = h
			n++
		}
	}
	s.logger.Infof("generated %d hints for %d questions", n, len(out))
	return out, n
}

type hintOutput struct {
	Hint string `json:"hint"`
}

func (s *Service) generate(ctx context.Context, q *question.Question) (string, error) {
	req := llm.UserPrompt(systemPrompt, prompt(q))
	req.Schema = Schema
	req.MaxTokens = s.cfg.MaxTokens
	req.Temperature = s.cfg.Temperature

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	var out hintOutput
	if err := resp.Decode(&out); err != nil {
		return "", err
	}
	hint := strings.TrimSpace(out.Hint)
	if hint == "" {
		return "", fmt.Errorf("empty hint")
	}
	if Reveals(q, hint) {
		return "", fmt.Errorf("hint gives away the answer")
	}
	return hint, nil
}

func prompt(q *question.Question) string {
	var b strings.Builder
	if q.Variant != nil {
		fmt.Fprintf(&b, "Type: %s\n", q.Variant.Kind())
	}
	if q.Subject != "" {
		fmt.Fprintf(&b, "Subject: %s\n", q.Subject.DisplayName())
	}
	if q.Grade > 0 {
		fmt.Fprintf(&b, "Grade: %d\n", q.Grade)
	}
	fmt.Fprintf(&b, "Question: %s\n", q.StemText)
	if q.StemImage != "" && q.StemText == "" {
		b.WriteString("Question: (picture only)\n")
	}
	for _, o := range q.Options {
		fmt.Fprintf(&b, "Option %s: %s\n", o.Value, o.Label())
	}
	fmt.Fprintf(&b, "Correct answer: %s\n", q.AnswerLabel())
	return b.String()
}

// Reveals reports whether hint states the canonical answer or, for select
// questions, the text of a correct option.
func Reveals(q *question.Question, hint string) bool {
	h := strings.ToLower(hint)
	if len(q.Options) == 0 {
		a := strings.ToLower(strings.TrimSpace(q.Answer))
		return a != "" && strings.Contains(h, a)
	}
	correct := strings.Split(q.Variant.Normalize(q.Answer), ",")
	for _, o := range q.Options {
		if !slices.Contains(correct, o.Value) {
			continue
		}
		if t := strings.ToLower(strings.TrimSpace(o.Text)); len([]rune(t)) > 1 && strings.Contains(h, t) {
			return true
		}
	}
	return false
}
