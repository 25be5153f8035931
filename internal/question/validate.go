package question

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// wireSchema is the JSON Schema every question from the portal must satisfy.
const wireSchema = `{
  "type": "object",
  "properties": {
    "id":        {"type": "string", "minLength": 1},
    "subject":   {"type": "string"},
    "grade":     {"type": "integer", "minimum": 0},
    "type":      {"enum": ["MULTIPLE_CHOICE", "MULTIPLE_SELECT", "TRUE_FALSE", "FILL_BLANK", "CALCULATION"]},
    "stemText":  {"type": "string"},
    "stemImage": {"type": "string"},
    "answer":    {"type": "string", "minLength": 1},
    "hint":      {"type": "string"},
    "options": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "text":  {"type": "string"},
          "image": {"type": "string"},
          "value": {"type": "string", "minLength": 1}
        },
        "required": ["value"]
      }
    }
  },
  "required": ["id", "type", "answer"],
  "anyOf": [
    {"properties": {"stemText": {"minLength": 1}}, "required": ["stemText"]},
    {"properties": {"stemImage": {"minLength": 1}}, "required": ["stemImage"]}
  ]
}`

const wireSchemaURL = "schema://question.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func questionSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(wireSchema))
		if err != nil {
			compileErr = fmt.Errorf("parse question schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(wireSchemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add question schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile(wireSchemaURL)
	})
	return compiled, compileErr
}

// ValidationError reports a malformed question.
type ValidationError struct {
	QuestionID string
	Err        error
}

func (e *ValidationError) Error() string {
	if e.QuestionID == "" {
		return fmt.Sprintf("invalid question: %v", e.Err)
	}
	return fmt.Sprintf("invalid question %s: %v", e.QuestionID, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// DecodeList decodes a JSON array of portal questions, validating each one
// against the wire schema and the variant rules.
func DecodeList(raw json.RawMessage) ([]Question, error) {
	sch, err := questionSchema()
	if err != nil {
		return nil, err
	}

	var docs []json.RawMessage
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}

	out := make([]Question, 0, len(docs))
	for i, doc := range docs {
		var inst any
		if err := json.Unmarshal(doc, &inst); err != nil {
			return nil, fmt.Errorf("decode question %d: %w", i, err)
		}
		if err := sch.Validate(inst); err != nil {
			return nil, &ValidationError{QuestionID: idOf(inst), Err: err}
		}

		var q Question
		if err := json.Unmarshal(doc, &q); err != nil {
			return nil, &ValidationError{QuestionID: idOf(inst), Err: err}
		}
		if err := q.Validate(); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

// Validate checks variant-specific invariants the schema cannot express.
func (q *Question) Validate() error {
	fail := func(format string, args ...any) error {
		return &ValidationError{QuestionID: q.ID, Err: fmt.Errorf(format, args...)}
	}

	if q.Variant == nil {
		return fail("missing variant")
	}

	switch q.Variant.Kind() {
	case KindSingleSelect:
		if len(q.Options) < 2 {
			return fail("single-select needs at least 2 options, got %d", len(q.Options))
		}
		if !q.hasOption(q.Answer) {
			return fail("answer %q is not an option value", q.Answer)
		}
	case KindMultiSelect:
		if len(q.Options) < 2 {
			return fail("multi-select needs at least 2 options, got %d", len(q.Options))
		}
		for _, v := range splitSet(q.Answer) {
			if !q.hasOption(v) {
				return fail("answer value %q is not an option value", v)
			}
		}
	case KindTrueFalse:
		if a := q.Variant.Normalize(q.Answer); a != True && a != False {
			return fail("true/false answer must be %s or %s, got %q", True, False, q.Answer)
		}
	case KindFillIn, KindCalculation:
		if q.Variant.Normalize(q.Answer) == "" {
			return fail("empty answer")
		}
	default:
		return fail("%w: %s", ErrUnknownVariant, q.Variant.Kind())
	}
	return nil
}

func (q *Question) hasOption(value string) bool {
	for _, o := range q.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

func idOf(inst any) string {
	if m, ok := inst.(map[string]any); ok {
		if id, ok := m["id"].(string); ok {
			return id
		}
	}
	return ""
}

// IsValidationError reports whether err is a question validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
