package question

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Subject identifies a curriculum subject.
type Subject string

const (
	SubjectMath     Subject = "MATH"
	SubjectLanguage Subject = "LANGUAGE"
	SubjectReading  Subject = "READING"
	SubjectLiteracy Subject = "LITERACY"
)

// AllSubjects lists the subjects in display order.
var AllSubjects = []Subject{SubjectMath, SubjectLanguage, SubjectReading, SubjectLiteracy}

// DisplayName returns a human-readable subject name.
func (s Subject) DisplayName() string {
	switch s {
	case SubjectMath:
		return "Math"
	case SubjectLanguage:
		return "Language"
	case SubjectReading:
		return "Reading"
	case SubjectLiteracy:
		return "Literacy"
	default:
		return string(s)
	}
}

// subjectAliases maps the portal's stored Chinese subject names to the
// enum values.
var subjectAliases = map[string]Subject{
	"数学": SubjectMath,
	"语文": SubjectLanguage,
	"阅读": SubjectReading,
	"识字": SubjectLiteracy,
}

// ParseSubject resolves an enum value or a stored Chinese subject name.
// Unknown names are returned unchanged.
func ParseSubject(s string) Subject {
	s = strings.TrimSpace(s)
	if sub, ok := subjectAliases[s]; ok {
		return sub
	}
	return Subject(strings.ToUpper(s))
}

// Option is one selectable choice of a select-style question.
type Option struct {
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
	Value string `json:"value"`
}

// Label returns the text shown for the option, falling back to the image
// URL and then the value.
func (o Option) Label() string {
	switch {
	case o.Text != "":
		return o.Text
	case o.Image != "":
		return "[image] " + o.Image
	default:
		return o.Value
	}
}

// Question is a single bank question. Questions are immutable once loaded.
type Question struct {
	ID        string
	Subject   Subject
	Grade     int
	Variant   Variant
	StemText  string
	StemImage string
	Options   []Option
	// Answer is the canonical answer. Multi-select answers are a sorted
	// comma-joined set of option values.
	Answer string
	// Hint is the authored hint, possibly empty.
	Hint string
}

// Check reports whether submitted matches the canonical answer under the
// question's variant rules.
func (q *Question) Check(submitted string) bool {
	return q.Variant.Match(submitted, q.Answer)
}

// AnswerLabel renders the canonical answer for display, mapping option
// values back to their labels for select variants.
func (q *Question) AnswerLabel() string {
	if len(q.Options) == 0 {
		return q.Answer
	}
	if q.Variant.Kind() == KindMultiSelect {
		vals := splitSet(q.Answer)
		labels := make([]string, 0, len(vals))
		for _, v := range vals {
			labels = append(labels, q.optionLabel(v))
		}
		return joinSet(labels)
	}
	return q.optionLabel(q.Answer)
}

func (q *Question) optionLabel(value string) string {
	for _, o := range q.Options {
		if o.Value == value {
			if o.Text != "" && o.Text != value {
				return fmt.Sprintf("%s (%s)", value, o.Text)
			}
			return value
		}
	}
	return value
}

// wireQuestion is the portal's JSON shape for a question.
type wireQuestion struct {
	ID        string   `json:"id"`
	Subject   Subject  `json:"subject"`
	Grade     int      `json:"grade"`
	Type      string   `json:"type"`
	StemText  string   `json:"stemText"`
	StemImage string   `json:"stemImage,omitempty"`
	Answer    string   `json:"answer"`
	Options   []Option `json:"options,omitempty"`
	Hint      string   `json:"hint,omitempty"`
}

// UnmarshalJSON decodes the portal wire format, resolving the type tag to
// a Variant.
func (q *Question) UnmarshalJSON(data []byte) error {
	var w wireQuestion
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	kind, err := ParseKind(w.Type)
	if err != nil {
		return fmt.Errorf("question %s: %w", w.ID, err)
	}
	*q = Question{
		ID:        w.ID,
		Subject:   ParseSubject(string(w.Subject)),
		Grade:     w.Grade,
		Variant:   VariantFor(kind),
		StemText:  w.StemText,
		StemImage: w.StemImage,
		Options:   w.Options,
		Answer:    w.Answer,
		Hint:      w.Hint,
	}
	return nil
}

// MarshalJSON encodes the question in the portal wire format.
func (q Question) MarshalJSON() ([]byte, error) {
	w := wireQuestion{
		ID:        q.ID,
		Subject:   q.Subject,
		Grade:     q.Grade,
		StemText:  q.StemText,
		StemImage: q.StemImage,
		Answer:    q.Answer,
		Options:   q.Options,
		Hint:      q.Hint,
	}
	if q.Variant != nil {
		w.Type = string(q.Variant.Kind())
	}
	return json.Marshal(w)
}
