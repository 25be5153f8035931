package question

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownVariant is returned when a question type tag is not recognized.
var ErrUnknownVariant = errors.New("unknown question type")

// Kind is the wire tag of a question variant.
type Kind string

const (
	KindSingleSelect Kind = "MULTIPLE_CHOICE"
	KindMultiSelect  Kind = "MULTIPLE_SELECT"
	KindTrueFalse    Kind = "TRUE_FALSE"
	KindFillIn       Kind = "FILL_BLANK"
	KindCalculation  Kind = "CALCULATION"
)

// Canonical true/false answer values.
const (
	True  = "正确"
	False = "错误"
)

// ParseKind resolves a wire type tag.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToUpper(strings.TrimSpace(s))); k {
	case KindSingleSelect, KindMultiSelect, KindTrueFalse, KindFillIn, KindCalculation:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

// Variant is the closed set of question kinds. Each variant owns how an
// answer is normalized and compared.
type Variant interface {
	Kind() Kind
	// Normalize maps a raw answer to its canonical comparison form.
	Normalize(answer string) string
	// Match reports whether submitted equals canonical after normalization.
	Match(submitted, canonical string) bool
	// HasOptions reports whether the variant is answered by picking options.
	HasOptions() bool

	variant()
}

// VariantFor returns the Variant for kind. Unknown kinds fall back to FillIn.
func VariantFor(kind Kind) Variant {
	switch kind {
	case KindSingleSelect:
		return SingleSelect{}
	case KindMultiSelect:
		return MultiSelect{}
	case KindTrueFalse:
		return TrueFalse{}
	case KindCalculation:
		return Calculation{}
	default:
		return FillIn{}
	}
}

// SingleSelect is a one-of-N choice answered with an option value.
type SingleSelect struct{}

func (SingleSelect) Kind() Kind       { return KindSingleSelect }
func (SingleSelect) HasOptions() bool { return true }
func (SingleSelect) variant()         {}

func (SingleSelect) Normalize(answer string) string {
	return strings.TrimSpace(answer)
}

func (v SingleSelect) Match(submitted, canonical string) bool {
	s := v.Normalize(submitted)
	return s != "" && s == v.Normalize(canonical)
}

// MultiSelect is an any-of-N choice answered with a set of option values.
type MultiSelect struct{}

func (MultiSelect) Kind() Kind       { return KindMultiSelect }
func (MultiSelect) HasOptions() bool { return true }
func (MultiSelect) variant()         {}

// Normalize splits on ASCII or full-width commas, drops blanks and
// duplicates, sorts, and re-joins with ",".
func (MultiSelect) Normalize(answer string) string {
	return joinSet(splitSet(answer))
}

func (v MultiSelect) Match(submitted, canonical string) bool {
	s := v.Normalize(submitted)
	return s != "" && s == v.Normalize(canonical)
}

// TrueFalse is a judgement question answered with 正确 or 错误.
type TrueFalse struct{}

func (TrueFalse) Kind() Kind       { return KindTrueFalse }
func (TrueFalse) HasOptions() bool { return true }
func (TrueFalse) variant()         {}

var trueFalseAliases = map[string]string{
	"true": True, "t": True, "yes": True, "y": True, "对": True, "√": True, "✓": True, True: True,
	"false": False, "f": False, "no": False, "n": False, "错": False, "×": False, "✗": False, False: False,
}

func (TrueFalse) Normalize(answer string) string {
	a := strings.ToLower(strings.TrimSpace(answer))
	if v, ok := trueFalseAliases[a]; ok {
		return v
	}
	return a
}

func (v TrueFalse) Match(submitted, canonical string) bool {
	s := v.Normalize(submitted)
	return s != "" && s == v.Normalize(canonical)
}

// Options returns the two fixed choices of a true/false question.
func (TrueFalse) Options() []Option {
	return []Option{
		{Text: "True", Value: True},
		{Text: "False", Value: False},
	}
}

// FillIn is a free-text blank.
type FillIn struct{}

func (FillIn) Kind() Kind       { return KindFillIn }
func (FillIn) HasOptions() bool { return false }
func (FillIn) variant()         {}

// Normalize trims, folds full-width ASCII to half-width and collapses
// runs of whitespace to a single space.
func (FillIn) Normalize(answer string) string {
	return strings.Join(strings.Fields(foldWidth(answer)), " ")
}

func (v FillIn) Match(submitted, canonical string) bool {
	s := v.Normalize(submitted)
	return s != "" && s == v.Normalize(canonical)
}

// Calculation is a numeric answer. Integers, decimals and fractions are
// compared by value; anything else is compared like a fill-in blank.
type Calculation struct{}

func (Calculation) Kind() Kind       { return KindCalculation }
func (Calculation) HasOptions() bool { return false }
func (Calculation) variant()         {}

func (Calculation) Normalize(answer string) string {
	a := FillIn{}.Normalize(answer)
	if n, ok := normalizeNumber(a); ok {
		return n
	}
	return a
}

func (v Calculation) Match(submitted, canonical string) bool {
	s := v.Normalize(submitted)
	return s != "" && s == v.Normalize(canonical)
}

func splitSet(s string) []string {
	s = strings.ReplaceAll(foldWidth(s), "、", ",")
	seen := make(map[string]bool)
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func joinSet(vals []string) string {
	return strings.Join(vals, ",")
}

// foldWidth maps full-width ASCII variants (U+FF01..U+FF5E) and the
// ideographic space to their half-width forms.
func foldWidth(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '　':
			return ' '
		case r >= '！' && r <= '～':
			return r - 0xFEE0
		}
		return r
	}, s)
}
