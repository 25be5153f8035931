package question

import (
	"encoding/json"
	"strings"
	"testing"
)

const sampleBank = `[
  {"id":"q1","subject":"MATH","grade":3,"type":"CALCULATION","stemText":"3 + 4 = ?","answer":"7","hint":"Count on from 3."},
  {"id":"q2","subject":"MATH","grade":3,"type":"MULTIPLE_CHOICE","stemText":"Which is even?",
   "options":[{"text":"3","value":"A"},{"text":"4","value":"B"}],"answer":"B"},
  {"id":"q3","subject":"LANGUAGE","grade":3,"type":"MULTIPLE_SELECT","stemText":"Pick the animals",
   "options":[{"text":"cat","value":"A"},{"text":"car","value":"B"},{"text":"cow","value":"C"}],"answer":"A,C"},
  {"id":"q4","subject":"READING","grade":3,"type":"TRUE_FALSE","stemText":"The sun is cold.","answer":"错误"},
  {"id":"q5","subject":"LITERACY","grade":3,"type":"FILL_BLANK","stemImage":"https://cdn/x.png","answer":"moon"}
]`

func TestDecodeList(t *testing.T) {
	qs, err := DecodeList(json.RawMessage(sampleBank))
	if err != nil {
		t.Fatalf("DecodeList: %v", err)
	}
	if len(qs) != 5 {
		t.Fatalf("len = %d, want 5", len(qs))
	}

	wantKinds := []Kind{KindCalculation, KindSingleSelect, KindMultiSelect, KindTrueFalse, KindFillIn}
	for i, q := range qs {
		if q.Variant.Kind() != wantKinds[i] {
			t.Errorf("qs[%d].Kind = %s, want %s", i, q.Variant.Kind(), wantKinds[i])
		}
	}
	if qs[0].Hint != "Count on from 3." {
		t.Errorf("hint = %q", qs[0].Hint)
	}
	if !qs[2].Check("C, A") {
		t.Error("expected multi-select answer in any order to match")
	}
}

func TestDecodeListRejectsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantSub string
	}{
		{"unknown type", `[{"id":"x","type":"ESSAY","stemText":"s","answer":"a"}]`, "x"},
		{"missing answer", `[{"id":"x","type":"FILL_BLANK","stemText":"s"}]`, "x"},
		{"no stem", `[{"id":"x","type":"FILL_BLANK","answer":"a"}]`, "x"},
		{"select without options", `[{"id":"x","type":"MULTIPLE_CHOICE","stemText":"s","answer":"A"}]`, "at least 2 options"},
		{"answer not an option", `[{"id":"x","type":"MULTIPLE_CHOICE","stemText":"s","answer":"Z",
			"options":[{"value":"A"},{"value":"B"}]}]`, "not an option value"},
		{"bad true/false", `[{"id":"x","type":"TRUE_FALSE","stemText":"s","answer":"maybe"}]`, "true/false"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeList(json.RawMessage(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !IsValidationError(err) {
				t.Errorf("expected ValidationError, got %T: %v", err, err)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestQuestionJSONRoundTripKeepsType(t *testing.T) {
	q := Question{ID: "q", Variant: TrueFalse{}, StemText: "s", Answer: True}
	data, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"type":"TRUE_FALSE"`) {
		t.Errorf("marshaled question missing type tag: %s", data)
	}
}
