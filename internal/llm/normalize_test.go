package llm

import (
	"encoding/json"
	"reflect"
	"testing"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("decode %s: %v", s, err)
	}
	return v
}

func assertComplete(t *testing.T, f Feedback) {
	t.Helper()
	for _, sec := range []Section{f.Feedback.Grammar, f.Feedback.Vocabulary, f.Feedback.Organization, f.Feedback.Reasoning} {
		if sec.Issues == nil || sec.RevisionTips == nil {
			t.Fatalf("nil slice in %+v", f)
		}
	}
}

func TestNormalizeLegacyCoherence(t *testing.T) {
	in := decode(t, `{"summary":" Good ","feedback":{"Grammar":{"summary":"g","issues":["x"],"revision_tips":[]},
		"Coherence":{"summary":" c ","issues":["y"],"revision_tips":["z"]}}}`)
	f := Normalize(in)
	assertComplete(t, f)

	if f.Summary != "Good" {
		t.Errorf("summary = %q", f.Summary)
	}
	want := Section{Summary: "c", Issues: []string{"y"}, RevisionTips: []string{"z"}}
	if !reflect.DeepEqual(f.Feedback.Reasoning, want) {
		t.Errorf("reasoning = %+v", f.Feedback.Reasoning)
	}
	if !reflect.DeepEqual(f.Feedback.Grammar, Section{Summary: "g", Issues: []string{"x"}, RevisionTips: []string{}}) {
		t.Errorf("grammar = %+v", f.Feedback.Grammar)
	}
	if f.Feedback.Vocabulary.Summary != "" || len(f.Feedback.Vocabulary.Issues) != 0 {
		t.Errorf("vocabulary should be empty: %+v", f.Feedback.Vocabulary)
	}
}

func TestNormalizeReasoningWinsOverCoherence(t *testing.T) {
	in := decode(t, `{"feedback":{"Reasoning":{"summary":"r"},"Coherence":{"summary":"c"}}}`)
	if got := Normalize(in).Feedback.Reasoning.Summary; got != "r" {
		t.Errorf("reasoning summary = %q", got)
	}
	// a present but null Reasoning still blocks the legacy mapping
	in = decode(t, `{"feedback":{"Reasoning":null,"Coherence":{"summary":"c"}}}`)
	if got := Normalize(in).Feedback.Reasoning.Summary; got != "" {
		t.Errorf("reasoning summary = %q", got)
	}
}

func TestNormalizeNonObject(t *testing.T) {
	for _, v := range []any{nil, "text", 3.0, []any{"a"}} {
		f := Normalize(v)
		assertComplete(t, f)
		if f.Summary != "" {
			t.Errorf("%v: summary = %q", v, f.Summary)
		}
	}
}

func TestNormalizeRawWrapper(t *testing.T) {
	f := Normalize(Coerce("Sorry, I can't help."))
	assertComplete(t, f)
	b, err := json.Marshal(f)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"summary":"","feedback":{"Grammar":{"summary":"","issues":[],"revision_tips":[]},` +
		`"Vocabulary":{"summary":"","issues":[],"revision_tips":[]},` +
		`"Organization":{"summary":"","issues":[],"revision_tips":[]},` +
		`"Reasoning":{"summary":"","issues":[],"revision_tips":[]}}}`
	if string(b) != want {
		t.Errorf("got %s", b)
	}
}

func TestNormalizeMalformedSections(t *testing.T) {
	in := decode(t, `{"summary":5,"extra":true,"feedback":{"Grammar":"bad","Vocabulary":{"summary":["x"],
		"issues":"one issue","revision_tips":[1, true, null, {"a":1}, "tip"]},"Style":{"summary":"s"}}}`)
	f, dropped := NormalizeWithReport(in)
	assertComplete(t, f)
	if f.Summary != "" {
		t.Errorf("summary = %q", f.Summary)
	}
	v := f.Feedback.Vocabulary
	if v.Summary != "" || !reflect.DeepEqual(v.Issues, []string{"one issue"}) ||
		!reflect.DeepEqual(v.RevisionTips, []string{"1", "true", "tip"}) {
		t.Errorf("vocabulary = %+v", v)
	}
	if len(dropped) != 2 {
		t.Errorf("dropped = %v", dropped)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		`{"summary":" a ","feedback":{"Coherence":{"summary":" b ","issues":[" c "]}}}`,
		`{"feedback":{"Grammar":{"issues":"solo"}}}`,
		`[]`,
		`{"summary":"x","feedback":{"Reasoning":{"revision_tips":[2.5]}}}`,
	}
	for _, in := range inputs {
		once := Normalize(decode(t, in))
		twice := Normalize(once.AsMap())
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("not idempotent for %s:\n%+v\n%+v", in, once, twice)
		}
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	in := decode(t, `{"summary":" s ","feedback":{"Coherence":{"summary":" c "}}}`).(map[string]any)
	before, _ := json.Marshal(in)
	_ = Normalize(in)
	after, _ := json.Marshal(in)
	if string(before) != string(after) {
		t.Errorf("input mutated: %s -> %s", before, after)
	}
}

func TestNormalizedFeedbackMatchesSchema(t *testing.T) {
	inputs := []any{
		nil,
		Coerce("not json"),
		decode(t, `{"summary":"s","feedback":{"Coherence":{"summary":"c","issues":["i"]}},"junk":1}`),
	}
	for _, in := range inputs {
		f := Normalize(in)
		b, err := json.Marshal(f)
		if err != nil {
			t.Fatal(err)
		}
		if err := ValidateJSONAgainstSchema(BuildFeedbackJSONSchema(), b); err != nil {
			t.Errorf("normalized output invalid: %v", err)
		}
		if err := ValidateFeedback(f.AsMap()); err != nil {
			t.Errorf("AsMap invalid: %v", err)
		}
	}
}

func TestValidateFeedbackRejectsLegacyShape(t *testing.T) {
	doc := decode(t, `{"summary":"s","feedback":{"Coherence":{"summary":"c","issues":[],"revision_tips":[]}}}`)
	if err := ValidateFeedback(doc); err == nil {
		t.Error("expected schema violation")
	}
}
