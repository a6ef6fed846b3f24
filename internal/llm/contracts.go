package llm

import (
	"context"

	"github.com/joseph-ayodele/essay-feedback/constants"
)

// Section is the feedback for one evaluation dimension.
type Section struct {
	Summary      string   `json:"summary"`
	Issues       []string `json:"issues"`
	RevisionTips []string `json:"revision_tips"`
}

// Sections holds the four canonical dimensions in rendering order.
type Sections struct {
	Grammar      Section `json:"Grammar"`
	Vocabulary   Section `json:"Vocabulary"`
	Organization Section `json:"Organization"`
	Reasoning    Section `json:"Reasoning"`
}

// Feedback is the normalized evaluation document persisted and rendered downstream.
type Feedback struct {
	Summary  string   `json:"summary"`
	Feedback Sections `json:"feedback"`
}

// Get returns the section for d. Unknown dimensions yield an empty section.
func (s Sections) Get(d constants.Dimension) Section {
	switch d {
	case constants.Grammar:
		return s.Grammar
	case constants.Vocabulary:
		return s.Vocabulary
	case constants.Organization:
		return s.Organization
	case constants.Reasoning:
		return s.Reasoning
	default:
		return emptySection()
	}
}

func (s *Sections) set(d constants.Dimension, sec Section) {
	switch d {
	case constants.Grammar:
		s.Grammar = sec
	case constants.Vocabulary:
		s.Vocabulary = sec
	case constants.Organization:
		s.Organization = sec
	case constants.Reasoning:
		s.Reasoning = sec
	}
}

// AsMap renders f as the untyped tree Normalize accepts.
func (f Feedback) AsMap() map[string]any {
	fb := make(map[string]any, 4)
	for _, d := range constants.Dimensions() {
		sec := f.Feedback.Get(d)
		fb[string(d)] = map[string]any{
			"summary":       sec.Summary,
			"issues":        toAnySlice(sec.Issues),
			"revision_tips": toAnySlice(sec.RevisionTips),
		}
	}
	return map[string]any{"summary": f.Summary, "feedback": fb}
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// EvaluateRequest is one model call.
type EvaluateRequest struct {
	System          string
	User            string
	Model           string
	MaxOutputTokens int
}

// FeedbackEvaluator is the model boundary our pipeline depends on. It returns
// the model's reply text verbatim.
type FeedbackEvaluator interface {
	Evaluate(ctx context.Context, req EvaluateRequest) (string, error)
}
