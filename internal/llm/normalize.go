package llm

import (
	"strconv"
	"strings"

	"github.com/joseph-ayodele/essay-feedback/constants"
)

// Normalize maps any decoded reply onto the canonical Feedback shape. Missing
// or malformed parts become empty values; the legacy "Coherence" section fills
// "Reasoning" when the latter is absent. The input is never modified.
func Normalize(parsed any) Feedback {
	fb, _ := NormalizeWithReport(parsed)
	return fb
}

// NormalizeWithReport is Normalize plus the list of keys it discarded or
// remapped, for logging.
func NormalizeWithReport(parsed any) (Feedback, []string) {
	out := emptyFeedback()
	var dropped []string

	obj, ok := parsed.(map[string]any)
	if !ok {
		if parsed != nil {
			dropped = append(dropped, "(non-object)")
		}
		return out, dropped
	}
	for k := range obj {
		if k != "summary" && k != "feedback" {
			dropped = append(dropped, k+"(unknown)")
		}
	}
	out.Summary = trimmedString(obj["summary"])

	sections, _ := obj["feedback"].(map[string]any)
	source := func(d constants.Dimension) any {
		return sections[string(d)]
	}
	if _, has := sections[string(constants.Reasoning)]; !has {
		if legacy, ok := sections[constants.LegacyCoherence]; ok {
			source = func(d constants.Dimension) any {
				if d == constants.Reasoning {
					return legacy
				}
				return sections[string(d)]
			}
			dropped = append(dropped, constants.LegacyCoherence+"->"+string(constants.Reasoning))
		}
	}
	for k := range sections {
		if !constants.IsCanonical(k) && k != constants.LegacyCoherence {
			dropped = append(dropped, "feedback."+k+"(unknown)")
		}
	}

	for _, d := range constants.Dimensions() {
		out.Feedback.set(d, buildSection(source(d)))
	}
	return out, dropped
}

func buildSection(v any) Section {
	sec := emptySection()
	m, ok := v.(map[string]any)
	if !ok {
		return sec
	}
	sec.Summary = trimmedString(m["summary"])
	sec.Issues = stringList(m["issues"])
	sec.RevisionTips = stringList(m["revision_tips"])
	return sec
}

func trimmedString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// stringList keeps string items as they are, renders scalars as text and
// drops nested values. A lone non-empty string becomes a one-item list.
func stringList(v any) []string {
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return []string{}
		}
		return []string{t}
	case []string:
		return append([]string{}, t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			switch x := item.(type) {
			case string:
				out = append(out, x)
			case float64:
				out = append(out, strconv.FormatFloat(x, 'f', -1, 64))
			case bool:
				out = append(out, strconv.FormatBool(x))
			}
		}
		return out
	default:
		return []string{}
	}
}

func emptySection() Section {
	return Section{Issues: []string{}, RevisionTips: []string{}}
}

func emptyFeedback() Feedback {
	var f Feedback
	for _, d := range constants.Dimensions() {
		f.Feedback.set(d, emptySection())
	}
	return f
}
