package constants

type Dimension string

const (
	Grammar      Dimension = "Grammar"
	Vocabulary   Dimension = "Vocabulary"
	Organization Dimension = "Organization"
	Reasoning    Dimension = "Reasoning"
)

// LegacyCoherence is the dimension name older prompts used for Reasoning.
const LegacyCoherence = "Coherence"

var allDimensions = []Dimension{
	Grammar,
	Vocabulary,
	Organization,
	Reasoning,
}

// Dimensions returns the four canonical dimensions in display order.
func Dimensions() []Dimension {
	out := make([]Dimension, len(allDimensions))
	copy(out, allDimensions)
	return out
}

func AsStringSlice() []string {
	result := make([]string, len(allDimensions))
	for i, d := range allDimensions {
		result[i] = string(d)
	}
	return result
}

// ChineseLabel is the label the review table shows next to the English name.
func ChineseLabel(d Dimension) string {
	switch d {
	case Grammar:
		return "语法"
	case Vocabulary:
		return "词汇"
	case Organization:
		return "组织"
	case Reasoning:
		return "推理"
	default:
		return ""
	}
}

// IsCanonical reports whether name is exactly one of the four dimension keys.
func IsCanonical(name string) bool {
	for _, d := range allDimensions {
		if name == string(d) {
			return true
		}
	}
	return false
}
