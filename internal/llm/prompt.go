package llm

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxChars is the essay length, in characters, above which the prompt
// carries a truncated essay.
const DefaultMaxChars = 180_000

const truncationMarker = "\n\n[Truncated for length]"

const systemPrompt = "You are a meticulous, fair English composition professor. " +
	"Respond in English using only JSON according to the user's instructions."

const schemaHint = "Return ONLY a valid JSON object with this exact shape:\n" +
	"{\n" +
	`  "summary": string,` + "\n" +
	`  "feedback": {` + "\n" +
	`    "Grammar": {"summary": string, "issues": [string], "revision_tips": [string]},` + "\n" +
	`    "Vocabulary": {"summary": string, "issues": [string], "revision_tips": [string]},` + "\n" +
	`    "Organization": {"summary": string, "issues": [string], "revision_tips": [string]},` + "\n" +
	`    "Reasoning": {"summary": string, "issues": [string], "revision_tips": [string]}` + "\n" +
	"  }\n" +
	"}\n" +
	"No prose or explanation outside JSON."

// BuildSystemPrompt returns the fixed system role message.
func BuildSystemPrompt() string {
	return systemPrompt
}

// BuildUserPrompt frames the cleaned essay with the four-dimension rubric and
// the exact JSON shape the reply must follow.
func BuildUserPrompt(cleaned string, maxChars int) string {
	essay, _ := TruncateForPrompt(cleaned, maxChars)

	var b strings.Builder
	b.WriteString("You are a senior professor of English composition.\n")
	b.WriteString("Provide constructive, actionable feedback in English for the student's IELTS-style essay across exactly four aspects:\n")
	b.WriteString("1) Grammar, 2) Vocabulary, 3) Organization, 4) Reasoning.\n")
	b.WriteString("- For each aspect, write:\n")
	b.WriteString("  • Summary (2–4 sentences)\n")
	b.WriteString("  • 3–6 Specific issues (quote short snippets if helpful)\n")
	b.WriteString("  • Revision tips (bullet list, concrete)\n")
	b.WriteString("- Be precise, avoid generic advice. Focus on patterns, not isolated typos.\n")
	b.WriteString("- Keep a professional, encouraging tone. Do NOT rewrite the whole essay.\n\n")
	b.WriteString(schemaHint)
	b.WriteString("\n\n")
	b.WriteString("Student essay (cleaned text follows between <essay> tags):\n")
	b.WriteString("<essay>\n")
	b.WriteString(essay)
	b.WriteString("\n</essay>")
	return b.String()
}

// TruncateForPrompt cuts text to maxChars characters and appends the
// truncation marker. maxChars <= 0 selects DefaultMaxChars.
func TruncateForPrompt(text string, maxChars int) (string, bool) {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if utf8.RuneCountInString(text) <= maxChars {
		return text, false
	}
	n := 0
	for i := range text {
		if n == maxChars {
			return text[:i] + truncationMarker, true
		}
		n++
	}
	return text, false
}
