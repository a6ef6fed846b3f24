// Package textclean reduces extracted document text to letters, numbers,
// punctuation and whitespace while keeping paragraph boundaries.
package textclean

import (
	"regexp"
	"strings"
	"unicode"
)

const paragraphSep = "\n\n"

var horizontalRun = regexp.MustCompile(`[ \t]{2,}`)

// Clean normalizes raw document text. Line endings become "\n", every rune
// outside the Unicode letter, number and punctuation categories is dropped
// (space, tab and newline excepted), paragraphs split on blank lines are
// flattened to one line each, and empty paragraphs are removed.
//
// Clean is idempotent: Clean(Clean(s)) == Clean(s).
func Clean(raw string) string {
	if raw == "" {
		return ""
	}
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.Map(keepRune, s)

	parts := strings.Split(s, paragraphSep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ReplaceAll(p, "\n", " ")
		p = horizontalRun.ReplaceAllString(p, " ")
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, paragraphSep)
}

func keepRune(r rune) rune {
	switch {
	case r == ' ', r == '\t', r == '\n':
		return r
	case unicode.IsLetter(r), unicode.IsNumber(r), unicode.IsPunct(r):
		return r
	default:
		return -1
	}
}

// IsClean reports whether every rune of s is one Clean keeps.
func IsClean(s string) bool {
	for _, r := range s {
		if keepRune(r) < 0 {
			return false
		}
	}
	return true
}
