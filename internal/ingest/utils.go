package ingest

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/joseph-ayodele/essay-feedback/constants"
)

// AllowedExt checks if a file extension is in the essay set (txt/docx/pdf).
func AllowedExt(ext string) bool {
	ext = constants.NormalizeExt(ext)
	_, ok := constants.AllowedExtensions[ext]
	return ok
}

// AllowedFeedbackExt checks if a file extension may carry re-ingested feedback.
func AllowedFeedbackExt(ext string) bool {
	ext = constants.NormalizeExt(ext)
	_, ok := constants.AllowedFeedbackExtensions[ext]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename reduces name to an ASCII base name safe to join under an
// upload directory. Accents are folded, separators and other characters
// removed. The extension is kept; an empty stem becomes "upload".
func SecureFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	ext := strings.ToLower(filepath.Ext(name))
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	fold := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, stem); err == nil {
		stem = folded
	}
	stem = strings.Join(strings.Fields(stem), "_")
	stem = unsafeChars.ReplaceAllString(stem, "")
	stem = strings.Trim(stem, "._-")
	if stem == "" {
		stem = "upload"
	}
	return stem + unsafeChars.ReplaceAllString(ext, "")
}
