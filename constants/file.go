package constants

import "strings"

// Document formats recognised by the extractor.
const (
	TXT  = "TXT"
	DOCX = "DOCX"
	PDF  = "PDF"
)

// AllowedExtensions holds the file extensions accepted for essays.
var AllowedExtensions = map[string]struct{}{
	"txt":  {},
	"docx": {},
	"pdf":  {},
}

// FeedbackFileSuffix is appended to the document stem when persisting feedback.
const FeedbackFileSuffix = "_feedback.txt"

// AllowedFeedbackExtensions holds the extensions accepted on re-ingestion.
var AllowedFeedbackExtensions = map[string]struct{}{
	"txt":  {},
	"json": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns the document format for an extension, or "" when unsupported.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "txt":
		return TXT
	case "docx":
		return DOCX
	case "pdf":
		return PDF
	default:
		return ""
	}
}

// SortedExtensions lists AllowedExtensions with a leading dot, for messages.
func SortedExtensions() []string {
	return []string{".docx", ".pdf", ".txt"}
}
