package extract

import (
	"context"
	"time"
)

// TextExtractor turns a source document into raw text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (ExtractionResult, error)
}

type ExtractionResult struct {
	Text     string
	Pages    int
	Format   string // constants.TXT | constants.DOCX | constants.PDF
	Method   string // "plain-text" | "docx-xml" | "pdf-text" | "pdftotext"
	Duration time.Duration
	Warnings []string
}

type Config struct {
	// Pdftotext names a poppler pdftotext binary used when the embedded PDF
	// reader recovers no text at all. Empty disables the fallback.
	Pdftotext string
	// MaxPages limits how many PDF pages are read. 0 = no limit.
	MaxPages int
}
