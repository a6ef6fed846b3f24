package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/essay-feedback/constants"
)

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// WithRunner swaps the command runner used by the pdftotext fallback.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// Extract picks a reader based on file extension. Unsupported extensions are
// rejected before the file is touched.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	ext := filepath.Ext(path)
	format := constants.MapExtToFormat(ext)
	if format == "" {
		e.logger.Error("extract.unsupported", "path", path, "ext", ext)
		return ExtractionResult{}, &UnsupportedFormatError{Ext: ext}
	}
	if err := ctx.Err(); err != nil {
		return ExtractionResult{}, err
	}
	if _, err := os.Stat(path); err != nil {
		e.logger.Error("extract.stat_failed", "path", path, "error", err)
		return ExtractionResult{}, fmt.Errorf("extract %s: %w", path, err)
	}

	e.logger.Debug("extract.start", "path", path, "format", format)

	var (
		res ExtractionResult
		err error
	)
	switch format {
	case constants.TXT:
		res, err = e.extractPlainText(path)
	case constants.DOCX:
		res, err = e.extractDOCX(path)
	case constants.PDF:
		res, err = e.extractPDF(ctx, path)
	}
	res.Format = format
	res.Duration = time.Since(start)
	if err != nil {
		e.logger.Error("extract.failed", "path", path, "format", format, "error", err)
		return res, err
	}

	e.logger.Info("extract.ok",
		"path", path,
		"format", format,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len([]rune(res.Text)),
		"warnings", len(res.Warnings),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// ReadFile returns the raw text of the document at path. An empty format is
// derived from the extension.
func ReadFile(path, format string) (string, error) {
	if format != "" && constants.MapExtToFormat(filepath.Ext(path)) != format {
		return "", &UnsupportedFormatError{Ext: filepath.Ext(path)}
	}
	e := NewExtractor(Config{}, slog.New(slog.DiscardHandler))
	res, err := e.Extract(context.Background(), path)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}
