package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/essay-feedback/constants"
	"github.com/joseph-ayodele/essay-feedback/internal/common"
	"github.com/joseph-ayodele/essay-feedback/internal/extract"
	"github.com/joseph-ayodele/essay-feedback/internal/llm"
	"github.com/joseph-ayodele/essay-feedback/internal/textclean"
)

// ErrNoFeedbackJSON is returned when re-ingested text holds no JSON object.
var ErrNoFeedbackJSON = common.NewAppError("NO_FEEDBACK_JSON", "no JSON object found in feedback text", common.ErrInvalidInput)

type ProcessorConfig struct {
	Model           string
	MaxOutputTokens int
	MaxChars        int    // prompt truncation ceiling, 0 = llm.DefaultMaxChars
	OutputDir       string // "" writes the artifact next to the source document
	SkipArtifact    bool
}

// Result is everything one evaluation produced.
type Result struct {
	Path           string
	Format         string
	Pages          int
	CleanedChars   int
	Truncated      bool
	Reply          string
	Coerced        map[string]any
	Feedback       llm.Feedback
	OutputPath     string
	SchemaWarnings []string
	Duration       time.Duration
}

// Processor coordinates extract -> clean -> prompt -> model -> coerce -> normalize.
type Processor struct {
	cfg       ProcessorConfig
	extractor extract.TextExtractor
	evaluator llm.FeedbackEvaluator
	logger    *slog.Logger
}

func NewProcessor(cfg ProcessorConfig, extractor extract.TextExtractor, evaluator llm.FeedbackEvaluator, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = llm.DefaultMaxChars
	}
	return &Processor{cfg: cfg, extractor: extractor, evaluator: evaluator, logger: logger}
}

// EvaluateFile runs the whole chain for one document and persists the
// normalized feedback. Only input, extraction and model-call failures are
// errors; an unusable reply still yields a complete, empty Feedback.
func (p *Processor) EvaluateFile(ctx context.Context, path string) (Result, error) {
	ctx, rid := common.EnsureRequestID(ctx)
	start := time.Now()
	res := Result{Path: path}

	ext, err := p.extractor.Extract(ctx, path)
	if err != nil {
		p.logger.Error("processor.extract.failed", "req_id", rid, "path", path, "error", err)
		return res, err
	}
	res.Format = ext.Format
	res.Pages = ext.Pages

	cleaned := textclean.Clean(ext.Text)
	res.CleanedChars = utf8.RuneCountInString(cleaned)
	if cleaned == "" {
		p.logger.Warn("processor.empty_text", "req_id", rid, "path", path, "warnings", ext.Warnings)
	}
	_, res.Truncated = llm.TruncateForPrompt(cleaned, p.cfg.MaxChars)

	p.logger.Debug("processor.evaluate.start",
		"req_id", rid,
		"path", path,
		"format", ext.Format,
		"raw_chars", utf8.RuneCountInString(ext.Text),
		"cleaned_chars", res.CleanedChars,
		"truncated", res.Truncated,
	)

	reply, err := p.evaluator.Evaluate(ctx, llm.EvaluateRequest{
		System:          llm.BuildSystemPrompt(),
		User:            llm.BuildUserPrompt(cleaned, p.cfg.MaxChars),
		Model:           p.cfg.Model,
		MaxOutputTokens: p.cfg.MaxOutputTokens,
	})
	if err != nil {
		p.logger.Error("processor.evaluate.failed", "req_id", rid, "path", path, "error", err)
		return res, fmt.Errorf("evaluate %s: %w", path, err)
	}
	res.Reply = reply

	res.Coerced, res.Feedback, res.SchemaWarnings = p.decode(rid, reply)

	if !p.cfg.SkipArtifact {
		out := p.OutputPathFor(path)
		if err := WriteFeedbackFile(out, res.Feedback); err != nil {
			p.logger.Error("processor.write.failed", "req_id", rid, "path", out, "error", err)
			return res, err
		}
		res.OutputPath = out
	}
	res.Duration = time.Since(start)

	p.logger.Info("processor.evaluate.ok",
		"req_id", rid,
		"upload_id", common.UploadIDFromContext(ctx),
		"path", path,
		"output", res.OutputPath,
		"raw_reply", llm.IsRaw(res.Coerced),
		"schema_warnings", len(res.SchemaWarnings),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// Reingest reads a persisted or hand-edited feedback file back into Feedback.
func (p *Processor) Reingest(ctx context.Context, path string) (llm.Feedback, error) {
	if _, ok := constants.AllowedFeedbackExtensions[constants.NormalizeExt(filepath.Ext(path))]; !ok {
		return llm.Feedback{}, &extract.UnsupportedFormatError{Ext: filepath.Ext(path)}
	}
	if err := ctx.Err(); err != nil {
		return llm.Feedback{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return llm.Feedback{}, fmt.Errorf("reingest %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return p.ReingestReader(ctx, f)
}

// ReingestReader is Reingest over an arbitrary byte stream.
func (p *Processor) ReingestReader(ctx context.Context, r io.Reader) (llm.Feedback, error) {
	_, rid := common.EnsureRequestID(ctx)
	text, err := extract.DecodeText(r)
	if err != nil {
		return llm.Feedback{}, fmt.Errorf("reingest: %w", err)
	}
	coerced, fb, warns := p.decode(rid, text)
	if llm.IsRaw(coerced) {
		p.logger.Warn("processor.reingest.no_json", "req_id", rid, "chars", utf8.RuneCountInString(text))
		return fb, ErrNoFeedbackJSON
	}
	p.logger.Info("processor.reingest.ok", "req_id", rid, "schema_warnings", len(warns))
	return fb, nil
}

func (p *Processor) decode(rid, reply string) (map[string]any, llm.Feedback, []string) {
	coerced := llm.Coerce(reply)
	var warns []string
	if llm.IsRaw(coerced) {
		warns = append(warns, "reply contained no JSON object")
		p.logger.Warn("processor.coerce.raw", "req_id", rid, "reply_chars", utf8.RuneCountInString(reply))
	} else if err := llm.ValidateFeedback(coerced); err != nil {
		warns = append(warns, err.Error())
		p.logger.Warn("processor.schema.mismatch", "req_id", rid, "error", err)
	}

	fb, dropped := llm.NormalizeWithReport(coerced)
	if len(dropped) > 0 && !llm.IsRaw(coerced) {
		p.logger.Debug("processor.normalize.dropped", "req_id", rid, "keys", dropped)
	}
	return coerced, fb, warns
}

// OutputPathFor returns where the artifact for a source document goes.
func (p *Processor) OutputPathFor(source string) string {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	dir := p.cfg.OutputDir
	if dir == "" {
		dir = filepath.Dir(source)
	}
	return filepath.Join(dir, stem+constants.FeedbackFileSuffix)
}

// MarshalFeedback renders f as the persisted artifact: two-space indented
// UTF-8 JSON, HTML characters left as is, trailing newline.
func MarshalFeedback(f llm.Feedback) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFeedbackFile writes the artifact via a temp file then rename.
func WriteFeedbackFile(path string, f llm.Feedback) error {
	b, err := MarshalFeedback(f)
	if err != nil {
		return fmt.Errorf("encode feedback: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
