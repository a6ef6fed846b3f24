package extract

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)

	if err != nil {
		slog.Error("exec failed",
			"cmd", name,
			"duration_ms", dur.Milliseconds(),
			"error", err,
			"stderr", truncate(errb.String(), 8<<10),
		)
	} else {
		slog.Debug("exec ok", "cmd", name, "duration_ms", dur.Milliseconds(), "stdout_bytes", out.Len())
	}
	return out.Bytes(), errb.Bytes(), err
}

// pdftotext runs poppler's pdftotext. Pages come back separated by form feeds.
func (e *Extractor) pdftotext(ctx context.Context, path string) (string, int, error) {
	out, _, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, err
	}
	pages := strings.Split(strings.TrimSuffix(string(out), "\f"), "\f")
	return strings.Join(pages, "\n"), len(pages), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
