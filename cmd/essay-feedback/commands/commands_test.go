package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/essay-feedback/internal/export"
	"github.com/joseph-ayodele/essay-feedback/internal/llm"
)

const reply = `{"summary":"Nice.","feedback":{"Grammar":{"summary":"g","issues":["i"],"revision_tips":["t"]}}}`

type staticEvaluator struct{}

func (staticEvaluator) Evaluate(context.Context, llm.EvaluateRequest) (string, error) {
	return reply, nil
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("FEEDBACK_OUTPUT_DIR", "")
	root := NewRootCmd(staticEvaluator{})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func write(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestEvaluateSingleFile(t *testing.T) {
	dir := t.TempDir()
	essay := filepath.Join(dir, "essay.txt")
	write(t, essay, "An essay about rivers.")

	out, err := run(t, "evaluate", essay)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	var fb llm.Feedback
	if err := json.Unmarshal([]byte(out), &fb); err != nil {
		t.Fatalf("stdout is not feedback JSON: %v\n%s", err, out)
	}
	if fb.Summary != "Nice." {
		t.Errorf("summary = %q", fb.Summary)
	}
	if _, err := os.Stat(filepath.Join(dir, "essay_feedback.txt")); err != nil {
		t.Errorf("artifact missing: %v", err)
	}
}

func TestEvaluateDirectoryWithWorkbook(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "a.txt"), "first")
	write(t, filepath.Join(dir, "nested", "b.txt"), "second")
	write(t, filepath.Join(dir, "skip.md"), "ignored")
	write(t, filepath.Join(dir, ".hidden", "c.txt"), "hidden")
	book := filepath.Join(t.TempDir(), "review.xlsx")

	out, err := run(t, "evaluate", "--dir", dir, "--xlsx", book, "--workers", "2")
	if err != nil {
		t.Fatalf("evaluate --dir: %v\n%s", err, out)
	}
	if !strings.Contains(out, "evaluated 2 of 2 documents") {
		t.Errorf("output = %q", out)
	}

	f, err := excelize.OpenFile(book)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()
	rows, _ := f.GetRows(export.FeedbackSheet)
	if len(rows) != 1+2*4 || rows[1][0] != "a.txt" || rows[5][0] != filepath.Join("nested", "b.txt") {
		t.Errorf("rows = %v", rows)
	}
}

func TestEvaluateArgumentErrors(t *testing.T) {
	if _, err := run(t, "evaluate"); err == nil {
		t.Error("expected error without file or --dir")
	}
	if _, err := run(t, "evaluate", filepath.Join(t.TempDir(), "x.rtf")); err == nil {
		t.Error("expected unsupported format error")
	}
}

func TestReingestAndExport(t *testing.T) {
	dir := t.TempDir()
	fbPath := filepath.Join(dir, "essay_feedback.txt")
	write(t, fbPath, "edited by hand\n"+`{"summary":"s","feedback":{"Coherence":{"summary":"c"}}}`)

	out, err := run(t, "reingest", fbPath)
	if err != nil {
		t.Fatalf("reingest: %v", err)
	}
	var fb llm.Feedback
	if err := json.Unmarshal([]byte(out), &fb); err != nil {
		t.Fatal(err)
	}
	if fb.Feedback.Reasoning.Summary != "c" {
		t.Errorf("reasoning = %+v", fb.Feedback.Reasoning)
	}

	book := filepath.Join(dir, "out.xlsx")
	if _, err := run(t, "export", fbPath, "--out", book); err != nil {
		t.Fatalf("export: %v", err)
	}
	f, err := excelize.OpenFile(book)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	rows, _ := f.GetRows(export.FeedbackSheet)
	if len(rows) != 5 || rows[1][0] != "essay" {
		t.Errorf("rows = %v", rows)
	}

	if _, err := run(t, "export", fbPath); err == nil {
		t.Error("expected --out to be required")
	}
}
