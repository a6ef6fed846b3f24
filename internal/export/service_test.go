package export

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/essay-feedback/internal/llm"
)

func TestFeedbackXLSX(t *testing.T) {
	fb := llm.Normalize(map[string]any{
		"summary": "Overall fine.",
		"feedback": map[string]any{
			"Grammar":   map[string]any{"summary": "ok", "issues": []any{"a", "b"}, "revision_tips": []any{"c"}},
			"Coherence": map[string]any{"summary": "flows"},
		},
	})
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)))

	b, err := svc.FeedbackXLSX(context.Background(), []Document{
		{Name: "one.docx", Feedback: fb},
		{Name: "two.pdf", Feedback: llm.Normalize(nil)},
	})
	if err != nil {
		t.Fatalf("FeedbackXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(FeedbackSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1+2*4 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0][2] != "维度" {
		t.Errorf("header = %v", rows[0])
	}
	grammar := rows[1]
	if grammar[0] != "one.docx" || grammar[1] != "Grammar" || grammar[2] != "语法" || grammar[3] != "ok" {
		t.Errorf("grammar row = %v", grammar)
	}
	if grammar[4] != "• a\n• b" || grammar[5] != "• c" {
		t.Errorf("bullets = %q / %q", grammar[4], grammar[5])
	}
	reasoning := rows[4]
	if reasoning[1] != "Reasoning" || reasoning[2] != "推理" || reasoning[3] != "flows" {
		t.Errorf("reasoning row = %v", reasoning)
	}
	if rows[5][0] != "two.pdf" {
		t.Errorf("second document row = %v", rows[5])
	}

	summary, err := f.GetRows(SummarySheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(summary) != 3 || summary[1][1] != "Overall fine." {
		t.Errorf("summary sheet = %v", summary)
	}
}

func TestFeedbackXLSXEmpty(t *testing.T) {
	b, err := NewService(nil).FeedbackXLSX(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	rows, _ := f.GetRows(FeedbackSheet)
	if len(rows) != 1 {
		t.Errorf("rows = %v", rows)
	}
}

func TestBullets(t *testing.T) {
	if Bullets(nil) != "" || Bullets([]string{"x"}) != "• x" {
		t.Error("unexpected bullets")
	}
}
