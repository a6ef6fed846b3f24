package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/essay-feedback/constants"
	"github.com/joseph-ayodele/essay-feedback/internal/llm"
)

const (
	FeedbackSheet = "Feedback"
	SummarySheet  = "Summary"
	bullet        = "• "
)

// Document is one essay's feedback as it appears in the workbook.
type Document struct {
	Name     string
	Feedback llm.Feedback
}

// Service renders feedback documents as XLSX workbooks.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

var feedbackHeaders = []any{
	"Document",
	"Dimension",
	"维度",
	"Summary",
	"Issues",
	"Revision Tips",
}

// FeedbackXLSX returns a workbook with one row per document and dimension on
// the Feedback sheet, and each document's overall summary on the Summary sheet.
func (s *Service) FeedbackXLSX(ctx context.Context, docs []Document) ([]byte, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", FeedbackSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(FeedbackSheet)
	f.SetActiveSheet(activeIndex)

	wrap, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(FeedbackSheet, "A1", &feedbackHeaders); err != nil {
		return nil, err
	}
	row := 2
	for _, doc := range docs {
		for _, d := range constants.Dimensions() {
			sec := doc.Feedback.Feedback.Get(d)
			cell, _ := excelize.CoordinatesToCellName(1, row)
			values := []any{
				doc.Name,
				string(d),
				constants.ChineseLabel(d),
				sec.Summary,
				Bullets(sec.Issues),
				Bullets(sec.RevisionTips),
			}
			if err := f.SetSheetRow(FeedbackSheet, cell, &values); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row, err)
			}
			row++
		}
	}
	_ = f.SetCellStyle(FeedbackSheet, "A1", "F1", bold)
	if row > 2 {
		_ = f.SetCellStyle(FeedbackSheet, "A2", fmt.Sprintf("F%d", row-1), wrap)
	}
	_ = f.SetColWidth(FeedbackSheet, "A", "A", 28)
	_ = f.SetColWidth(FeedbackSheet, "B", "C", 14)
	_ = f.SetColWidth(FeedbackSheet, "D", "F", 60)
	_ = f.SetPanes(FeedbackSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	if err := f.SetSheetRow(SummarySheet, "A1", &[]any{"Document", "Summary"}); err != nil {
		return nil, err
	}
	for i, doc := range docs {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SummarySheet, cell, &[]any{doc.Name, doc.Feedback.Summary}); err != nil {
			return nil, err
		}
	}
	_ = f.SetCellStyle(SummarySheet, "A1", "B1", bold)
	_ = f.SetColWidth(SummarySheet, "A", "A", 28)
	_ = f.SetColWidth(SummarySheet, "B", "B", 80)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"documents", len(docs),
		"rows", row-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// Bullets renders items one per line, each prefixed with a bullet.
func Bullets(items []string) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(bullet)
		b.WriteString(it)
	}
	return b.String()
}
