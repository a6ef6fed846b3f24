package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

func (e *Extractor) extractPDF(ctx context.Context, path string) (ExtractionResult, error) {
	pages, warns, err := e.readPDFPages(path)
	if err != nil {
		return ExtractionResult{Warnings: warns}, err
	}
	text := strings.Join(pages, "\n")
	res := ExtractionResult{Text: text, Pages: len(pages), Method: "pdf-text", Warnings: warns}

	if strings.TrimSpace(text) == "" && e.cfg.Pdftotext != "" {
		e.logger.Info("extract.pdf.fallback", "path", path, "tool", e.cfg.Pdftotext)
		fb, fbPages, err := e.pdftotext(ctx, path)
		if err != nil {
			res.Warnings = append(res.Warnings, "pdftotext: "+err.Error())
			return res, nil
		}
		res.Text = fb
		res.Pages = fbPages
		res.Method = "pdftotext"
	}
	return res, nil
}

// readPDFPages extracts every page in order. A page that cannot be decoded
// contributes "" and a warning; only an unreadable container is an error.
func (e *Extractor) readPDFPages(path string) (pages []string, warns []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("open pdf %s: malformed document: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	n := r.NumPage()
	if e.cfg.MaxPages > 0 && n > e.cfg.MaxPages {
		warns = append(warns, fmt.Sprintf("read first %d of %d pages", e.cfg.MaxPages, n))
		n = e.cfg.MaxPages
	}
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		text, perr := pageText(r, i)
		if perr != nil {
			warns = append(warns, fmt.Sprintf("page %d: %v", i, perr))
			e.logger.Warn("extract.pdf.page_failed", "path", path, "page", i, "error", perr)
		}
		pages = append(pages, text)
	}
	return pages, warns, nil
}

func pageText(r *pdf.Reader, i int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("decode: %v", rec)
		}
	}()
	p := r.Page(i)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}
