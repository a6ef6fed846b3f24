package extract

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// extractPlainText decodes as UTF-8, honouring a UTF-8 or UTF-16 byte order
// mark, and silently drops undecodable bytes.
func (e *Extractor) extractPlainText(path string) (ExtractionResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	text, err := decodeTolerant(f)
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("read %s: %w", path, err)
	}
	return ExtractionResult{Text: text, Pages: 1, Method: "plain-text"}, nil
}

func decodeTolerant(r io.Reader) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	b, err := io.ReadAll(transform.NewReader(r, dec))
	if err != nil {
		return "", err
	}
	// the UTF-8 decoder substitutes U+FFFD for invalid sequences
	s := strings.ReplaceAll(string(b), string(utf8.RuneError), "")
	return strings.ToValidUTF8(s, ""), nil
}

// DecodeText reads r with the same tolerant decoding used for .txt essays.
func DecodeText(r io.Reader) (string, error) {
	return decodeTolerant(r)
}
