package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

func (e *Extractor) extractDOCX(path string) (ExtractionResult, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("open docx %s: %w", path, err)
	}
	defer func() { _ = zr.Close() }()

	var doc *zip.File
	for _, f := range zr.File {
		if strings.EqualFold(f.Name, "word/document.xml") {
			doc = f
			break
		}
	}
	if doc == nil {
		return ExtractionResult{}, fmt.Errorf("open docx %s: word/document.xml not found", path)
	}
	rc, err := doc.Open()
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("open docx %s: %w", path, err)
	}
	defer func() { _ = rc.Close() }()

	paras, err := bodyParagraphs(rc)
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("parse docx %s: %w", path, err)
	}
	return ExtractionResult{Text: strings.Join(paras, "\n"), Pages: 1, Method: "docx-xml"}, nil
}

// bodyParagraphs returns the text of every paragraph that is a direct child of
// w:body. Table cells, headers and text boxes nested in a paragraph are skipped.
func bodyParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		stack  []string
		paras  []string
		cur    strings.Builder
		inPara bool
		innerP int
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if !isWord(t.Name) {
				stack = append(stack, "")
				continue
			}
			name := t.Name.Local
			switch {
			case name == "p" && inPara:
				innerP++
			case name == "p" && len(stack) > 0 && stack[len(stack)-1] == "body":
				inPara = true
				cur.Reset()
			case inPara && innerP == 0:
				switch name {
				case "t":
					var s string
					if err := dec.DecodeElement(&s, &t); err != nil {
						return nil, err
					}
					cur.WriteString(s)
					continue
				case "tab":
					cur.WriteByte('\t')
				case "br", "cr":
					cur.WriteByte('\n')
				}
			}
			stack = append(stack, name)
		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			name := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if name != "p" || !inPara {
				continue
			}
			if innerP > 0 {
				innerP--
				continue
			}
			paras = append(paras, cur.String())
			inPara = false
		}
	}
	return paras, nil
}

// isWord accepts the WordprocessingML namespace, or a bare "w" prefix when the
// document omits the namespace declaration.
func isWord(n xml.Name) bool {
	return n.Space == wordNS || n.Space == "w"
}
