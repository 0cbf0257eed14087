package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/models"
)

// docxLines returns the document's paragraphs in order, one per line. Table
// rows become a single line with cells separated by two spaces, which keeps
// the date, description and amount of a statement row together.
func docxLines(data []byte) (lines []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			lines, err = nil, fmt.Errorf("%w: DOCX reader crashed: %v", models.ErrDocumentUnreadable, rec)
		}
	}()

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDocumentUnreadable, err)
	}

	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			lines = append(lines, it.String())
		case *docx.Table:
			lines = append(lines, tableLines(it)...)
		}
	}
	return lines, nil
}

func tableLines(t *docx.Table) []string {
	var lines []string
	for _, row := range t.TableRows {
		var cells []string
		for _, cell := range row.TableCells {
			var parts []string
			for _, p := range cell.Paragraphs {
				if s := strings.TrimSpace(p.String()); s != "" {
					parts = append(parts, s)
				}
			}
			if len(parts) > 0 {
				cells = append(cells, strings.Join(parts, " "))
			}
			for _, nested := range cell.Tables {
				lines = append(lines, tableLines(nested)...)
			}
		}
		if len(cells) > 0 {
			lines = append(lines, strings.Join(cells, "  "))
		}
	}
	return lines
}
