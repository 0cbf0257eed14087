package writer

import (
	"bytes"
	"fmt"
	"io"

	"github.com/fumiama/go-docx"

	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/models"
)

// Default report text.
const (
	DefaultTitle       = "Transaction Organization Report"
	DefaultPlaceholder = "No transactions"
)

// DocxWriter renders a Grouping as a word-processing report: a title, then a
// heading per entity followed by one paragraph per transaction line.
type DocxWriter struct {
	Title            string
	EmptyPlaceholder string
}

// Render returns the report as an in-memory buffer positioned at its start.
// Nothing is returned unless the whole document was written.
func (w DocxWriter) Render(g *models.Grouping) (*bytes.Reader, error) {
	var buf bytes.Buffer
	if err := w.Write(&buf, g); err != nil {
		return nil, err
	}
	return bytes.NewReader(buf.Bytes()), nil
}

// Write serializes the report to out.
func (w DocxWriter) Write(out io.Writer, g *models.Grouping) error {
	tmpl, err := reportTemplateFS()
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrRender, err)
	}
	doc := docx.New().UseTemplate(reportTemplate, docx.DefaultTemplateFilesList, tmpl)

	title := w.Title
	if title == "" {
		title = DefaultTitle
	}
	placeholder := w.EmptyPlaceholder
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}

	doc.AddParagraph().Style(styleTitle).AddText(Sanitize(title))
	if g != nil {
		g.Each(func(name string, lines []string) {
			doc.AddParagraph().Style(styleEntity).AddText(Sanitize(name))
			if len(lines) == 0 {
				doc.AddParagraph().AddText(Sanitize(placeholder)).Italic()
				return
			}
			for _, line := range lines {
				doc.AddParagraph().AddText(Sanitize(line))
			}
		})
	}

	if _, err := doc.WriteTo(out); err != nil {
		return fmt.Errorf("%w: %v", models.ErrRender, err)
	}
	return nil
}
