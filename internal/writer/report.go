package writer

import (
	"fmt"
	"io"

	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/config"
	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/models"
)

// Content types of the report formats.
const (
	MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMECSV  = "text/csv; charset=utf-8"
	MIMEXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Writer serializes a Grouping.
type Writer interface {
	Write(out io.Writer, g *models.Grouping) error
}

// ForFormat returns the writer and content type for a report format.
func ForFormat(format string, rep config.Report) (Writer, string, error) {
	switch format {
	case "docx", "":
		return DocxWriter{Title: rep.Title, EmptyPlaceholder: rep.EmptyPlaceholder}, MIMEDocx, nil
	case "csv":
		return CSVWriter{}, MIMECSV, nil
	case "xlsx":
		return XLSXWriter{}, MIMEXLSX, nil
	default:
		return nil, "", fmt.Errorf("unknown report format %q", format)
	}
}
