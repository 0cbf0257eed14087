package writer

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/models"
)

// Row is one exported transaction line. Entities without transactions are
// exported as a single row with an empty Transaction.
type Row struct {
	Entity      string `csv:"Entity"`
	Seq         int    `csv:"Seq"`
	Transaction string `csv:"Transaction"`
}

// Rows flattens g into sanitized export rows in grouping order.
func Rows(g *models.Grouping) []Row {
	var rows []Row
	if g == nil {
		return rows
	}
	g.Each(func(name string, lines []string) {
		entity := Sanitize(name)
		if len(lines) == 0 {
			rows = append(rows, Row{Entity: entity})
			return
		}
		for i, line := range lines {
			rows = append(rows, Row{Entity: entity, Seq: i + 1, Transaction: Sanitize(line)})
		}
	})
	return rows
}

// CSVWriter writes the grouping as one row per transaction line.
type CSVWriter struct{}

// WriteToFile writes the grouping to a CSV file at the given path.
func (w CSVWriter) WriteToFile(path string, g *models.Grouping) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, g)
}

// Write writes the grouping in CSV format to out.
func (w CSVWriter) Write(out io.Writer, g *models.Grouping) error {
	rows := Rows(g)
	if err := gocsv.Marshal(&rows, out); err != nil {
		return fmt.Errorf("%w: csv: %v", models.ErrRender, err)
	}
	return nil
}
