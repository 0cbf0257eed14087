package writer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/models"
)

// SheetName is the worksheet holding the exported transactions.
const SheetName = "Transactions"

// XLSXWriter writes the grouping as a spreadsheet with the same columns as
// the CSV export.
type XLSXWriter struct{}

// Write writes the workbook to out.
func (w XLSXWriter) Write(out io.Writer, g *models.Grouping) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("%w: xlsx: %v", models.ErrRender, err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("%w: xlsx: %v", models.ErrRender, err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &[]interface{}{"Entity", "Seq", "Transaction"}); err != nil {
		return fmt.Errorf("%w: xlsx: %v", models.ErrRender, err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("%w: xlsx: %v", models.ErrRender, err)
	}

	for i, row := range Rows(g) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("%w: xlsx: %v", models.ErrRender, err)
		}
		values := []interface{}{row.Entity, row.Seq, row.Transaction}
		if row.Seq == 0 {
			values[1] = nil
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("%w: xlsx: %v", models.ErrRender, err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 32); err != nil {
		return fmt.Errorf("%w: xlsx: %v", models.ErrRender, err)
	}
	if err := f.SetColWidth(SheetName, "C", "C", 80); err != nil {
		return fmt.Errorf("%w: xlsx: %v", models.ErrRender, err)
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("%w: xlsx: %v", models.ErrRender, err)
	}
	return nil
}
