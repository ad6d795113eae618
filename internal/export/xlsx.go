package export

import (
	"fmt"
	"io"

	"equiprent-backend/internal/domain"

	"github.com/xuri/excelize/v2"
)

// ContentTypeXLSX is the media type of WriteXLSX output.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// FileName returns the attachment name for a report export.
func FileName(report *domain.Report) string {
	return fmt.Sprintf("report_%s.xlsx", report.Name)
}

// WriteXLSX renders a report as a single-sheet workbook: one header row
// followed by one row per report row, columns in report order.
func WriteXLSX(w io.Writer, report *domain.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := string(report.Name)
	if sheet == "" {
		sheet = "report"
	}
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if sheet != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("error creating style: %w", err)
	}

	for col, name := range report.Columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return fmt.Errorf("error writing header %s: %w", name, err)
		}
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for r, row := range report.Rows {
		for col, name := range report.Columns {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, row[name]); err != nil {
				return fmt.Errorf("error writing cell %s: %w", cell, err)
			}
		}
	}

	if n := len(report.Columns); n > 0 {
		last, _ := excelize.ColumnNumberToName(n)
		_ = f.SetColWidth(sheet, "A", last, 20)
		_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}
