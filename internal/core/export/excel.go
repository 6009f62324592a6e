package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Export"

// ExcelExporter writes .xlsx workbooks with a styled, frozen header row
type ExcelExporter struct{}

func NewExcelExporter() *ExcelExporter { return &ExcelExporter{} }

func (e *ExcelExporter) Export(t *Table, w io.Writer) error {
	if len(t.Headers) == 0 {
		return fmt.Errorf("no headers provided")
	}

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", sheetName)

	row := 1
	if t.Title != "" {
		titleStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
		f.SetCellValue(sheetName, "A1", t.Title)
		f.SetCellStyle(sheetName, "A1", "A1", titleStyle)
		row++
		if t.Subtitle != "" {
			f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), t.Subtitle)
			row++
		}
		row++
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1F4E79"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	headerRow := row
	for i, h := range t.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(sheetName, cell, h)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, columnWidth(h))
	}
	row++

	for _, values := range t.Rows {
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			switch x := v.(type) {
			case time.Time, *time.Time:
				f.SetCellValue(sheetName, cell, cellString(x))
			default:
				f.SetCellValue(sheetName, cell, v)
			}
		}
		row++
	}

	f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: fmt.Sprintf("A%d", headerRow+1),
		ActivePane:  "bottomLeft",
	})

	lastCol, _ := excelize.ColumnNumberToName(len(t.Headers))
	lastRow := headerRow + len(t.Rows)
	if err := f.AutoFilter(sheetName, fmt.Sprintf("A%d:%s%d", headerRow, lastCol, lastRow), nil); err != nil {
		return fmt.Errorf("failed to add auto filter: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}

func (e *ExcelExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (e *ExcelExporter) Extension() string { return ".xlsx" }

func columnWidth(header string) float64 {
	w := float64(len(header)) + 6
	if w < 14 {
		return 14
	}
	return w
}
