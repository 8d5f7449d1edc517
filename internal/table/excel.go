package table

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet pairs a worksheet name with the table it carries.
type Sheet struct {
	Name  string
	Table *Table
}

// WriteExcelFile writes a workbook with one worksheet per sheet to disk.
func WriteExcelFile(path string, sheets []Sheet) error {
	f, err := buildWorkbook(sheets)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// WriteExcel streams a workbook, for HTTP download responses.
func WriteExcel(w io.Writer, sheets []Sheet) error {
	f, err := buildWorkbook(sheets)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func buildWorkbook(sheets []Sheet) (*excelize.File, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for si, sheet := range sheets {
		index, err := f.NewSheet(sheet.Name)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %q: %w", sheet.Name, err)
		}
		if si == 0 {
			f.SetActiveSheet(index)
		}

		for i, header := range sheet.Table.Headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet.Name, cell, header)
			f.SetCellStyle(sheet.Name, cell, cell, headerStyle)
		}

		for rowIdx, row := range sheet.Table.Rows {
			for col, v := range row.Values(sheet.Table.Headers) {
				cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
				f.SetCellValue(sheet.Name, cell, v)
			}
		}

		for i := range sheet.Table.Headers {
			col, _ := excelize.ColumnNumberToName(i + 1)
			f.SetColWidth(sheet.Name, col, col, 18)
		}
	}

	// Drop the default worksheet excelize seeds new files with.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	return f, nil
}

// ReadExcelFile reads the first worksheet of a workbook into a Table.
// Cells come back already formatted as strings, so numeric cells are
// stringified before any normalization happens downstream.
func ReadExcelFile(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, &MalformedInputError{Err: errors.New("workbook has no worksheets")}
	}

	rows, err := f.GetRows(names[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", names[0], err)
	}
	if len(rows) == 0 {
		return nil, &MalformedInputError{Err: errors.New("empty worksheet, no header row")}
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	t := New(headers...)
	for _, values := range rows[1:] {
		t.Append(values)
	}

	return t, nil
}
