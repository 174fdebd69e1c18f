package export

import (
	"encoding/json"
	"io"

	"github.com/xuri/excelize/v2"
	"hermannm.dev/widgets/pivot"
	"hermannm.dev/widgets/results"
	"hermannm.dev/wrap"
)

const (
	ResultsSheet = "Results"
	PivotSheet   = "Pivot"
)

// Writes the result set to an XLSX workbook, with the raw rows on the Results sheet and, if grid
// is not nil, the flattened pivot grid on the Pivot sheet.
func WriteXLSX(output io.Writer, set results.Set, grid *pivot.Grid) (returnedErr error) {
	file := excelize.NewFile()
	defer func() {
		if err := file.Close(); err != nil && returnedErr == nil {
			returnedErr = wrap.Error(err, "failed to close XLSX workbook")
		}
	}()

	if err := file.SetSheetName("Sheet1", ResultsSheet); err != nil {
		return wrap.Error(err, "failed to rename default XLSX sheet")
	}

	headerStyle, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return wrap.Error(err, "failed to create XLSX header style")
	}

	rows := make([][]any, len(set.Rows))
	for i, row := range set.Rows {
		values := make([]any, len(set.Columns))
		for j, column := range set.Columns {
			values[j] = cellValue(row[column])
		}
		rows[i] = values
	}
	if err := writeSheet(file, ResultsSheet, set.Columns, rows, headerStyle); err != nil {
		return err
	}

	if grid != nil {
		if _, err := file.NewSheet(PivotSheet); err != nil {
			return wrap.Error(err, "failed to create XLSX pivot sheet")
		}

		table := FlattenPivot(*grid)
		for _, row := range table.Rows {
			for i, value := range row {
				row[i] = cellValue(value)
			}
		}
		if err := writeSheet(file, PivotSheet, table.Header, table.Rows, headerStyle); err != nil {
			return err
		}
	}

	if err := file.Write(output); err != nil {
		return wrap.Error(err, "failed to write XLSX workbook")
	}
	return nil
}

func writeSheet(
	file *excelize.File,
	sheet string,
	header []string,
	rows [][]any,
	headerStyle int,
) error {
	headerRow := make([]any, len(header))
	for i, name := range header {
		headerRow[i] = name
	}
	if err := file.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return wrap.Errorf(err, "failed to write header row of XLSX sheet '%s'", sheet)
	}
	if err := file.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return wrap.Errorf(err, "failed to style header row of XLSX sheet '%s'", sheet)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return wrap.Errorf(err, "invalid XLSX row %d", i+2)
		}
		if err := file.SetSheetRow(sheet, cell, &row); err != nil {
			return wrap.Errorf(err, "failed to write row %d of XLSX sheet '%s'", i+2, sheet)
		}
	}

	return nil
}

// Converts values that excelize would otherwise write as text.
func cellValue(value any) any {
	if number, ok := value.(json.Number); ok {
		if parsed, err := number.Float64(); err == nil {
			return parsed
		}
		return number.String()
	}
	return value
}
