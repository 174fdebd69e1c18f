package export

import (
	"encoding/csv"
	"io"

	"hermannm.dev/widgets/pivot"
	"hermannm.dev/widgets/results"
	"hermannm.dev/wrap"
)

// Writes the result set as CSV with a header row. Missing and nil values are written as empty
// fields.
func WriteCSV(output io.Writer, set results.Set) error {
	writer := csv.NewWriter(output)

	if err := writer.Write(set.Columns); err != nil {
		return wrap.Error(err, "failed to write CSV header row")
	}

	record := make([]string, len(set.Columns))
	for i, row := range set.Rows {
		for j, column := range set.Columns {
			record[j] = FormatValue(row[column])
		}
		if err := writer.Write(record); err != nil {
			return wrap.Errorf(err, "failed to write CSV row %d", i+1)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return wrap.Error(err, "failed to flush CSV output")
	}
	return nil
}

func WritePivotCSV(output io.Writer, grid pivot.Grid) error {
	table := FlattenPivot(grid)
	writer := csv.NewWriter(output)

	if err := writer.Write(table.Header); err != nil {
		return wrap.Error(err, "failed to write CSV header row")
	}

	record := make([]string, len(table.Header))
	for i, row := range table.Rows {
		for j, value := range row {
			record[j] = FormatValue(value)
		}
		if err := writer.Write(record); err != nil {
			return wrap.Errorf(err, "failed to write CSV row %d", i+1)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return wrap.Error(err, "failed to flush CSV output")
	}
	return nil
}
