// Package export writes query results and pivot grids to files, for downloading report data.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"hermannm.dev/enumnames"
	"hermannm.dev/widgets/pivot"
	"hermannm.dev/widgets/results"
)

type Format int8

const (
	FormatCSV Format = iota + 1
	FormatXLSX
)

var formatMap = enumnames.NewMap(map[Format]string{
	FormatCSV:  "csv",
	FormatXLSX: "xlsx",
})

func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	}
	return 0, fmt.Errorf("unsupported export format '%s' (expected csv or xlsx)", name)
}

func (format Format) IsValid() bool {
	return formatMap.ContainsEnumValue(format)
}

func (format Format) String() string {
	return formatMap.GetNameOrFallback(format, "INVALID_EXPORT_FORMAT")
}

func (format Format) MarshalJSON() ([]byte, error) {
	return formatMap.MarshalToNameJSON(format)
}

func (format *Format) UnmarshalJSON(bytes []byte) error {
	return formatMap.UnmarshalFromNameJSON(bytes, format)
}

func (format Format) ContentType() string {
	switch format {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

func (format Format) FileExtension() string {
	return "." + format.String()
}

// Writes the result set in the given format. If grid is not nil, the pivot grid is written
// instead of the raw rows for CSV, and as a second sheet for XLSX.
func Write(output io.Writer, format Format, set results.Set, grid *pivot.Grid) error {
	switch format {
	case FormatCSV:
		if grid != nil {
			return WritePivotCSV(output, *grid)
		}
		return WriteCSV(output, set)
	case FormatXLSX:
		return WriteXLSX(output, set, grid)
	default:
		return fmt.Errorf("unsupported export format '%v'", format)
	}
}

// A pivot grid flattened to a table: the row fields, then one column per (column key, measure),
// then the row totals if the grid has column fields.
type PivotTable struct {
	Header []string
	Rows   [][]any
}

func FlattenPivot(grid pivot.Grid) PivotTable {
	var table PivotTable
	table.Header = append(table.Header, grid.RowFields...)

	hasColumnFields := len(grid.ColumnFields) != 0
	for _, columnKey := range grid.ColumnKeys {
		for _, measure := range grid.Measures {
			if hasColumnFields {
				table.Header = append(table.Header, KeyLabel(columnKey)+" "+measure.Label())
			} else {
				table.Header = append(table.Header, measure.Label())
			}
		}
	}
	if hasColumnFields {
		for _, measure := range grid.Measures {
			table.Header = append(table.Header, "Total "+measure.Label())
		}
	}

	for rowIndex, rowKey := range grid.RowKeys {
		row := make([]any, 0, len(table.Header))
		row = append(row, rowKey...)

		for columnIndex := range grid.ColumnKeys {
			for measureIndex := range grid.Measures {
				row = append(row, grid.Cell(rowIndex, columnIndex, measureIndex).Any())
			}
		}
		if hasColumnFields {
			for _, total := range grid.RowTotals[rowIndex] {
				row = append(row, total.Any())
			}
		}

		table.Rows = append(table.Rows, row)
	}

	return table
}

// Joins the values of a pivot key tuple for display, e.g. "EU / 2024".
func KeyLabel(key []any) string {
	parts := make([]string, len(key))
	for i, value := range key {
		if value == nil {
			parts[i] = "(null)"
		} else {
			parts[i] = FormatValue(value)
		}
	}
	return strings.Join(parts, " / ")
}

// Formats a result value as text. nil formats as the empty string.
func FormatValue(value any) string {
	switch value := value.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(value), 'f', -1, 32)
	case json.Number:
		return value.String()
	case time.Time:
		return value.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(value)
	}
}
