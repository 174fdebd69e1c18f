package pivot

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hermannm.dev/widgets/results"
)

type Grid struct {
	RowFields    []string  `json:"rowFields"`
	ColumnFields []string  `json:"columnFields"`
	Measures     []Measure `json:"measures"`

	// Distinct row/column key tuples, in the order they were first seen in the input rows.
	RowKeys    [][]any `json:"rowKeys"`
	ColumnKeys [][]any `json:"columnKeys"`

	// Indexed as Cells[row][column][measure].
	Cells [][][]Cell `json:"cells"`
	// Each row group aggregated across all column groups, indexed as RowTotals[row][measure].
	RowTotals [][]Cell `json:"rowTotals"`
}

// An aggregated value. HasData is false if no input rows contributed to the cell.
type Cell struct {
	Value   float64
	HasData bool
}

func (cell Cell) MarshalJSON() ([]byte, error) {
	if !cell.HasData {
		return []byte("null"), nil
	}
	return json.Marshal(cell.Value)
}

// The cell's value, or nil if it has no data.
func (cell Cell) Any() any {
	if !cell.HasData {
		return nil
	}
	return cell.Value
}

func (cell *Cell) UnmarshalJSON(bytes []byte) error {
	if string(bytes) == "null" {
		*cell = Cell{}
		return nil
	}
	if err := json.Unmarshal(bytes, &cell.Value); err != nil {
		return err
	}
	cell.HasData = true
	return nil
}

type FieldRole string

const (
	RoleRow     FieldRole = "row"
	RoleColumn  FieldRole = "column"
	RoleMeasure FieldRole = "measure"
)

// Returned when a pivot references a field that is missing from a scanned input row.
type InvalidConfigError struct {
	Field    string
	Role     FieldRole
	RowIndex int
}

func (err *InvalidConfigError) Error() string {
	if err.Field == "" {
		return fmt.Sprintf("pivot %s field is blank", err.Role)
	}
	return fmt.Sprintf(
		"pivot %s field '%s' does not exist in result row %d", err.Role, err.Field, err.RowIndex,
	)
}

// Pivots the given rows into a grid, grouping by the values at rowKeys and colKeys and applying
// each measure to the rows in every (row group, column group) intersection.
//
// Groups are ordered by first appearance in the input. If both rowKeys and colKeys are empty,
// the grid has a single cell per measure aggregating all rows. Empty input gives an empty grid.
func Aggregate(
	rows []results.Row,
	rowKeys []string,
	colKeys []string,
	measures []Measure,
) (Grid, error) {
	grid := Grid{
		RowFields:    rowKeys,
		ColumnFields: colKeys,
		Measures:     measures,
		RowKeys:      [][]any{},
		ColumnKeys:   [][]any{},
		Cells:        [][][]Cell{},
		RowTotals:    [][]Cell{},
	}
	if len(rows) == 0 {
		return grid, nil
	}

	for _, measure := range measures {
		if !measure.Aggregation.IsValid() {
			return Grid{}, fmt.Errorf(
				"invalid aggregation '%v' for pivot measure '%s'", measure.Aggregation, measure.Field,
			)
		}
		if measure.Field == "" && measure.Aggregation != AggregationCount {
			return Grid{}, &InvalidConfigError{Role: RoleMeasure}
		}
	}

	type cellIndex struct {
		row    int
		column int
	}

	rowIndexes := make(map[string]int)
	columnIndexes := make(map[string]int)
	cells := make(map[cellIndex][]*accumulator)
	var rowTotals [][]*accumulator

	for i, row := range rows {
		rowKey, err := keyValues(row, rowKeys, RoleRow, i)
		if err != nil {
			return Grid{}, err
		}
		columnKey, err := keyValues(row, colKeys, RoleColumn, i)
		if err != nil {
			return Grid{}, err
		}
		for _, measure := range measures {
			if measure.Field == "" {
				continue
			}
			if _, ok := row[measure.Field]; !ok {
				return Grid{}, &InvalidConfigError{Field: measure.Field, Role: RoleMeasure, RowIndex: i}
			}
		}

		rowIndex, seen := rowIndexes[encodeKey(rowKey)]
		if !seen {
			rowIndex = len(grid.RowKeys)
			rowIndexes[encodeKey(rowKey)] = rowIndex
			grid.RowKeys = append(grid.RowKeys, rowKey)
			rowTotals = append(rowTotals, newAccumulators(measures))
		}

		columnIndex, seen := columnIndexes[encodeKey(columnKey)]
		if !seen {
			columnIndex = len(grid.ColumnKeys)
			columnIndexes[encodeKey(columnKey)] = columnIndex
			grid.ColumnKeys = append(grid.ColumnKeys, columnKey)
		}

		index := cellIndex{row: rowIndex, column: columnIndex}
		accumulators, ok := cells[index]
		if !ok {
			accumulators = newAccumulators(measures)
			cells[index] = accumulators
		}

		for m, measure := range measures {
			value := row[measure.Field]
			accumulators[m].add(value)
			rowTotals[rowIndex][m].add(value)
		}
	}

	grid.Cells = make([][][]Cell, len(grid.RowKeys))
	grid.RowTotals = make([][]Cell, len(grid.RowKeys))
	for r := range grid.RowKeys {
		grid.Cells[r] = make([][]Cell, len(grid.ColumnKeys))
		for c := range grid.ColumnKeys {
			grid.Cells[r][c] = make([]Cell, len(measures))
			if accumulators, ok := cells[cellIndex{row: r, column: c}]; ok {
				for m, acc := range accumulators {
					grid.Cells[r][c][m] = acc.result()
				}
			}
		}

		grid.RowTotals[r] = make([]Cell, len(measures))
		for m, acc := range rowTotals[r] {
			grid.RowTotals[r][m] = acc.result()
		}
	}

	return grid, nil
}

func (grid Grid) IsEmpty() bool {
	return len(grid.RowKeys) == 0
}

func (grid Grid) Cell(row int, column int, measure int) Cell {
	if row < 0 || row >= len(grid.Cells) ||
		column < 0 || column >= len(grid.Cells[row]) ||
		measure < 0 || measure >= len(grid.Cells[row][column]) {
		return Cell{}
	}
	return grid.Cells[row][column][measure]
}

// Returns the cell at the given row key, column key and measure index, comparing keys by value.
func (grid Grid) Lookup(rowKey []any, columnKey []any, measure int) (cell Cell, found bool) {
	if measure < 0 || measure >= len(grid.Measures) {
		return Cell{}, false
	}

	rowIndex := indexOfKey(grid.RowKeys, rowKey)
	columnIndex := indexOfKey(grid.ColumnKeys, columnKey)
	if rowIndex == -1 || columnIndex == -1 {
		return Cell{}, false
	}

	return grid.Cells[rowIndex][columnIndex][measure], true
}

func newAccumulators(measures []Measure) []*accumulator {
	accumulators := make([]*accumulator, len(measures))
	for i, measure := range measures {
		accumulators[i] = newAccumulator(measure.Aggregation)
	}
	return accumulators
}

func keyValues(row results.Row, fields []string, role FieldRole, rowIndex int) ([]any, error) {
	key := make([]any, 0, len(fields))
	for _, field := range fields {
		value, ok := row[field]
		if !ok {
			return nil, &InvalidConfigError{Field: field, Role: role, RowIndex: rowIndex}
		}
		key = append(key, value)
	}
	return key, nil
}

func indexOfKey(keys [][]any, key []any) int {
	encoded := encodeKey(key)
	for i, candidate := range keys {
		if encodeKey(candidate) == encoded {
			return i
		}
	}
	return -1
}

// Encodes a key tuple into a string that is equal for equal values. Every part is prefixed with
// its length, and every value with its kind, so that nil never collides with a string "null" and
// tuples never collide across part boundaries.
func encodeKey(key []any) string {
	var builder strings.Builder
	for _, value := range key {
		part := encodeValue(value)
		builder.WriteString(strconv.Itoa(len(part)))
		builder.WriteByte(':')
		builder.WriteString(part)
	}
	return builder.String()
}

func encodeValue(value any) string {
	if value == nil {
		return "n"
	}
	if number, ok := results.AsNumeric(value); ok {
		return "f" + strconv.FormatFloat(number, 'g', -1, 64)
	}

	switch value := value.(type) {
	case string:
		return "s" + value
	case bool:
		return "b" + strconv.FormatBool(value)
	case time.Time:
		return "t" + value.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("v%T:%v", value, value)
	}
}
