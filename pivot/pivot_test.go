package pivot

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hermannm.dev/widgets/results"
)

var salesRows = []results.Row{
	{"region": "EU", "product": "A", "qty": 3},
	{"region": "EU", "product": "B", "qty": 5},
	{"region": "US", "product": "A", "qty": 2},
}

func TestAggregateSumByRegion(t *testing.T) {
	grid, err := Aggregate(
		salesRows,
		[]string{"region"},
		nil,
		[]Measure{{Field: "qty", Aggregation: AggregationSum}},
	)
	require.NoError(t, err)

	assert.Equal(t, [][]any{{"EU"}, {"US"}}, grid.RowKeys)
	assert.Equal(t, [][]any{{}}, grid.ColumnKeys)

	eu, found := grid.Lookup([]any{"EU"}, []any{}, 0)
	require.True(t, found)
	assert.Equal(t, Cell{Value: 8, HasData: true}, eu)

	us, found := grid.Lookup([]any{"US"}, []any{}, 0)
	require.True(t, found)
	assert.Equal(t, Cell{Value: 2, HasData: true}, us)
}

func TestAggregateRowsAndColumns(t *testing.T) {
	grid, err := Aggregate(
		salesRows,
		[]string{"region"},
		[]string{"product"},
		[]Measure{
			{Field: "qty", Aggregation: AggregationSum},
			{Field: "qty", Aggregation: AggregationCount},
		},
	)
	require.NoError(t, err)

	assert.Equal(t, [][]any{{"A"}, {"B"}}, grid.ColumnKeys)

	// US has no rows for product B
	usB, found := grid.Lookup([]any{"US"}, []any{"B"}, 0)
	require.True(t, found)
	assert.False(t, usB.HasData)
	usBCount, _ := grid.Lookup([]any{"US"}, []any{"B"}, 1)
	assert.False(t, usBCount.HasData)

	assert.Equal(t, []Cell{{Value: 8, HasData: true}, {Value: 2, HasData: true}}, grid.RowTotals[0])
	assert.Equal(t, []Cell{{Value: 2, HasData: true}, {Value: 1, HasData: true}}, grid.RowTotals[1])
}

func TestAggregateTotalWithoutKeys(t *testing.T) {
	rows := []results.Row{
		{"qty": 4.0},
		{"qty": nil},
		{"qty": "12"},
		{"qty": 2.0},
	}

	grid, err := Aggregate(rows, nil, nil, []Measure{
		{Field: "qty", Aggregation: AggregationSum},
		{Field: "qty", Aggregation: AggregationAverage},
		{Field: "qty", Aggregation: AggregationCount},
		{Field: "qty", Aggregation: AggregationMin},
		{Field: "qty", Aggregation: AggregationMax},
	})
	require.NoError(t, err)

	require.Len(t, grid.RowKeys, 1)
	require.Len(t, grid.ColumnKeys, 1)
	assert.Equal(t, []Cell{
		{Value: 6, HasData: true},
		{Value: 3, HasData: true}, // Divides by contributing values, not group size
		{Value: 4, HasData: true}, // Counts rows, including nil and non-numeric values
		{Value: 2, HasData: true},
		{Value: 4, HasData: true},
	}, grid.Cells[0][0])
}

func TestAggregateNoContributingValues(t *testing.T) {
	rows := []results.Row{{"region": "EU", "qty": nil}, {"region": "EU", "qty": "n/a"}}

	grid, err := Aggregate(rows, []string{"region"}, nil, []Measure{
		{Field: "qty", Aggregation: AggregationSum},
		{Field: "qty", Aggregation: AggregationAverage},
		{Field: "qty", Aggregation: AggregationCount},
	})
	require.NoError(t, err)

	assert.Equal(t, []Cell{{}, {}, {Value: 2, HasData: true}}, grid.Cells[0][0])
}

func TestAggregateNullsFormOwnGroup(t *testing.T) {
	rows := []results.Row{
		{"region": nil, "qty": 1},
		{"region": "null", "qty": 2},
		{"region": "", "qty": 3},
		{"region": nil, "qty": 4},
	}

	grid, err := Aggregate(
		rows, []string{"region"}, nil, []Measure{{Field: "qty", Aggregation: AggregationSum}},
	)
	require.NoError(t, err)

	assert.Equal(t, [][]any{{nil}, {"null"}, {""}}, grid.RowKeys)
	assert.Equal(t, 5.0, grid.Cells[0][0][0].Value)
}

func TestAggregateNumericKeysCompareByValue(t *testing.T) {
	rows := []results.Row{{"year": int64(2024), "qty": 1}, {"year": 2024.0, "qty": 2}}

	grid, err := Aggregate(
		rows, []string{"year"}, nil, []Measure{{Field: "qty", Aggregation: AggregationSum}},
	)
	require.NoError(t, err)

	require.Len(t, grid.RowKeys, 1)
	assert.Equal(t, 3.0, grid.Cells[0][0][0].Value)
}

func TestAggregateFirstSeenOrderAndPermutation(t *testing.T) {
	rows := []results.Row{
		{"region": "US", "qty": 2},
		{"region": "EU", "qty": 3},
		{"region": "APAC", "qty": 1},
		{"region": "EU", "qty": 5},
	}
	permuted := []results.Row{rows[3], rows[2], rows[0], rows[1]}
	measures := []Measure{{Field: "qty", Aggregation: AggregationSum}}

	grid, err := Aggregate(rows, []string{"region"}, nil, measures)
	require.NoError(t, err)
	permutedGrid, err := Aggregate(permuted, []string{"region"}, nil, measures)
	require.NoError(t, err)

	assert.Equal(t, [][]any{{"US"}, {"EU"}, {"APAC"}}, grid.RowKeys)
	assert.Equal(t, [][]any{{"EU"}, {"APAC"}, {"US"}}, permutedGrid.RowKeys)

	for _, region := range []string{"US", "EU", "APAC"} {
		cell, _ := grid.Lookup([]any{region}, []any{}, 0)
		permutedCell, _ := permutedGrid.Lookup([]any{region}, []any{}, 0)
		assert.Equal(t, cell, permutedCell, region)
	}

	again, err := Aggregate(rows, []string{"region"}, nil, measures)
	require.NoError(t, err)
	assert.Equal(t, grid, again)
}

func TestAggregateEmptyInput(t *testing.T) {
	grid, err := Aggregate(
		nil, []string{"does_not_exist"}, nil, []Measure{{Field: "x", Aggregation: AggregationSum}},
	)
	require.NoError(t, err)

	assert.True(t, grid.IsEmpty())
	assert.Empty(t, grid.ColumnKeys)
	assert.Empty(t, grid.Cells)
}

func TestAggregateInvalidConfig(t *testing.T) {
	tests := []struct {
		name     string
		rowKeys  []string
		colKeys  []string
		measures []Measure
		expected InvalidConfigError
	}{
		{
			name:     "unknown row key",
			rowKeys:  []string{"country"},
			expected: InvalidConfigError{Field: "country", Role: RoleRow},
		},
		{
			name:     "unknown column key",
			colKeys:  []string{"month"},
			expected: InvalidConfigError{Field: "month", Role: RoleColumn},
		},
		{
			name:     "unknown measure field",
			measures: []Measure{{Field: "price", Aggregation: AggregationAverage}},
			expected: InvalidConfigError{Field: "price", Role: RoleMeasure},
		},
		{
			name:     "blank measure field",
			measures: []Measure{{Aggregation: AggregationSum}},
			expected: InvalidConfigError{Role: RoleMeasure},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Aggregate(salesRows, tt.rowKeys, tt.colKeys, tt.measures)

			var configErr *InvalidConfigError
			require.True(t, errors.As(err, &configErr))
			assert.Equal(t, tt.expected, *configErr)
		})
	}
}

func TestAggregateRowCountWithoutField(t *testing.T) {
	grid, err := Aggregate(salesRows, []string{"region"}, nil, []Measure{RowCount})
	require.NoError(t, err)

	assert.Equal(t, 2.0, grid.Cells[0][0][0].Value)
	assert.Equal(t, 1.0, grid.Cells[1][0][0].Value)
}

func TestGridJSON(t *testing.T) {
	grid, err := Aggregate(
		salesRows,
		[]string{"region"},
		[]string{"product"},
		[]Measure{{Field: "qty", Aggregation: AggregationSum}},
	)
	require.NoError(t, err)

	encoded, err := json.Marshal(grid)
	require.NoError(t, err)

	var decoded struct {
		Measures []map[string]string `json:"measures"`
		Cells    [][][]*float64      `json:"cells"`
	}
	require.NoError(t, json.Unmarshal(encoded, &decoded))

	assert.Equal(t, []map[string]string{{"field": "qty", "agg": "sum"}}, decoded.Measures)
	assert.Nil(t, decoded.Cells[1][1][0])
	require.NotNil(t, decoded.Cells[0][1][0])
	assert.Equal(t, 5.0, *decoded.Cells[0][1][0])
}
