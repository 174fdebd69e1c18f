package results

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIsPresent(t *testing.T) {
	row := Row{"a": 1, "b": nil, "c": "", "d": "x", "e": false}

	assert.True(t, IsPresent(row, "a"))
	assert.False(t, IsPresent(row, "b"))
	assert.False(t, IsPresent(row, "c"))
	assert.True(t, IsPresent(row, "d"))
	assert.True(t, IsPresent(row, "e"))
	assert.False(t, IsPresent(row, "missing"))
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected float64
		ok       bool
	}{
		{"int", int64(3), 3, true},
		{"float", 2.5, 2.5, true},
		{"numeric string", " 4.5 ", 4.5, true},
		{"text", "abc", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 1, true},
		{"NaN", math.NaN(), 0, false},
		{"infinity", math.Inf(1), 0, false},
		{"json number", json.Number("7"), 7, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			number, ok := ToNumber(tt.value)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, number)
		})
	}
}

func TestAsNumericRejectsNumericStrings(t *testing.T) {
	_, ok := AsNumeric("42")
	assert.False(t, ok)

	number, ok := AsNumeric(uint16(42))
	assert.True(t, ok)
	assert.Equal(t, 42.0, number)
}

func TestNormalize(t *testing.T) {
	id := uuid.New()
	count := int64(5)
	var nilCount *int64
	name := "EU"
	namePointer := &name

	assert.Equal(t, "raw", Normalize([]byte("raw")))
	assert.Equal(t, id.String(), Normalize([16]byte(id)))
	assert.Equal(t, int64(5), Normalize(&count))
	assert.Nil(t, Normalize(nilCount))
	assert.Equal(t, "EU", Normalize(&namePointer))
	assert.Equal(t, []int{1}, Normalize([]int{1}))
}

func TestDeduceColumns(t *testing.T) {
	set := Set{
		Columns: []string{"region", "qty", "amount", "active", "at", "blank", "mixed"},
		Rows: []Row{
			{
				"region": "EU", "qty": int64(3), "amount": "1.5", "active": true,
				"at": time.Now(), "blank": nil, "mixed": 1,
			},
			{
				"region": "US", "qty": nil, "amount": "2", "active": false,
				"at": time.Now(), "blank": nil, "mixed": "one",
			},
		},
	}

	columns := DeduceColumns(set)

	assert.Equal(t, []Column{
		{Name: "region", DataType: DataTypeText},
		{Name: "qty", DataType: DataTypeNumber, Optional: true},
		{Name: "amount", DataType: DataTypeText},
		{Name: "active", DataType: DataTypeBoolean},
		{Name: "at", DataType: DataTypeTimestamp},
		{Name: "blank", DataType: DataTypeEmpty, Optional: true},
		{Name: "mixed", DataType: DataTypeMixed},
	}, columns)

	assert.Equal(t, []string{"qty"}, NumericColumns(set))
}
