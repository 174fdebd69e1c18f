package results

import (
	"time"

	"hermannm.dev/enumnames"
)

type DataType int8

const (
	DataTypeEmpty DataType = iota + 1
	DataTypeNumber
	DataTypeText
	DataTypeBoolean
	DataTypeTimestamp
	DataTypeMixed
)

var dataTypeMap = enumnames.NewMap(map[DataType]string{
	DataTypeEmpty:     "EMPTY",
	DataTypeNumber:    "NUMBER",
	DataTypeText:      "TEXT",
	DataTypeBoolean:   "BOOLEAN",
	DataTypeTimestamp: "TIMESTAMP",
	DataTypeMixed:     "MIXED",
})

func (dataType DataType) IsValid() bool {
	return dataTypeMap.ContainsEnumValue(dataType)
}

func (dataType DataType) String() string {
	return dataTypeMap.GetNameOrFallback(dataType, "INVALID_DATA_TYPE")
}

func (dataType DataType) MarshalJSON() ([]byte, error) {
	return dataTypeMap.MarshalToNameJSON(dataType)
}

func (dataType *DataType) UnmarshalJSON(bytes []byte) error {
	return dataTypeMap.UnmarshalFromNameJSON(bytes, dataType)
}

type Column struct {
	Name     string   `json:"name"`
	DataType DataType `json:"dataType"`
	Optional bool     `json:"optional"`
}

// Deduces the data type of each column in the set from the values in its rows. A column whose
// non-nil values disagree on type is MIXED; a column with no non-nil values is EMPTY.
func DeduceColumns(set Set) []Column {
	columns := make([]Column, 0, len(set.Columns))

	for _, name := range set.Columns {
		column := Column{Name: name, DataType: DataTypeEmpty}

		for _, row := range set.Rows {
			value, ok := row[name]
			if !ok || value == nil {
				column.Optional = true
				continue
			}

			deducedType := deduceDataType(value)
			if column.DataType == DataTypeEmpty {
				column.DataType = deducedType
			} else if column.DataType != deducedType {
				column.DataType = DataTypeMixed
			}
		}

		columns = append(columns, column)
	}

	return columns
}

// Returns the names of columns whose values are all native numbers, in column order.
func NumericColumns(set Set) []string {
	var numeric []string
	for _, column := range DeduceColumns(set) {
		if column.DataType == DataTypeNumber {
			numeric = append(numeric, column.Name)
		}
	}
	return numeric
}

func deduceDataType(value any) DataType {
	if _, ok := AsNumeric(value); ok {
		return DataTypeNumber
	}

	switch value.(type) {
	case bool:
		return DataTypeBoolean
	case time.Time:
		return DataTypeTimestamp
	default:
		return DataTypeText
	}
}
