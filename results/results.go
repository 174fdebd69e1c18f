package results

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// A single result row, mapping column names to scalar values (numbers, strings, booleans, nil).
type Row map[string]any

// Ordered result rows sharing the same column set, as returned by a query executor.
type Set struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

func (set Set) IsEmpty() bool {
	return len(set.Rows) == 0
}

// Returns true if the row has the column, and its value is neither nil nor an empty string.
func IsPresent(row Row, column string) bool {
	value, ok := row[column]
	if !ok || value == nil {
		return false
	}
	if str, isString := value.(string); isString && str == "" {
		return false
	}
	return true
}

// Returns the value as float64 if it is a native number. Strings are never treated as numbers
// here, even if they look numeric.
func AsNumeric(value any) (number float64, ok bool) {
	switch value := value.(type) {
	case int:
		return float64(value), true
	case int8:
		return float64(value), true
	case int16:
		return float64(value), true
	case int32:
		return float64(value), true
	case int64:
		return float64(value), true
	case uint:
		return float64(value), true
	case uint8:
		return float64(value), true
	case uint16:
		return float64(value), true
	case uint32:
		return float64(value), true
	case uint64:
		return float64(value), true
	case float32:
		return float64(value), true
	case float64:
		return value, true
	case json.Number:
		parsed, err := value.Float64()
		return parsed, err == nil
	default:
		return 0, false
	}
}

// Coerces the value to a finite number, parsing strings and mapping booleans to 0/1. Returns
// ok=false for nil, unparsable or non-finite values, so callers can drop them instead of
// zero-filling.
func ToNumber(value any) (number float64, ok bool) {
	if numeric, isNumeric := AsNumeric(value); isNumeric {
		number = numeric
	} else {
		switch value := value.(type) {
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil {
				return 0, false
			}
			number = parsed
		case bool:
			if value {
				number = 1
			}
		default:
			return 0, false
		}
	}

	if math.IsNaN(number) || math.IsInf(number, 0) {
		return 0, false
	}
	return number, true
}

// Converts driver-specific scan values into the plain scalars a Row holds.
func Normalize(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case []byte:
		return string(typed)
	case [16]byte:
		return uuid.UUID(typed).String()
	case uuid.UUID:
		return typed.String()
	}

	reflected := reflect.ValueOf(value)
	if reflected.Kind() != reflect.Pointer {
		return value
	}
	for reflected.Kind() == reflect.Pointer {
		if reflected.IsNil() {
			return nil
		}
		reflected = reflected.Elem()
	}

	return Normalize(reflected.Interface())
}
