package visualization

import (
	"hermannm.dev/enumnames"
	"hermannm.dev/widgets/results"
)

type Operator int8

const (
	OperatorGreater Operator = iota + 1
	OperatorLess
	OperatorGreaterOrEqual
	OperatorLessOrEqual
	OperatorEqual
)

var operatorMap = enumnames.NewMap(map[Operator]string{
	OperatorGreater:        ">",
	OperatorLess:           "<",
	OperatorGreaterOrEqual: ">=",
	OperatorLessOrEqual:    "<=",
	OperatorEqual:          "==",
})

func (operator Operator) IsValid() bool {
	return operatorMap.ContainsEnumValue(operator)
}

func (operator Operator) String() string {
	return operatorMap.GetNameOrFallback(operator, "INVALID_OPERATOR")
}

func (operator Operator) MarshalJSON() ([]byte, error) {
	return operatorMap.MarshalToNameJSON(operator)
}

func (operator *Operator) UnmarshalJSON(bytes []byte) error {
	return operatorMap.UnmarshalFromNameJSON(bytes, operator)
}

type KPIRule struct {
	Operator  Operator `json:"operator"`
	Threshold float64  `json:"threshold"`
	Color     string   `json:"color"`
}

func (rule KPIRule) Matches(value float64) bool {
	switch rule.Operator {
	case OperatorGreater:
		return value > rule.Threshold
	case OperatorLess:
		return value < rule.Threshold
	case OperatorGreaterOrEqual:
		return value >= rule.Threshold
	case OperatorLessOrEqual:
		return value <= rule.Threshold
	case OperatorEqual:
		return value == rule.Threshold
	default:
		return false
	}
}

// Returns the color of the first rule matching the given KPI value.
func (config KPIConfig) Evaluate(value any) (color string, matched bool) {
	number, ok := results.ToNumber(value)
	if !ok {
		return "", false
	}

	for _, rule := range config.Rules {
		if rule.Matches(number) {
			return rule.Color, true
		}
	}
	return "", false
}

// The value shown by a KPI widget: the first column of the first result row.
func KPIValue(set results.Set) (value any, ok bool) {
	if len(set.Rows) == 0 || len(set.Columns) == 0 {
		return nil, false
	}
	return set.Rows[0][set.Columns[0]], true
}
