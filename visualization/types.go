package visualization

import (
	"hermannm.dev/enumnames"
)

type Type int8

const (
	TypeTable Type = iota + 1
	TypeBar
	TypeLine
	TypeArea
	TypePie
	TypeKPI
	TypeComposed
	TypeRadar
	TypeScatter
	TypePivot
	TypeText
)

var typeMap = enumnames.NewMap(map[Type]string{
	TypeTable:    "table",
	TypeBar:      "bar",
	TypeLine:     "line",
	TypeArea:     "area",
	TypePie:      "pie",
	TypeKPI:      "kpi",
	TypeComposed: "composed",
	TypeRadar:    "radar",
	TypeScatter:  "scatter",
	TypePivot:    "pivot",
	TypeText:     "text",
})

func (visualizationType Type) IsValid() bool {
	return typeMap.ContainsEnumValue(visualizationType)
}

func (visualizationType Type) String() string {
	return typeMap.GetNameOrFallback(visualizationType, "INVALID_VISUALIZATION_TYPE")
}

func (visualizationType Type) MarshalJSON() ([]byte, error) {
	return typeMap.MarshalToNameJSON(visualizationType)
}

func (visualizationType *Type) UnmarshalJSON(bytes []byte) error {
	return typeMap.UnmarshalFromNameJSON(bytes, visualizationType)
}

// Chart types sharing the axis-based configuration of ChartConfig.
func (visualizationType Type) IsAxisChart() bool {
	switch visualizationType {
	case TypeBar, TypeLine, TypeArea, TypePie, TypeComposed, TypeRadar:
		return true
	default:
		return false
	}
}

// Text widgets are authored without a SQL source.
func (visualizationType Type) NeedsSource() bool {
	return visualizationType != TypeText
}
