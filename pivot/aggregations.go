package pivot

import (
	"math"

	"hermannm.dev/enumnames"
	"hermannm.dev/widgets/results"
)

type Aggregation int8

const (
	AggregationSum Aggregation = iota + 1
	AggregationCount
	AggregationAverage
	AggregationMin
	AggregationMax
)

var aggregationMap = enumnames.NewMap(map[Aggregation]string{
	AggregationSum:     "sum",
	AggregationCount:   "count",
	AggregationAverage: "avg",
	AggregationMin:     "min",
	AggregationMax:     "max",
})

func (aggregation Aggregation) IsValid() bool {
	return aggregationMap.ContainsEnumValue(aggregation)
}

func (aggregation Aggregation) String() string {
	return aggregationMap.GetNameOrFallback(aggregation, "INVALID_AGGREGATION")
}

func (aggregation Aggregation) MarshalJSON() ([]byte, error) {
	return aggregationMap.MarshalToNameJSON(aggregation)
}

func (aggregation *Aggregation) UnmarshalJSON(bytes []byte) error {
	return aggregationMap.UnmarshalFromNameJSON(bytes, aggregation)
}

type Measure struct {
	Field       string      `json:"field"`
	Aggregation Aggregation `json:"agg"`
}

// Column header for the measure, e.g. "sum(qty)". A row count without a field is just "count".
func (measure Measure) Label() string {
	if measure.Field == "" {
		return measure.Aggregation.String()
	}
	return measure.Aggregation.String() + "(" + measure.Field + ")"
}

// A row count over the whole group, used when a pivot has no measures configured.
var RowCount = Measure{Aggregation: AggregationCount}

// Accumulates values for a single measure within a single grid cell.
type accumulator struct {
	aggregation Aggregation
	rows        int
	contributed int
	sum         float64
	min         float64
	max         float64
}

func newAccumulator(aggregation Aggregation) *accumulator {
	return &accumulator{aggregation: aggregation, min: math.Inf(1), max: math.Inf(-1)}
}

func (acc *accumulator) add(value any) {
	acc.rows++

	number, ok := results.AsNumeric(value)
	if !ok || math.IsNaN(number) {
		return
	}

	acc.contributed++
	acc.sum += number
	acc.min = math.Min(acc.min, number)
	acc.max = math.Max(acc.max, number)
}

func (acc *accumulator) result() Cell {
	if acc.aggregation == AggregationCount {
		return Cell{Value: float64(acc.rows), HasData: acc.rows > 0}
	}

	if acc.contributed == 0 {
		return Cell{}
	}

	switch acc.aggregation {
	case AggregationSum:
		return Cell{Value: acc.sum, HasData: true}
	case AggregationAverage:
		return Cell{Value: acc.sum / float64(acc.contributed), HasData: true}
	case AggregationMin:
		return Cell{Value: acc.min, HasData: true}
	case AggregationMax:
		return Cell{Value: acc.max, HasData: true}
	default:
		return Cell{}
	}
}
