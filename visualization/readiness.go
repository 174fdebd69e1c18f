package visualization

import (
	"slices"
	"strings"

	"hermannm.dev/widgets/results"
)

// Whether a visualization config can be rendered against a result set, with a reason for the UI
// when it cannot.
type Verdict struct {
	Ready  bool   `json:"ready"`
	Reason string `json:"reason,omitempty"`
}

const (
	ReasonNoConfig        = "no visualization selected"
	ReasonNoTextContent   = "text content is empty"
	ReasonNoRows          = "query returned no rows"
	ReasonNoXAxis         = "no x-axis selected"
	ReasonNoYAxis         = "no y-axis selected"
	ReasonNonNumericAxis  = "scatter axes must be numeric columns"
	ReasonNoPlottablePair = "selected axes have no plottable values"
	ReasonUnknownType     = "unsupported visualization type"
)

// Returns true if the config has enough information to render a non-empty visualization from
// the given result set. numericColumns lists the columns of the set that hold numbers.
func IsReady(config Config, set results.Set, numericColumns []string) bool {
	return Check(config, set, numericColumns).Ready
}

func Check(config Config, set results.Set, numericColumns []string) Verdict {
	switch config := config.(type) {
	case nil:
		return notReady(ReasonNoConfig)
	case TextConfig:
		if strings.TrimSpace(config.Content) == "" {
			return notReady(ReasonNoTextContent)
		}
		return Verdict{Ready: true}
	case TableConfig, PivotConfig, KPIConfig:
		if set.IsEmpty() {
			return notReady(ReasonNoRows)
		}
		return Verdict{Ready: true}
	case ScatterConfig:
		return checkScatter(config, set, numericColumns)
	case ChartConfig:
		return checkChart(config, set)
	default:
		return notReady(ReasonUnknownType)
	}
}

func checkChart(config ChartConfig, set results.Set) Verdict {
	if config.XAxis == "" {
		return notReady(ReasonNoXAxis)
	}
	if len(config.YAxes) == 0 {
		return notReady(ReasonNoYAxis)
	}

	for _, row := range set.Rows {
		if !results.IsPresent(row, config.XAxis) {
			continue
		}
		for _, yAxis := range config.YAxes {
			if results.IsPresent(row, yAxis) {
				return Verdict{Ready: true}
			}
		}
	}

	return notReady(ReasonNoPlottablePair)
}

func checkScatter(config ScatterConfig, set results.Set, numericColumns []string) Verdict {
	if config.XAxis == "" {
		return notReady(ReasonNoXAxis)
	}
	if len(config.YAxes) == 0 {
		return notReady(ReasonNoYAxis)
	}

	yAxis := config.YAxes[0]
	if !slices.Contains(numericColumns, config.XAxis) || !slices.Contains(numericColumns, yAxis) {
		return notReady(ReasonNonNumericAxis)
	}

	for _, row := range set.Rows {
		_, xOK := results.ToNumber(row[config.XAxis])
		_, yOK := results.ToNumber(row[yAxis])
		if xOK && yOK {
			return Verdict{Ready: true}
		}
	}

	return notReady(ReasonNoPlottablePair)
}

func notReady(reason string) Verdict {
	return Verdict{Ready: false, Reason: reason}
}
