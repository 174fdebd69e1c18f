package builder

import (
	"hermannm.dev/enumnames"
)

type Step int8

const (
	StepStart Step = iota + 1
	StepSourceAndRun
	StepVisualize
	StepFinalize
)

var stepMap = enumnames.NewMap(map[Step]string{
	StepStart:        "start",
	StepSourceAndRun: "sourceAndRun",
	StepVisualize:    "visualize",
	StepFinalize:     "finalize",
})

func (step Step) IsValid() bool {
	return stepMap.ContainsEnumValue(step)
}

func (step Step) String() string {
	return stepMap.GetNameOrFallback(step, "INVALID_STEP")
}

func (step Step) MarshalJSON() ([]byte, error) {
	return stepMap.MarshalToNameJSON(step)
}

func (step *Step) UnmarshalJSON(bytes []byte) error {
	return stepMap.UnmarshalFromNameJSON(bytes, step)
}

// Which gates of the guided workflow the current draft satisfies. Each gate is computed
// independently; ReachableStep combines them in order.
type Readiness struct {
	// An entry choice has been made (new or existing report).
	Entry bool `json:"entry"`
	// The SQL matches the selected source, and its last run succeeded on exactly the current SQL.
	// Always true for text widgets, which have no source.
	Source bool `json:"source"`
	// The current visualization config is renderable against the current result.
	Visualization       bool   `json:"visualization"`
	VisualizationReason string `json:"visualizationReason,omitempty"`
	// The widget has a non-blank name.
	Name bool `json:"name"`
}

// The furthest step whose gates, and the gates of all steps before it, are satisfied. The final
// step also requires a name.
func (readiness Readiness) ReachableStep() Step {
	reachable := StepStart
	gates := []bool{readiness.Entry, readiness.Source, readiness.Visualization && readiness.Name}
	for _, satisfied := range gates {
		if !satisfied {
			break
		}
		reachable++
	}
	return reachable
}

func (readiness Readiness) CanFinish() bool {
	return readiness.ReachableStep() == StepFinalize
}
