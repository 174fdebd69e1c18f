package builder

import (
	"errors"
	"fmt"

	"hermannm.dev/devlog/log"
	"hermannm.dev/widgets/pivot"
	"hermannm.dev/widgets/results"
	"hermannm.dev/widgets/visualization"
)

// What the visualize step renders for the current draft.
type Preview struct {
	// Incremented each time the preview is applied, so a presentation layer knows to re-render
	// even if nothing else changed.
	Revision int                   `json:"revision"`
	Verdict  visualization.Verdict `json:"verdict"`
	Grid     *pivot.Grid           `json:"grid,omitempty"`
	KPI      *KPIPreview           `json:"kpi,omitempty"`
}

type KPIPreview struct {
	Value any    `json:"value"`
	Color string `json:"color,omitempty"`
}

func (session *Session) Preview() Preview {
	verdict, grid := session.checkVisualization()

	preview := Preview{Revision: session.previewRevision, Verdict: verdict, Grid: grid}
	if !verdict.Ready {
		return preview
	}

	if config, ok := session.draft.Visualization.(visualization.KPIConfig); ok {
		if value, ok := visualization.KPIValue(session.draft.CurrentResult()); ok {
			color, _ := config.Evaluate(value)
			preview.KPI = &KPIPreview{Value: value, Color: color}
		}
	}

	return preview
}

// Checks the visualization against the current result. Pivots are also aggregated here, since a
// pivot naming fields that the result lacks cannot be rendered.
func (session *Session) checkVisualization() (visualization.Verdict, *pivot.Grid) {
	draft := session.draft
	result := draft.CurrentResult()

	verdict := visualization.Check(draft.Visualization, result, results.NumericColumns(result))
	if !verdict.Ready {
		return verdict, nil
	}

	config, ok := draft.Visualization.(visualization.PivotConfig)
	if !ok {
		return verdict, nil
	}

	grid, err := pivot.Aggregate(result.Rows, config.Rows, config.Columns, config.PreviewMeasures())
	if err != nil {
		var invalidErr *pivot.InvalidConfigError
		if !errors.As(err, &invalidErr) {
			log.ErrorCause(err, "failed to aggregate pivot preview")
		}
		return visualization.Verdict{
			Ready:  false,
			Reason: fmt.Sprintf("not renderable: %s", err.Error()),
		}, nil
	}

	return verdict, &grid
}
