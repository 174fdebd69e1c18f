package export

import (
	"context"
	"errors"

	"hermannm.dev/widgets/db"
	"hermannm.dev/widgets/pivot"
	"hermannm.dev/widgets/report"
	"hermannm.dev/widgets/results"
	"hermannm.dev/widgets/visualization"
	"hermannm.dev/wrap"
)

var ErrTextReport = errors.New("text reports have no data to export")

// Runs the saved report's SQL, and aggregates its pivot grid if the report is a pivot.
func LoadReportData(
	ctx context.Context,
	executor db.QueryExecutor,
	saved report.Report,
) (set results.Set, grid *pivot.Grid, err error) {
	config := saved.Visualization.Config
	if config != nil && config.Type() == visualization.TypeText {
		return results.Set{}, nil, ErrTextReport
	}

	set, err = executor.Execute(ctx, saved.SQL)
	if err != nil {
		return results.Set{}, nil, wrap.Errorf(err, "failed to run query for report '%s'", saved.Name)
	}

	if pivotConfig, ok := config.(visualization.PivotConfig); ok {
		aggregated, err := pivot.Aggregate(
			set.Rows, pivotConfig.Rows, pivotConfig.Columns, pivotConfig.PreviewMeasures(),
		)
		if err != nil {
			return results.Set{}, nil, wrap.Errorf(
				err, "failed to aggregate pivot for report '%s'", saved.Name,
			)
		}
		grid = &aggregated
	}

	return set, grid, nil
}
