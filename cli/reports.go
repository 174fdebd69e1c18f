package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"hermannm.dev/widgets/config"
	"hermannm.dev/widgets/db"
	"hermannm.dev/widgets/db/sqlite"
	"hermannm.dev/widgets/export"
	"hermannm.dev/widgets/report"
)

func newReportsCommand(config config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Manage saved reports",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List saved reports, most recently updated first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withStore(config, func(store *sqlite.Store) error {
					reports, err := store.ListReports(cmd.Context())
					if err != nil {
						return err
					}

					if len(reports) == 0 {
						cmd.Println("No saved reports")
						return nil
					}

					writer := newTable(cmd.OutOrStdout())
					writer.AppendHeader(table.Row{"ID", "Name", "Type", "Statement", "Updated"})
					for _, saved := range reports {
						writer.AppendRow(table.Row{
							saved.ID,
							saved.Name,
							visualizationType(saved.Report),
							statementRef(saved.Report),
							saved.UpdatedAt.Local().Format("2006-01-02 15:04"),
						})
					}
					writer.Render()
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "run <report-id>",
			Short: "Run a saved report's query and print its data",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDatabases(
					cmd.Context(),
					config,
					func(store *sqlite.Store, executor db.QueryExecutor) error {
						saved, err := store.GetReport(cmd.Context(), args[0])
						if err != nil {
							return err
						}

						set, grid, err := export.LoadReportData(cmd.Context(), executor, saved.Report)
						if err != nil {
							return err
						}

						writer := newTable(cmd.OutOrStdout())
						writer.SetTitle(saved.Name)

						if grid != nil {
							pivotTable := export.FlattenPivot(*grid)
							writer.AppendHeader(toTableRow(pivotTable.Header))
							for _, row := range pivotTable.Rows {
								writer.AppendRow(formatRow(row))
							}
						} else {
							writer.AppendHeader(toTableRow(set.Columns))
							for _, row := range set.Rows {
								values := make([]any, len(set.Columns))
								for i, column := range set.Columns {
									values[i] = row[column]
								}
								writer.AppendRow(formatRow(values))
							}
						}

						writer.Render()
						cmd.Printf("(%d rows)\n", len(set.Rows))
						return nil
					},
				)
			},
		},
		&cobra.Command{
			Use:   "delete <report-id>",
			Short: "Delete a saved report",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(config, func(store *sqlite.Store) error {
					if err := store.DeleteReport(cmd.Context(), args[0]); err != nil {
						return err
					}

					cmd.Printf("Deleted report '%s'\n", args[0])
					return nil
				})
			},
		},
	)

	return cmd
}

func visualizationType(saved report.Report) string {
	if saved.Visualization.Config == nil {
		return ""
	}
	return saved.Visualization.Config.Type().String()
}

func statementRef(saved report.Report) string {
	if saved.StatementRef == nil {
		return "(inline)"
	}
	return *saved.StatementRef
}

func toTableRow(names []string) table.Row {
	row := make(table.Row, len(names))
	for i, name := range names {
		row[i] = name
	}
	return row
}

func formatRow(values []any) table.Row {
	row := make(table.Row, len(values))
	for i, value := range values {
		if value == nil {
			row[i] = "NULL"
		} else {
			row[i] = export.FormatValue(value)
		}
	}
	return row
}

func reportFilename(saved report.SavedReport, format export.Format) string {
	name := saved.Name
	if name == "" {
		name = saved.ID
	}
	return fmt.Sprintf("%s%s", name, format.FileExtension())
}
