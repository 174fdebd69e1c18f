package cli

import (
	"os"

	"github.com/spf13/cobra"
	"hermannm.dev/widgets/config"
	"hermannm.dev/widgets/db"
	"hermannm.dev/widgets/db/sqlite"
	"hermannm.dev/widgets/export"
	"hermannm.dev/widgets/pivot"
	"hermannm.dev/widgets/results"
	"hermannm.dev/wrap"
)

func newExportCommand(config config.Config) *cobra.Command {
	var formatName string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export <report-id>",
		Short: "Run a saved report and write its data to a CSV or XLSX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}

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

					path := outputPath
					if path == "" {
						path = reportFilename(saved, format)
					}
					if path == "-" {
						return export.Write(cmd.OutOrStdout(), format, set, grid)
					}

					if err := writeFile(path, format, set, grid); err != nil {
						return err
					}
					cmd.Printf("Exported report '%s' to %s\n", saved.Name, path)
					return nil
				},
			)
		},
	}

	cmd.Flags().StringVarP(&formatName, "format", "f", "csv", "export format (csv or xlsx)")
	cmd.Flags().StringVarP(
		&outputPath, "out", "o", "", "output file, or - for stdout (default: <report name>.<format>)",
	)

	return cmd
}

func writeFile(
	path string,
	format export.Format,
	set results.Set,
	grid *pivot.Grid,
) (returnedErr error) {
	file, err := os.Create(path)
	if err != nil {
		return wrap.Errorf(err, "failed to create export file '%s'", path)
	}
	defer func() {
		if err := file.Close(); err != nil && returnedErr == nil {
			returnedErr = wrap.Errorf(err, "failed to close export file '%s'", path)
		}
	}()

	return export.Write(file, format, set, grid)
}
