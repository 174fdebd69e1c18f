// Package cli implements the widgets command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"hermannm.dev/widgets/config"
	"hermannm.dev/widgets/db"
	"hermannm.dev/widgets/db/connect"
	"hermannm.dev/widgets/db/sqlite"
	"hermannm.dev/wrap"
)

func NewRootCommand(config config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "widgets",
		Short: "Build, save and export SQL report widgets",
		Long: `Widgets turns SQL query results into saved, named report widgets.

Running without a subcommand starts the HTTP API, like 'widgets serve'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), config)
		},
	}

	root.AddCommand(
		newServeCommand(config),
		newMigrateCommand(config),
		newReportsCommand(config),
		newStatementsCommand(config),
		newExportCommand(config),
	)

	return root
}

// Opens the report store for the duration of the given function.
func withStore(config config.Config, run func(store *sqlite.Store) error) (returnedErr error) {
	store, err := connect.OpenStore(config)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil && returnedErr == nil {
			returnedErr = wrap.Error(err, "failed to close report store")
		}
	}()

	return run(store)
}

// Opens the report store and connects to the query database for the duration of the given
// function.
func withDatabases(
	ctx context.Context,
	config config.Config,
	run func(store *sqlite.Store, executor db.QueryExecutor) error,
) error {
	return withStore(config, func(store *sqlite.Store) (returnedErr error) {
		executor, err := connect.NewQueryExecutor(ctx, config)
		if err != nil {
			return err
		}
		defer func() {
			if err := executor.Close(); err != nil && returnedErr == nil {
				returnedErr = wrap.Error(err, "failed to close query database connection")
			}
		}()

		return run(store, executor)
	})
}

func newTable(output io.Writer) table.Writer {
	writer := table.NewWriter()
	writer.SetOutputMirror(output)
	writer.SetStyle(table.StyleLight)
	return writer
}
