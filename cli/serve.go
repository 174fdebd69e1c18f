package cli

import (
	"context"

	"github.com/spf13/cobra"
	"hermannm.dev/devlog/log"
	"hermannm.dev/widgets/api"
	"hermannm.dev/widgets/config"
	"hermannm.dev/widgets/db"
	"hermannm.dev/widgets/db/sqlite"
	"hermannm.dev/wrap"
)

func newServeCommand(config config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), config)
		},
	}
}

func serve(ctx context.Context, config config.Config) error {
	return withDatabases(ctx, config, func(store *sqlite.Store, executor db.QueryExecutor) error {
		widgetAPI := api.NewWidgetAPI(executor, store, store, api.Config{Port: config.API.Port})

		log.Infof("Listening on port %s...", config.API.Port)
		if err := widgetAPI.ListenAndServe(); err != nil {
			return wrap.Error(err, "server stopped")
		}
		return nil
	})
}

func newMigrateCommand(config config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the report store schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(config, func(store *sqlite.Store) error {
				version, err := store.MigrationVersion()
				if err != nil {
					return err
				}

				cmd.Printf("Report store at '%s' is at schema version %d\n", config.StorePath, version)
				return nil
			})
		},
	}
}
