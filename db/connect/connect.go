package connect

import (
	"context"
	"fmt"

	"hermannm.dev/devlog/log"
	"hermannm.dev/widgets/config"
	"hermannm.dev/widgets/db"
	"hermannm.dev/widgets/db/clickhouse"
	"hermannm.dev/widgets/db/duckdb"
	"hermannm.dev/widgets/db/elasticsearch"
	"hermannm.dev/widgets/db/postgres"
	"hermannm.dev/widgets/db/sqlite"
	"hermannm.dev/wrap"
)

// Connects to the query database selected in config.
func NewQueryExecutor(ctx context.Context, cfg config.Config) (db.QueryExecutor, error) {
	log.Infof("Connecting to %s query database...", cfg.QueryDB)

	switch cfg.QueryDB {
	case config.DBSQLite:
		path := cfg.SQLite.Path
		if path == "" {
			path = cfg.StorePath
		}
		return sqlite.NewQueryExecutor(path)
	case config.DBDuckDB:
		return duckdb.NewQueryExecutor(ctx, cfg.DuckDB.Path)
	case config.DBPostgres:
		return postgres.NewQueryExecutor(ctx, cfg.Postgres.URL)
	case config.DBClickHouse:
		return clickhouse.NewQueryExecutor(ctx, cfg.ClickHouse)
	case config.DBElasticsearch:
		return elasticsearch.NewQueryExecutor(cfg.Elasticsearch)
	default:
		return nil, wrap.Error(
			fmt.Errorf("unsupported query database '%s'", cfg.QueryDB),
			"failed to connect to query database",
		)
	}
}

// Opens the report store and runs its migrations.
func OpenStore(cfg config.Config) (*sqlite.Store, error) {
	store, err := sqlite.Open(cfg.StorePath)
	if err != nil {
		return nil, wrap.Errorf(err, "failed to open report store at '%s'", cfg.StorePath)
	}

	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, wrap.Error(err, "failed to migrate report store")
	}

	return store, nil
}
