package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
	"hermannm.dev/wrap"
)

type Config struct {
	BaseConfig
	SQLite        SQLite
	DuckDB        DuckDB
	Postgres      Postgres
	ClickHouse    ClickHouse
	Elasticsearch Elasticsearch
}

type BaseConfig struct {
	IsProduction bool        `env:"PRODUCTION"     envDefault:"false"`
	LogLevel     LogLevel    `env:"LOG_LEVEL"      envDefault:"INFO"`
	QueryDB      SupportedDB `env:"QUERY_DATABASE" envDefault:"sqlite"`
	// SQLite file holding saved reports and the statement library.
	StorePath string `env:"STORE_PATH" envDefault:"widgets.db"`
	API       API
}

type API struct {
	Port string `env:"API_PORT" envDefault:"8000"`
}

type SQLite struct {
	// Empty to query the store database itself.
	Path string `env:"SQLITE_QUERY_PATH" envDefault:""`
}

type DuckDB struct {
	// Empty for an in-memory database.
	Path string `env:"DUCKDB_PATH" envDefault:""`
}

type Postgres struct {
	URL string `env:"POSTGRES_URL"`
}

type ClickHouse struct {
	Address      string `env:"CLICKHOUSE_ADDRESS"`
	DatabaseName string `env:"CLICKHOUSE_DB_NAME"`
	Username     string `env:"CLICKHOUSE_USERNAME"`
	Password     string `env:"CLICKHOUSE_PASSWORD"`
	Debug        bool   `env:"CLICKHOUSE_DEBUG_ENABLED" envDefault:"false"`
}

type Elasticsearch struct {
	Address string `env:"ELASTICSEARCH_ADDRESS"`
	Debug   bool   `env:"ELASTICSEARCH_DEBUG_ENABLED" envDefault:"false"`
}

type SupportedDB string

const (
	DBSQLite        SupportedDB = "sqlite"
	DBDuckDB        SupportedDB = "duckdb"
	DBPostgres      SupportedDB = "postgres"
	DBClickHouse    SupportedDB = "clickhouse"
	DBElasticsearch SupportedDB = "elasticsearch"
)

var supportedDBs = []SupportedDB{DBSQLite, DBDuckDB, DBPostgres, DBClickHouse, DBElasticsearch}

type LogLevel string

func (level LogLevel) SlogLevel() (slog.Level, error) {
	var slogLevel slog.Level
	if err := slogLevel.UnmarshalText([]byte(level)); err != nil {
		return 0, wrap.Errorf(err, "invalid log level '%s'", level)
	}
	return slogLevel, nil
}

// Reads config from environment variables, loading them from a .env file first if there is one.
func ReadFromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, wrap.Error(err, "failed to load .env file")
	}

	return Parse()
}

// Parses config from the current environment variables.
func Parse() (Config, error) {
	parseOptions := env.Options{RequiredIfNoDef: true}

	var config Config

	if err := env.ParseWithOptions(&config.BaseConfig, parseOptions); err != nil {
		return Config{}, err
	}

	if _, err := config.LogLevel.SlogLevel(); err != nil {
		return Config{}, wrap.Error(err, "invalid LOG_LEVEL in env")
	}

	var dbConfig any
	switch config.QueryDB {
	case DBSQLite:
		dbConfig = &config.SQLite
	case DBDuckDB:
		dbConfig = &config.DuckDB
	case DBPostgres:
		dbConfig = &config.Postgres
	case DBClickHouse:
		dbConfig = &config.ClickHouse
	case DBElasticsearch:
		dbConfig = &config.Elasticsearch
	default:
		names := make([]string, len(supportedDBs))
		for i, db := range supportedDBs {
			names[i] = fmt.Sprintf("'%s'", db)
		}
		err := fmt.Errorf("must be one of: %s", strings.Join(names, ", "))
		return Config{}, wrap.Errorf(
			err, "unsupported value '%s' for QUERY_DATABASE in env", config.QueryDB,
		)
	}

	if err := env.ParseWithOptions(dbConfig, parseOptions); err != nil {
		return Config{}, wrap.Errorf(err, "invalid %s config in env", config.QueryDB)
	}

	return config, nil
}
