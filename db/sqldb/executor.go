package sqldb

import (
	"context"
	"database/sql"
	"log/slog"

	"hermannm.dev/devlog/log"
	"hermannm.dev/widgets/db"
	"hermannm.dev/widgets/results"
	"hermannm.dev/wrap"
)

// Implements db.QueryExecutor for any database/sql driver.
type Executor struct {
	db *sql.DB
	// Name of the backend, for logs.
	name    string
	convert ValueConverter
}

// Converts a driver-specific value into a plain scalar. Runs after results.Normalize.
type ValueConverter func(value any) any

func NewExecutor(sqlDB *sql.DB, name string) Executor {
	return Executor{db: sqlDB, name: name}
}

func (executor Executor) WithConverter(convert ValueConverter) Executor {
	executor.convert = convert
	return executor
}

func Open(driverName string, dataSourceName string) (Executor, error) {
	sqlDB, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return Executor{}, wrap.Errorf(err, "failed to open %s database", driverName)
	}
	return NewExecutor(sqlDB, driverName), nil
}

func (executor Executor) Execute(ctx context.Context, sql string) (results.Set, error) {
	log.Debug("executing query", slog.String("backend", executor.name), slog.String("query", sql))

	rows, err := executor.db.QueryContext(ctx, sql)
	if err != nil {
		return results.Set{}, db.NewQueryError(err)
	}
	defer rows.Close()

	set, err := ScanRows(rows, executor.convert)
	if err != nil {
		return results.Set{}, db.NewQueryError(err)
	}
	return set, nil
}

func (executor Executor) Ping(ctx context.Context) error {
	if err := executor.db.PingContext(ctx); err != nil {
		return wrap.Errorf(err, "failed to ping %s database", executor.name)
	}
	return nil
}

func (executor Executor) Close() error {
	return executor.db.Close()
}

// Reads all remaining rows into a result set, normalizing driver values to plain scalars.
// Duplicate column names keep the value of the last column with that name. convert may be nil.
func ScanRows(rows *sql.Rows, convert ValueConverter) (results.Set, error) {
	columns, err := rows.Columns()
	if err != nil {
		return results.Set{}, wrap.Error(err, "failed to get result columns")
	}

	set := results.Set{Columns: columns, Rows: []results.Row{}}

	values := make([]any, len(columns))
	valuePointers := make([]any, len(columns))
	for i := range values {
		valuePointers[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(valuePointers...); err != nil {
			return results.Set{}, wrap.Errorf(err, "failed to scan result row %d", len(set.Rows))
		}

		row := make(results.Row, len(columns))
		for i, column := range columns {
			value := results.Normalize(values[i])
			if convert != nil {
				value = convert(value)
			}
			row[column] = value
		}
		set.Rows = append(set.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return results.Set{}, err
	}

	return set, nil
}
