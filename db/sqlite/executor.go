package sqlite

import (
	"hermannm.dev/widgets/db/sqldb"
	"hermannm.dev/wrap"
)

// Opens a SQLite database for running report queries against. The report store and the queried
// data may live in the same file.
func NewQueryExecutor(path string) (sqldb.Executor, error) {
	executor, err := sqldb.Open("sqlite", path)
	if err != nil {
		return sqldb.Executor{}, wrap.Error(err, "failed to open SQLite query database")
	}
	return executor, nil
}
