package duckdb

import (
	"context"
	"fmt"
	"math/big"

	"github.com/marcboeker/go-duckdb"
	"hermannm.dev/widgets/db/sqldb"
	"hermannm.dev/wrap"
)

// Opens the DuckDB database at the given path for running report queries. An empty path gives
// an in-memory database.
func NewQueryExecutor(ctx context.Context, path string) (sqldb.Executor, error) {
	executor, err := sqldb.Open("duckdb", path)
	if err != nil {
		return sqldb.Executor{}, wrap.Error(err, "failed to open DuckDB connection")
	}

	if err := executor.Ping(ctx); err != nil {
		_ = executor.Close()
		return sqldb.Executor{}, err
	}

	return executor.WithConverter(convertValue), nil
}

func convertValue(value any) any {
	switch value := value.(type) {
	case duckdb.Decimal:
		return value.Float64()
	case *big.Int:
		if value.IsInt64() {
			return value.Int64()
		}
		return value.String()
	case duckdb.Interval:
		return fmt.Sprintf("%d months %d days %d microseconds", value.Months, value.Days, value.Micros)
	case map[string]any, []any:
		return fmt.Sprint(value)
	default:
		return value
	}
}
