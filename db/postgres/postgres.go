package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"hermannm.dev/devlog/log"
	"hermannm.dev/widgets/db"
	"hermannm.dev/widgets/results"
	"hermannm.dev/wrap"
)

// Implements db.QueryExecutor for PostgreSQL.
type Executor struct {
	pool *pgxpool.Pool
}

func NewQueryExecutor(ctx context.Context, url string) (Executor, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return Executor{}, wrap.Error(err, "failed to create PostgreSQL connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return Executor{}, wrap.Error(err, "failed to ping PostgreSQL")
	}

	return Executor{pool: pool}, nil
}

func (executor Executor) Execute(ctx context.Context, sql string) (results.Set, error) {
	log.Debug("executing query", slog.String("backend", "postgres"), slog.String("query", sql))

	rows, err := executor.pool.Query(ctx, sql)
	if err != nil {
		return results.Set{}, db.NewQueryError(err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	set := results.Set{Columns: make([]string, len(fields)), Rows: []results.Row{}}
	for i, field := range fields {
		set.Columns[i] = field.Name
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return results.Set{}, db.NewQueryError(err)
		}

		row := make(results.Row, len(values))
		for i, value := range values {
			row[set.Columns[i]] = convertValue(value)
		}
		set.Rows = append(set.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return results.Set{}, db.NewQueryError(err)
	}

	return set, nil
}

func (executor Executor) Close() error {
	executor.pool.Close()
	return nil
}

func convertValue(value any) any {
	switch value := value.(type) {
	case pgtype.Numeric:
		if !value.Valid {
			return nil
		}
		float, err := value.Float64Value()
		if err != nil || !float.Valid {
			return nil
		}
		return float.Float64
	case *big.Int:
		if value.IsInt64() {
			return value.Int64()
		}
		return value.String()
	case time.Duration:
		return value.String()
	case pgtype.Time:
		if !value.Valid {
			return nil
		}
		return (time.Duration(value.Microseconds) * time.Microsecond).String()
	case pgtype.Interval:
		if !value.Valid {
			return nil
		}
		return fmt.Sprintf(
			"%d months %d days %s",
			value.Months,
			value.Days,
			time.Duration(value.Microseconds)*time.Microsecond,
		)
	default:
		return results.Normalize(value)
	}
}
