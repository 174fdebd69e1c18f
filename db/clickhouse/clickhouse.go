package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/ClickHouse/clickhouse-go/v2/lib/proto"
	"hermannm.dev/devlog/log"
	"hermannm.dev/widgets/config"
	"hermannm.dev/widgets/db"
	"hermannm.dev/widgets/results"
	"hermannm.dev/wrap"
)

// Implements db.QueryExecutor for ClickHouse.
type Executor struct {
	conn driver.Conn
}

func NewQueryExecutor(ctx context.Context, config config.ClickHouse) (Executor, error) {
	// Options docs: https://clickhouse.com/docs/en/integrations/go#connection-settings
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{config.Address},
		Auth: clickhouse.Auth{
			Database: config.DatabaseName,
			Username: config.Username,
			Password: config.Password,
		},
		Debug: config.Debug,
		Debugf: func(format string, v ...any) {
			log.Debugf(format, v...)
		},
		Compression: &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
	})
	if err != nil {
		return Executor{}, wrap.Error(err, "failed to connect to ClickHouse")
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return Executor{}, wrap.Error(err, "failed to ping ClickHouse connection")
	}

	return Executor{conn: conn}, nil
}

func (executor Executor) Execute(ctx context.Context, sql string) (results.Set, error) {
	log.Debug("executing query", slog.String("backend", "clickhouse"), slog.String("query", sql))

	rows, err := executor.conn.Query(ctx, sql)
	if err != nil {
		return results.Set{}, newQueryError(err)
	}
	defer rows.Close()

	set, err := scanRows(rows)
	if err != nil {
		return results.Set{}, newQueryError(err)
	}
	return set, nil
}

func (executor Executor) Close() error {
	return executor.conn.Close()
}

func scanRows(rows driver.Rows) (results.Set, error) {
	columnTypes := rows.ColumnTypes()
	set := results.Set{Columns: rows.Columns(), Rows: []results.Row{}}

	for rows.Next() {
		// ClickHouse scans into typed destinations only, so we allocate one per column type
		values := make([]any, len(columnTypes))
		for i, columnType := range columnTypes {
			values[i] = reflect.New(columnType.ScanType()).Interface()
		}

		if err := rows.Scan(values...); err != nil {
			return results.Set{}, wrap.Errorf(err, "failed to scan result row %d", len(set.Rows))
		}

		row := make(results.Row, len(values))
		for i, column := range set.Columns {
			row[column] = convertValue(results.Normalize(values[i]))
		}
		set.Rows = append(set.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return results.Set{}, err
	}

	return set, nil
}

type inexactFloat interface {
	InexactFloat64() float64
}

func convertValue(value any) any {
	switch value := value.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, time.Time:
		return value
	case inexactFloat:
		// Decimal columns
		return value.InexactFloat64()
	case fmt.Stringer:
		return value.String()
	default:
		kind := reflect.ValueOf(value).Kind()
		if kind == reflect.Slice || kind == reflect.Array || kind == reflect.Map {
			return fmt.Sprint(value)
		}
		return value
	}
}

func newQueryError(err error) *db.QueryError {
	var exception *proto.Exception
	if errors.As(err, &exception) {
		return &db.QueryError{
			Message: fmt.Sprintf("%s (ClickHouse error code %d)", exception.Message, exception.Code),
			Err:     err,
		}
	}
	return db.NewQueryError(err)
}
