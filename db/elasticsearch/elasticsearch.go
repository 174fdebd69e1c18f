package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/sql/query"
	"hermannm.dev/devlog/log"
	"hermannm.dev/widgets/config"
	"hermannm.dev/widgets/db"
	"hermannm.dev/widgets/results"
	"hermannm.dev/wrap"
)

// Implements db.QueryExecutor on the Elasticsearch SQL API.
type Executor struct {
	client *elasticsearch.TypedClient
}

func NewQueryExecutor(config config.Elasticsearch) (Executor, error) {
	client, err := elasticsearch.NewTypedClient(elasticsearch.Config{
		Addresses:         []string{config.Address},
		EnableDebugLogger: config.Debug,
	})
	if err != nil {
		return Executor{}, wrap.Error(err, "failed to connect to Elasticsearch")
	}

	return Executor{client: client}, nil
}

// Runs the SQL query, following result cursors until all pages are read.
func (executor Executor) Execute(ctx context.Context, sql string) (results.Set, error) {
	log.Debug("executing query", slog.String("backend", "elasticsearch"), slog.String("query", sql))

	response, err := executor.client.Sql.Query().Request(&query.Request{Query: &sql}).Do(ctx)
	if err != nil {
		return results.Set{}, db.NewQueryError(formatElasticError(err))
	}

	set := results.Set{Columns: make([]string, len(response.Columns)), Rows: []results.Row{}}
	for i, column := range response.Columns {
		set.Columns[i] = column.Name
	}

	for {
		if err := appendRows(&set, response.Rows); err != nil {
			return results.Set{}, db.NewQueryError(err)
		}

		if response.Cursor == nil || *response.Cursor == "" {
			break
		}

		response, err = executor.client.Sql.Query().
			Request(&query.Request{Cursor: response.Cursor}).
			Do(ctx)
		if err != nil {
			return results.Set{}, db.NewQueryError(formatElasticError(err))
		}
	}

	return set, nil
}

func (executor Executor) Close() error {
	return nil
}

func appendRows(set *results.Set, rows [][]json.RawMessage) error {
	for _, rawRow := range rows {
		if len(rawRow) != len(set.Columns) {
			return wrap.Errorf(
				errColumnCount, "row %d has %d values", len(set.Rows), len(rawRow),
			)
		}

		row := make(results.Row, len(rawRow))
		for i, rawValue := range rawRow {
			value, err := decodeValue(rawValue)
			if err != nil {
				return wrap.Errorf(
					err, "failed to decode column '%s' in row %d", set.Columns[i], len(set.Rows),
				)
			}
			row[set.Columns[i]] = value
		}
		set.Rows = append(set.Rows, row)
	}

	return nil
}

// Decodes a JSON value, keeping integers as int64 so they are not rounded through float64.
func decodeValue(raw json.RawMessage) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	number, isNumber := value.(json.Number)
	if !isNumber {
		return value, nil
	}
	if integer, err := number.Int64(); err == nil {
		return integer, nil
	}
	return number.Float64()
}
