package elasticsearch

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hermannm.dev/widgets/results"
)

func TestAppendRows(t *testing.T) {
	set := results.Set{Columns: []string{"region", "qty", "price", "active"}}

	err := appendRows(&set, [][]json.RawMessage{
		rawRow(`"EU"`, `3`, `9.5`, `true`),
		rawRow(`null`, `9007199254740993`, `1`, `false`),
	})
	require.NoError(t, err)

	assert.Equal(t, []results.Row{
		{"region": "EU", "qty": int64(3), "price": 9.5, "active": true},
		{"region": nil, "qty": int64(9007199254740993), "price": int64(1), "active": false},
	}, set.Rows)
}

func TestAppendRowsColumnMismatch(t *testing.T) {
	set := results.Set{Columns: []string{"a", "b"}}

	err := appendRows(&set, [][]json.RawMessage{rawRow(`1`)})
	assert.ErrorIs(t, err, errColumnCount)
}

func TestFormatElasticError(t *testing.T) {
	reason := "line 1:8: Unknown column [qty]"
	rootReason := "Unknown column [qty]"
	err := formatElasticError(&types.ElasticsearchError{
		Status: 400,
		ErrorCause: types.ErrorCause{
			Type:      "verification_exception",
			Reason:    &reason,
			RootCause: []types.ErrorCause{{Type: "verification_exception", Reason: &rootReason}},
		},
	})

	assert.ErrorContains(t, err, "line 1:8: Unknown column [qty] (verification_exception, status 400)")
	assert.ErrorContains(t, err, "Unknown column [qty] (verification_exception)")

	plain := errors.New("connection refused")
	assert.Equal(t, plain, formatElasticError(plain))
}

func rawRow(values ...string) []json.RawMessage {
	row := make([]json.RawMessage, len(values))
	for i, value := range values {
		row[i] = json.RawMessage(value)
	}
	return row
}
