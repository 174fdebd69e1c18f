package sqldb

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hermannm.dev/widgets/db"
	"hermannm.dev/widgets/results"
)

func TestExecute(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = sqlDB.Close() }()

	mock.ExpectQuery("SELECT region, qty FROM sales").WillReturnRows(
		sqlmock.NewRows([]string{"region", "qty"}).
			AddRow([]byte("EU"), int64(3)).
			AddRow("US", nil),
	)

	executor := NewExecutor(sqlDB, "mock")
	set, err := executor.Execute(context.Background(), "SELECT region, qty FROM sales")
	require.NoError(t, err)

	assert.Equal(t, results.Set{
		Columns: []string{"region", "qty"},
		Rows: []results.Row{
			{"region": "EU", "qty": int64(3)},
			{"region": "US", "qty": nil},
		},
	}, set)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteEmptyResult(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = sqlDB.Close() }()

	mock.ExpectQuery("SELECT a FROM t").WillReturnRows(sqlmock.NewRows([]string{"a"}))

	set, err := NewExecutor(sqlDB, "mock").Execute(context.Background(), "SELECT a FROM t")
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, set.Columns)
	assert.NotNil(t, set.Rows)
	assert.True(t, set.IsEmpty())
}

func TestExecuteReturnsQueryError(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		message   string
	}{
		{
			name: "query fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELEC").WillReturnError(errors.New(`near "SELEC": syntax error`))
			},
			message: `near "SELEC": syntax error`,
		},
		{
			name: "row iteration fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELEC").WillReturnRows(
					sqlmock.NewRows([]string{"a"}).
						AddRow(1).
						RowError(0, errors.New("connection reset")),
				)
			},
			message: "connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sqlDB, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = sqlDB.Close() }()

			tt.setupMock(mock)

			_, err = NewExecutor(sqlDB, "mock").Execute(context.Background(), "SELEC 1")

			var queryErr *db.QueryError
			require.ErrorAs(t, err, &queryErr)
			assert.Equal(t, tt.message, queryErr.Message)
		})
	}
}
