package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hermannm.dev/widgets/db"
	"hermannm.dev/widgets/pivot"
	"hermannm.dev/widgets/report"
	"hermannm.dev/widgets/visualization"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(InMemory)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate())
	return store
}

func TestMigrate(t *testing.T) {
	store := setupTestStore(t)

	version, err := store.MigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
}

func TestSaveReportRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	statementID := "stmt-1"
	reports := []report.Report{
		{
			Name:         "Sales by region",
			StatementRef: &statementID,
			SQL:          "select region, qty from sales",
			Visualization: visualization.Envelope{
				Config: visualization.PivotConfig{
					Rows:     []string{"region"},
					Measures: []pivot.Measure{{Field: "qty", Aggregation: pivot.AggregationSum}},
				},
			},
		},
		{
			Name: "Notes",
			Visualization: visualization.Envelope{
				Config: visualization.TextConfig{Content: "Q3 Summary", Bold: true},
			},
		},
	}

	for _, toSave := range reports {
		saved, err := store.SaveReport(ctx, toSave)
		require.NoError(t, err)
		assert.NotEmpty(t, saved.ID)
		assert.False(t, saved.CreatedAt.IsZero())

		// Everything but server-assigned fields round-trips
		toSave.ID = saved.ID
		assert.Equal(t, toSave, saved.Report)

		fetched, err := store.GetReport(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, saved, fetched)
	}

	listed, err := store.ListReports(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestSaveReportUpdatesExisting(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return created }

	saved, err := store.SaveReport(ctx, report.Report{
		Name:          "Draft",
		SQL:           "select 1",
		Visualization: visualization.Envelope{Config: visualization.TableConfig{}},
	})
	require.NoError(t, err)

	updated := created.Add(time.Hour)
	store.now = func() time.Time { return updated }

	toUpdate := saved.Report
	toUpdate.Name = "Final"
	resaved, err := store.SaveReport(ctx, toUpdate)
	require.NoError(t, err)

	assert.Equal(t, saved.ID, resaved.ID)
	assert.Equal(t, "Final", resaved.Name)
	assert.Equal(t, created, resaved.CreatedAt)
	assert.Equal(t, updated, resaved.UpdatedAt)

	listed, err := store.ListReports(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, resaved, listed[0])
}

func TestDeleteReport(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	saved, err := store.SaveReport(ctx, report.Report{
		Name:          "To delete",
		Visualization: visualization.Envelope{Config: visualization.TableConfig{}},
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteReport(ctx, saved.ID))

	_, err = store.GetReport(ctx, saved.ID)
	assertPersistenceError(t, err, db.OperationGet)
	assert.True(t, errors.Is(err, db.ErrNotFound))

	err = store.DeleteReport(ctx, saved.ID)
	assertPersistenceError(t, err, db.OperationDelete)
	assert.True(t, errors.Is(err, db.ErrNotFound))
}

func TestSaveReportOnClosedStore(t *testing.T) {
	store, err := Open(InMemory)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.SaveReport(context.Background(), report.Report{Name: "x"})
	assertPersistenceError(t, err, db.OperationSave)
}

func TestStatements(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	sales, err := store.SaveStatement(ctx, report.Statement{
		Scope:       "sales",
		Name:        "Sales by region",
		SQL:         "select region, sum(qty) as qty from sales group by region",
		Description: "Quantity per region",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sales.ID)

	_, err = store.SaveStatement(ctx, report.Statement{
		Scope: "finance",
		Name:  "Revenue",
		SQL:   "select sum(amount) from invoices",
	})
	require.NoError(t, err)

	scoped, err := store.ListStatements(ctx, "sales")
	require.NoError(t, err)
	assert.Equal(t, []report.Statement{sales}, scoped)

	all, err := store.ListStatements(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "Revenue", all[0].Name)

	fetched, err := store.GetStatement(ctx, sales.ID)
	require.NoError(t, err)
	assert.Equal(t, sales, fetched)

	_, err = store.GetStatement(ctx, "missing")
	assertPersistenceError(t, err, db.OperationGet)
	assert.True(t, errors.Is(err, db.ErrNotFound))
}

func assertPersistenceError(t *testing.T, err error, op db.PersistenceOperation) {
	t.Helper()

	var persistenceErr *db.PersistenceError
	require.ErrorAs(t, err, &persistenceErr)
	assert.Equal(t, op, persistenceErr.Op)
}
