package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"hermannm.dev/widgets/config"
	"hermannm.dev/widgets/db/connect"
	"hermannm.dev/widgets/pivot"
	"hermannm.dev/widgets/report"
	"hermannm.dev/widgets/visualization"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()

	var cfg config.Config
	cfg.QueryDB = config.DBSQLite
	cfg.StorePath = filepath.Join(t.TempDir(), "widgets.db")
	cfg.API.Port = "8000"
	return cfg
}

func runCommand(t *testing.T, cfg config.Config, args ...string) string {
	t.Helper()

	var output bytes.Buffer
	cmd := NewRootCommand(cfg)
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetArgs(args)

	require.NoError(t, cmd.ExecuteContext(context.Background()), output.String())
	return output.String()
}

func saveReport(t *testing.T, cfg config.Config, toSave report.Report) report.SavedReport {
	t.Helper()

	store, err := connect.OpenStore(cfg)
	require.NoError(t, err)
	defer store.Close()

	saved, err := store.SaveReport(context.Background(), toSave)
	require.NoError(t, err)
	return saved
}

func TestMigrate(t *testing.T) {
	cfg := testConfig(t)

	output := runCommand(t, cfg, "migrate")
	assert.Contains(t, output, "schema version 1")
}

func TestStatements(t *testing.T) {
	cfg := testConfig(t)

	output := runCommand(t, cfg, "statements", "list")
	assert.Contains(t, output, "No statements")

	output = runCommand(
		t, cfg,
		"statements", "add",
		"--id", "sales-by-region",
		"--name", "Sales by region",
		"--scope", "sales",
		"--sql", "SELECT region,\n  SUM(qty) FROM sales GROUP BY region",
	)
	assert.Contains(t, output, "with ID sales-by-region")

	sqlFile := filepath.Join(t.TempDir(), "count.sql")
	require.NoError(t, os.WriteFile(sqlFile, []byte("SELECT count(*) FROM sales"), 0o644))
	runCommand(t, cfg, "statements", "add", "--name", "Count", "--scope", "ops", "--file", sqlFile)

	output = runCommand(t, cfg, "statements", "list", "--scope", "sales")
	assert.Contains(t, output, "Sales by region")
	assert.Contains(t, output, "SELECT region, SUM(qty) FROM sales GROUP BY region")
	assert.NotContains(t, output, "Count")
}

func TestBlankStatementIsRejected(t *testing.T) {
	cfg := testConfig(t)

	cmd := NewRootCommand(cfg)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"statements", "add", "--name", "Empty"})
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestReports(t *testing.T) {
	cfg := testConfig(t)

	output := runCommand(t, cfg, "reports", "list")
	assert.Contains(t, output, "No saved reports")

	saved := saveReport(t, cfg, report.Report{
		Name: "Numbers",
		SQL:  "SELECT 1 AS a, 2 AS b UNION ALL SELECT 3, NULL",
		Visualization: visualization.Envelope{Config: visualization.ChartConfig{
			Kind: visualization.TypeBar,
			Axes: visualization.Axes{XAxis: "a", YAxes: []string{"b"}},
		}},
	})

	output = runCommand(t, cfg, "reports", "list")
	assert.Contains(t, output, saved.ID)
	assert.Contains(t, output, "Numbers")
	assert.Contains(t, output, "bar")
	assert.Contains(t, output, "(inline)")

	output = runCommand(t, cfg, "reports", "run", saved.ID)
	assert.Contains(t, output, "NULL")
	assert.Contains(t, output, "(2 rows)")

	output = runCommand(t, cfg, "reports", "delete", saved.ID)
	assert.Contains(t, output, "Deleted report")

	output = runCommand(t, cfg, "reports", "list")
	assert.Contains(t, output, "No saved reports")
}

func TestExport(t *testing.T) {
	cfg := testConfig(t)

	saved := saveReport(t, cfg, report.Report{
		Name: "Regions",
		SQL: "SELECT 'EU' AS region, 3 AS qty " +
			"UNION ALL SELECT 'EU', 5 " +
			"UNION ALL SELECT 'US', 2",
		Visualization: visualization.Envelope{Config: visualization.TableConfig{}},
	})

	outputPath := filepath.Join(t.TempDir(), "regions.csv")
	output := runCommand(t, cfg, "export", saved.ID, "--format", "csv", "--out", outputPath)
	assert.Contains(t, output, "Exported report 'Regions'")

	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "region,qty\nEU,3\nEU,5\nUS,2\n", string(content))
}

func TestExportPivotToStdout(t *testing.T) {
	cfg := testConfig(t)

	saved := saveReport(t, cfg, report.Report{
		Name: "Regions",
		SQL: "SELECT 'EU' AS region, 3 AS qty " +
			"UNION ALL SELECT 'EU', 5 " +
			"UNION ALL SELECT 'US', 2",
		Visualization: visualization.Envelope{Config: visualization.PivotConfig{
			Rows:     []string{"region"},
			Measures: []pivot.Measure{{Field: "qty", Aggregation: pivot.AggregationSum}},
		}},
	})

	output := runCommand(t, cfg, "export", saved.ID, "--out", "-")
	assert.Equal(t, "region,sum(qty)\nEU,8\nUS,2\n", output)
}
