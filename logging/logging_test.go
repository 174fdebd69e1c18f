package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductionHandlerWritesJSON(t *testing.T) {
	var output bytes.Buffer
	logger := slog.New(NewHandler(true, slog.LevelInfo, &output))

	logger.Debug("hidden")
	logger.Info("report saved", slog.String("reportId", "report-1"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(output.Bytes(), &record))
	assert.Equal(t, "report saved", record["msg"])
	assert.Equal(t, "report-1", record["reportId"])
}

func TestDevelopmentHandlerRespectsLevel(t *testing.T) {
	var output bytes.Buffer
	logger := slog.New(NewHandler(false, slog.LevelWarn, &output))

	logger.Info("hidden")
	assert.Empty(t, output.String())

	logger.Warn("query failed")
	assert.Contains(t, output.String(), "query failed")
}
