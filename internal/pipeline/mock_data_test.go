package pipeline_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/reservoir-balance-service/internal/domain"
	"github.com/couchcryptid/reservoir-balance-service/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservoirTransformer_WithMockData(t *testing.T) {
	transformer := pipeline.NewTransformer(slog.Default(), newTestMetrics())

	datasets := readMockDatasets(t)
	require.Len(t, datasets, 3)

	reports := make(map[string]domain.SimulationReport, len(datasets))
	for _, raw := range datasets {
		var ds domain.Dataset
		require.NoError(t, json.Unmarshal(raw, &ds))

		t.Run(ds.ReservoirID, func(t *testing.T) {
			report, err := transformer.Transform(context.Background(), domain.RawEvent{
				Key:   []byte(ds.ReservoirID),
				Value: raw,
				Topic: "reservoir-datasets",
			})
			require.NoError(t, err)

			n := len(ds.Inflow)
			assert.Equal(t, n, report.Months)
			require.Len(t, report.Result.Volumes, n)
			require.Len(t, report.Result.Releases, n)
			require.Len(t, report.Result.Evaporation, n)
			for i := 0; i < n; i++ {
				assert.GreaterOrEqual(t, report.Result.Volumes[i], 0.0)
				assert.LessOrEqual(t, report.Result.Volumes[i], report.Limits.MaximumVolume)
				assert.GreaterOrEqual(t, report.Result.Releases[i], 0.0)
				assert.LessOrEqual(t, report.Result.Releases[i], ds.Demand[i])
				assert.GreaterOrEqual(t, report.Result.Evaporation[i], 0.0)
			}
			reports[ds.ReservoirID] = report
		})
	}

	serra := reports["serra-azul"]
	assert.Equal(t, 30.0, serra.Limits.MaximumVolume)
	assert.Equal(t, 8.0, serra.Limits.MinimumOperationalVolume)
	assert.Empty(t, serra.Warnings)

	vale := reports["vale-verde"]
	assert.True(t, math.IsInf(vale.Limits.MaximumVolume, 1))
	assert.Equal(t, 40.0, vale.Summary.InitialVolume, "initial volume defaults to the lowest curve volume")
	assert.Empty(t, vale.Result.Alerts)

	lagoa := reports["lagoa-seca"]
	require.Len(t, lagoa.Warnings, 1)
	assert.Contains(t, lagoa.Warnings[0], "Minimum Operational Volume")
	assert.Equal(t, domain.DefaultConstraints(), lagoa.Limits)
	assert.Empty(t, lagoa.Result.Alerts, "default limits raise no alerts")
	assert.Greater(t, lagoa.Summary.TotalDeficit, 0.0)
}

func readMockDatasets(t *testing.T) []json.RawMessage {
	t.Helper()

	path := filepath.Join("..", "..", "data", "mock", "reservoirs.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var datasets []json.RawMessage
	require.NoError(t, json.Unmarshal(data, &datasets))
	return datasets
}
