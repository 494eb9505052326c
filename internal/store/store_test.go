package store_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/reservoir-balance-service/internal/adapter/memory"
	"github.com/couchcryptid/reservoir-balance-service/internal/adapter/sqlite"
	"github.com/couchcryptid/reservoir-balance-service/internal/config"
	"github.com/couchcryptid/reservoir-balance-service/internal/domain"
	"github.com/couchcryptid/reservoir-balance-service/internal/observability"
	"github.com/couchcryptid/reservoir-balance-service/internal/store"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpen_SelectsBackend(t *testing.T) {
	s, err := store.Open(&config.Config{ResultStore: config.StoreMemory, ResultCacheSize: 5})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, s)

	s, err = store.Open(&config.Config{
		ResultStore:     config.StoreSQLite,
		ResultStorePath: filepath.Join(t.TempDir(), "results.db"),
	})
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &sqlite.Store{}, s)

	_, err = store.Open(&config.Config{ResultStore: "redis"})
	assert.Error(t, err)
}

func TestInstrumented_RecordsOutcomes(t *testing.T) {
	m := observability.NewMetricsForTesting()
	s := store.NewInstrumented(memory.NewStore(10), discardLogger(), m)
	ctx := context.Background()

	require.NoError(t, s.SaveReport(ctx, domain.SimulationReport{ReservoirID: "furnas"}))
	assert.Error(t, s.SaveReport(ctx, domain.SimulationReport{}))

	_, err := s.LatestReport(ctx, "furnas")
	require.NoError(t, err)
	_, err = s.LatestReport(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrReportNotFound)

	assert.InDelta(t, 1, testutil.ToFloat64(m.StoreOperations.WithLabelValues("save", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.StoreOperations.WithLabelValues("save", "error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.StoreOperations.WithLabelValues("get", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.StoreOperations.WithLabelValues("get", "miss")), 0)
}

func TestInstrumented_LoadBatchContinuesPastFailures(t *testing.T) {
	m := observability.NewMetricsForTesting()
	s := store.NewInstrumented(memory.NewStore(10), discardLogger(), m)
	ctx := context.Background()

	err := s.LoadBatch(ctx, []domain.SimulationReport{
		{ReservoirID: ""},
		{ReservoirID: "b"},
	})
	require.Error(t, err)

	_, err = s.LatestReport(ctx, "b")
	assert.NoError(t, err)
}
