// Package store defines the simulation result store and wraps backends with
// metrics.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/reservoir-balance-service/internal/adapter/memory"
	"github.com/couchcryptid/reservoir-balance-service/internal/adapter/sqlite"
	"github.com/couchcryptid/reservoir-balance-service/internal/config"
	"github.com/couchcryptid/reservoir-balance-service/internal/domain"
	"github.com/couchcryptid/reservoir-balance-service/internal/observability"
)

// Store keeps the latest simulation report for each reservoir.
type Store interface {
	SaveReport(ctx context.Context, report domain.SimulationReport) error
	LatestReport(ctx context.Context, reservoirID string) (domain.SimulationReport, error)
	Close() error
}

// Open builds the backend selected by cfg.ResultStore.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.ResultStore {
	case config.StoreMemory:
		return memory.NewStore(cfg.ResultCacheSize), nil
	case config.StoreSQLite:
		s, err := sqlite.NewStore(cfg.ResultStorePath)
		if err != nil {
			return nil, fmt.Errorf("open result store %s: %w", cfg.ResultStorePath, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown result store %q", cfg.ResultStore)
	}
}

// Instrumented records store operations on the service metrics.
// It implements pipeline.BatchLoader so stored reports can sit next to the
// Kafka writer in a fanout.
type Instrumented struct {
	next    Store
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewInstrumented(next Store, logger *slog.Logger, metrics *observability.Metrics) *Instrumented {
	return &Instrumented{next: next, logger: logger, metrics: metrics}
}

func (s *Instrumented) SaveReport(ctx context.Context, report domain.SimulationReport) error {
	if err := s.next.SaveReport(ctx, report); err != nil {
		s.metrics.StoreOperations.WithLabelValues("save", "error").Inc()
		return err
	}
	s.metrics.StoreOperations.WithLabelValues("save", "success").Inc()
	return nil
}

func (s *Instrumented) LatestReport(ctx context.Context, reservoirID string) (domain.SimulationReport, error) {
	report, err := s.next.LatestReport(ctx, reservoirID)
	switch {
	case errors.Is(err, domain.ErrReportNotFound):
		s.metrics.StoreOperations.WithLabelValues("get", "miss").Inc()
	case err != nil:
		s.metrics.StoreOperations.WithLabelValues("get", "error").Inc()
	default:
		s.metrics.StoreOperations.WithLabelValues("get", "success").Inc()
	}
	return report, err
}

// LoadBatch saves each report, continuing past failures so one bad report
// does not hide the rest of the batch.
func (s *Instrumented) LoadBatch(ctx context.Context, reports []domain.SimulationReport) error {
	var errs []error
	for i := range reports {
		if err := s.SaveReport(ctx, reports[i]); err != nil {
			s.logger.Error("store report failed", "reservoir_id", reports[i].ReservoirID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Instrumented) Close() error {
	return s.next.Close()
}
