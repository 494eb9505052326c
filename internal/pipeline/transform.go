package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/reservoir-balance-service/internal/domain"
	"github.com/couchcryptid/reservoir-balance-service/internal/observability"
)

// Simulation entry points, used as the "source" metric label.
const (
	SourcePipeline = "pipeline"
	SourceHTTP     = "http"
)

// ReservoirTransformer implements Transformer by running the balance
// simulation for each dataset.
type ReservoirTransformer struct {
	logger  *slog.Logger
	metrics *observability.Metrics
	source  string
}

// NewTransformer creates a ReservoirTransformer that labels its runs as
// pipeline runs.
func NewTransformer(logger *slog.Logger, metrics *observability.Metrics) *ReservoirTransformer {
	return &ReservoirTransformer{
		logger:  logger,
		metrics: metrics,
		source:  SourcePipeline,
	}
}

// WithSource returns a copy that labels its runs with the given entry point.
func (t *ReservoirTransformer) WithSource(source string) *ReservoirTransformer {
	c := *t
	c.source = source
	return &c
}

func (t *ReservoirTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.SimulationReport, error) {
	ds, err := domain.ParseRawEvent(raw)
	if err != nil {
		t.metrics.Simulations.WithLabelValues(t.source, "invalid").Inc()
		return domain.SimulationReport{}, err
	}
	return t.Simulate(ctx, ds)
}

// Simulate runs one dataset and records its outcome. A malformed constraints
// table is logged and reported as a warning; the run still completes.
func (t *ReservoirTransformer) Simulate(_ context.Context, ds domain.Dataset) (domain.SimulationReport, error) {
	report, err := domain.RunDataset(ds)
	if err != nil {
		outcome := "error"
		switch {
		case errors.Is(err, domain.ErrInvalidDataset):
			outcome = "invalid"
		case errors.Is(err, domain.ErrFit):
			outcome = "fit_error"
		}
		t.metrics.Simulations.WithLabelValues(t.source, outcome).Inc()
		return domain.SimulationReport{}, err
	}

	for _, w := range report.Warnings {
		t.logger.Warn("operational constraints ignored",
			"reservoir_id", report.ReservoirID,
			"warning", w,
		)
		t.metrics.ConstraintWarnings.Inc()
	}
	for _, a := range report.Result.Alerts {
		t.metrics.Alerts.WithLabelValues(string(a.Kind)).Inc()
	}

	t.metrics.Simulations.WithLabelValues(t.source, "success").Inc()
	t.metrics.SimulatedMonths.Observe(float64(report.Months))
	t.logger.Debug("reservoir simulated",
		"reservoir_id", report.ReservoirID,
		"months", report.Months,
		"final_volume", report.Summary.FinalVolume,
		"alerts", report.Summary.AlertCount,
	)
	return report, nil
}
