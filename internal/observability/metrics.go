package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "reservoir_sim"

// Metrics holds the Prometheus counters, histograms, and gauges for the simulation service.
type Metrics struct {
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Simulation metrics.
	Simulations        *prometheus.CounterVec // labels: source={pipeline,http}, outcome={success,invalid,fit_error}
	SimulatedMonths    prometheus.Histogram
	Alerts             *prometheus.CounterVec // labels: kind={below_minimum_operational,below_dead_volume}
	ConstraintWarnings prometheus.Counter

	// Result store metrics.
	StoreOperations *prometheus.CounterVec // labels: op={save,get}, outcome={success,error,miss}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.Simulations,
		m.SimulatedMonths,
		m.Alerts,
		m.ConstraintWarnings,
		m.StoreOperations,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total dataset messages read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total simulation reports written to the sink.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total datasets that could not be simulated.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-simulate-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		Simulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_total",
			Help:      "Simulation runs by entry point and outcome.",
		}, []string{"source", "outcome"}),
		SimulatedMonths: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "simulated_months",
			Help:      "Horizon length of completed simulation runs.",
			Buckets:   []float64{1, 12, 24, 60, 120, 240, 600, 1200},
		}),
		Alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Operational limit alerts raised by kind.",
		}, []string{"kind"}),
		ConstraintWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "constraint_warnings_total",
			Help:      "Runs that fell back to default limits because of a malformed constraints table.",
		}),
		StoreOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Result store operations by operation and outcome.",
		}, []string{"op", "outcome"}),
	}
}
