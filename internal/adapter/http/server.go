package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/reservoir-balance-service/internal/domain"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 4 << 20
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Simulator runs one reservoir dataset.
type Simulator interface {
	Simulate(ctx context.Context, ds domain.Dataset) (domain.SimulationReport, error)
}

// ReportStore saves and serves the latest report per reservoir.
type ReportStore interface {
	SaveReport(ctx context.Context, report domain.SimulationReport) error
	LatestReport(ctx context.Context, reservoirID string) (domain.SimulationReport, error)
}

// Server exposes the simulation API alongside health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	sim        Simulator
	store      ReportStore
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /v1/simulations routes.
func NewServer(addr string, ready ReadinessChecker, sim Simulator, store ReportStore, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      withRequestID(mux),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		sim:    sim,
		store:  store,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /v1/simulations", s.handleSimulate)
	mux.HandleFunc("GET /v1/simulations/{reservoir}", s.handleLatest)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With("request_id", w.Header().Get(requestIDHeader))

	var ds domain.Dataset
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&ds); err != nil {
		writeError(w, http.StatusBadRequest, "decode dataset: "+err.Error())
		return
	}

	report, err := s.sim.Simulate(r.Context(), ds)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDataset) || errors.Is(err, domain.ErrFit) {
			logger.Info("simulation rejected", "reservoir_id", ds.ReservoirID, "error", err)
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		logger.Error("simulation failed", "reservoir_id", ds.ReservoirID, "error", err)
		writeError(w, http.StatusInternalServerError, "simulation failed")
		return
	}

	if err := s.store.SaveReport(r.Context(), report); err != nil {
		logger.Error("save report failed", "reservoir_id", report.ReservoirID, "error", err)
		writeError(w, http.StatusInternalServerError, "save report failed")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("reservoir"))

	report, err := s.store.LatestReport(r.Context(), id)
	if errors.Is(err, domain.ErrReportNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("load report failed", "reservoir_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "load report failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// withRequestID propagates the caller's request id or assigns a new one.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeJSON encodes before writing the status so an unencodable value becomes
// a 500 instead of a 200 with an empty body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		data, _ = json.Marshal(map[string]string{"error": "encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n')) //nolint:errcheck // best-effort response
}
