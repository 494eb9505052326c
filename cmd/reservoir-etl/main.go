package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/reservoir-balance-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/reservoir-balance-service/internal/adapter/kafka"
	"github.com/couchcryptid/reservoir-balance-service/internal/config"
	"github.com/couchcryptid/reservoir-balance-service/internal/observability"
	"github.com/couchcryptid/reservoir-balance-service/internal/pipeline"
	"github.com/couchcryptid/reservoir-balance-service/internal/store"
)

// alwaysReady serves readiness when the Kafka pipeline is disabled and the
// service only answers API requests.
type alwaysReady struct{}

func (alwaysReady) CheckReadiness(context.Context) error { return nil }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	backend, err := store.Open(cfg)
	if err != nil {
		logger.Error("failed to open result store", "error", err)
		os.Exit(1)
	}
	results := store.NewInstrumented(backend, logger, metrics)
	logger.Info("result store ready", "backend", cfg.ResultStore)

	transformer := pipeline.NewTransformer(logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		ready  httpadapter.ReadinessChecker = alwaysReady{}
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
	)
	if cfg.PipelineEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		loader := pipeline.NewFanoutLoader(writer, results)

		p := pipeline.New(reader, transformer, loader, logger, metrics, cfg.BatchSize)
		ready = p

		// Start simulation pipeline.
		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	} else {
		logger.Info("kafka pipeline disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, transformer.WithSource(pipeline.SourceHTTP), results, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := results.Close(); err != nil {
		logger.Error("result store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
