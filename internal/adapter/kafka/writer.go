package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/reservoir-balance-service/internal/config"
	"github.com/couchcryptid/reservoir-balance-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces simulation reports to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes multiple reports to the sink topic in a
// single WriteMessages call. Reports are keyed by reservoir so runs of one
// reservoir stay ordered within a partition. A report that cannot be
// serialized is logged and left out; the rest of the batch is still published.
func (w *Writer) LoadBatch(ctx context.Context, reports []domain.SimulationReport) error {
	msgs := make([]kafkago.Message, 0, len(reports))
	for i := range reports {
		msg, err := serializeToMessage(reports[i])
		if err != nil {
			w.logger.Error("report dropped from batch",
				"reservoir_id", reports[i].ReservoirID,
				"error", err,
			)
			continue
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d reports: %w", len(msgs), err)
	}
	w.logger.Debug("reports published", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a SimulationReport into a Kafka message.
func serializeToMessage(report domain.SimulationReport) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize simulation report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.ReservoirID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "reservoir_id", Value: []byte(report.ReservoirID)},
			{Key: "alert_count", Value: []byte(strconv.Itoa(report.Summary.AlertCount))},
			{Key: "simulated_at", Value: []byte(report.SimulatedAt.Format(time.RFC3339))},
		},
	}, nil
}
