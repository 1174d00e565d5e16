package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/mkarls/aqi-ops/internal/config"
	"github.com/mkarls/aqi-ops/internal/domain"
)

// Writer publishes correction audit events to a Kafka topic.
// It implements maintenance.CorrectionPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured corrections topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaCorrectionsTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishCorrections serializes and publishes the corrections in a single
// WriteMessages call for efficiency.
func (w *Writer) PublishCorrections(ctx context.Context, corrections []domain.Correction) error {
	if len(corrections) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(corrections))
	for i := range corrections {
		msg, err := serializeToMessage(corrections[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Correction into a Kafka message keyed by
// reading id so replays of the same correction land in the same partition.
func serializeToMessage(c domain.Correction) (kafkago.Message, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize correction: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.FormatInt(c.ReadingID, 10)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "station_id", Value: []byte(c.StationID)},
			{Key: "corrected_at", Value: []byte(c.CorrectedAt.Format(time.RFC3339))},
		},
	}, nil
}
