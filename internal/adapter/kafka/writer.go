// Package kafka publishes subject transition events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/subject-tracker/internal/resolver"
)

// Writer produces change events to a Kafka topic.
// It implements resolver.EventSink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes and produces one change event to the sink topic.
func (w *Writer) Publish(ctx context.Context, ev resolver.ChangeEvent) error {
	msg, err := serializeToMessage(ev)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write change event: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a change event into a Kafka message. The change
// type keys the message so transitions of one kind land on one partition in
// order.
func serializeToMessage(ev resolver.ChangeEvent) (kafkago.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize change event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(ev.Type),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "change_type", Value: []byte(ev.Type)},
			{Key: "occurred_at", Value: []byte(ev.OccurredAt.Format(time.RFC3339))},
		},
	}, nil
}
