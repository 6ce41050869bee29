package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"

	"shopcore/pkg/domain"
)

// KafkaSink publishes committed events as JSON messages. Messages are keyed
// by item id so per-item ordering survives partitioning; ownership transfers
// key on the event id.
type KafkaSink struct {
	writer *kafkago.Writer
}

var _ Sink = (*KafkaSink)(nil)

// NewKafkaSink constructs a sink writing to topic on the given brokers.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafkago.Writer{
			Addr:     kafkago.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafkago.LeastBytes{},
		},
	}
}

// Publish implements Sink.
func (s *KafkaSink) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}
	key := []byte(event.ID)
	if event.ItemID != 0 {
		key = []byte(strconv.FormatUint(event.ItemID, 10))
	}
	msg := kafkago.Message{
		Key:   key,
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish event %s: %w", event.ID, err)
	}
	return nil
}

// Close releases the underlying writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
