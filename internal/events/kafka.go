package events

import (
    "context"
    "encoding/json"
    "fmt"
    "log/slog"

    "github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer used for publishing.
type MessageWriter interface {
    WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher encodes events as JSON and writes them to a topic keyed by
// owner so every owner's events stay ordered within a partition.
type KafkaPublisher struct {
    writer MessageWriter
    topic  string
    logger *slog.Logger
}

// NewKafkaPublisher wraps writer. An empty topic defers to the writer's own.
func NewKafkaPublisher(writer MessageWriter, topic string, logger *slog.Logger) *KafkaPublisher {
    return &KafkaPublisher{writer: writer, topic: topic, logger: logger}
}

// Publish implements Publisher.
func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
    value, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("encode event: %w", err)
    }
    msg := kafka.Message{
        Topic: p.topic,
        Key:   []byte(ev.Owner.String()),
        Value: value,
        Headers: []kafka.Header{
            {Key: "kind", Value: []byte(ev.Kind)},
        },
    }
    if err := p.writer.WriteMessages(ctx, msg); err != nil {
        if p.logger != nil {
            p.logger.ErrorContext(ctx, "publish event", "kind", ev.Kind, "id", ev.ID, "error", err)
        }
        return fmt.Errorf("publish event: %w", err)
    }
    return nil
}

// Multi fans an event out to every publisher and reports the first error.
type Multi []Publisher

// Publish implements Publisher.
func (m Multi) Publish(ctx context.Context, ev Event) error {
    var first error
    for _, p := range m {
        if err := p.Publish(ctx, ev); err != nil && first == nil {
            first = err
        }
    }
    return first
}
