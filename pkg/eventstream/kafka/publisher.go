// Package kafka publishes mutation events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/arbor/pkg/eventstream"
)

const defaultWriteTimeout = 5 * time.Second

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Config is the configuration for a Kafka publisher.
type Config struct {
	// Brokers is the list of broker addresses (host:port).
	Brokers []string

	// Topic receives every event. Events are keyed by project so one
	// project's mutations stay ordered within a partition.
	Topic string

	// WriteTimeout bounds each publish. Defaults to 5s.
	WriteTimeout time.Duration

	Logger *slog.Logger
}

// Publisher writes JSON-encoded mutation events to Kafka.
type Publisher struct {
	writer  messageWriter
	timeout time.Duration
	logger  *slog.Logger
}

// NewPublisher creates a publisher backed by a kafka-go Writer.
func NewPublisher(c Config) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, errors.New("kafka publisher requires at least one broker")
	}
	if c.Topic == "" {
		return nil, errors.New("kafka publisher requires a topic")
	}

	w := &kafkago.Writer{
		Addr:         kafkago.TCP(c.Brokers...),
		Topic:        c.Topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
	}

	return newPublisher(w, c), nil
}

func newPublisher(w messageWriter, c Config) *Publisher {
	timeout := c.WriteTimeout
	if timeout == 0 {
		timeout = defaultWriteTimeout
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Publisher{
		writer:  w,
		timeout: timeout,
		logger:  logger,
	}
}

// Publish encodes the event and writes it synchronously.
func (p *Publisher) Publish(ctx context.Context, event *eventstream.MutationEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafkago.Message{
		Key:   []byte(event.Source.Project),
		Value: payload,
		Time:  event.EmittedAt,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing %s: %w", event.EventType, err)
	}

	p.logger.Debug("event published",
		"event_type", event.EventType,
		"event_id", event.EventID,
	)

	return nil
}

// Close flushes pending writes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
