package event

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matreq/backend/internal/domain/shared"
	"github.com/matreq/backend/internal/infrastructure/config"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	defaultWriteTimeout = 10 * time.Second

	headerEventType     = "event_type"
	headerEventID       = "event_id"
	headerAggregateType = "aggregate_type"
)

// messageWriter is the subset of *kafka.Writer used by the publisher
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes domain events as JSON messages keyed by aggregate id
type KafkaPublisher struct {
	writer       messageWriter
	serializer   *EventSerializer
	writeTimeout time.Duration
	logger       *zap.Logger
}

// Ensure KafkaPublisher implements EventPublisher
var _ shared.EventPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a publisher writing to cfg.Topic on cfg.Brokers
func NewKafkaPublisher(cfg *config.EventConfig, serializer *EventSerializer, logger *zap.Logger) (*KafkaPublisher, error) {
	if cfg == nil {
		return nil, errors.New("event configuration is required")
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("event topic is required")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		RequiredAcks:           kafka.RequireAll,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: false,
	}
	logger.Info("Kafka event publisher configured",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
	)
	return newKafkaPublisher(writer, serializer, cfg.WriteTimeout, logger), nil
}

func newKafkaPublisher(writer messageWriter, serializer *EventSerializer, writeTimeout time.Duration, logger *zap.Logger) *KafkaPublisher {
	if serializer == nil {
		serializer = NewEventSerializer()
	}
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &KafkaPublisher{
		writer:       writer,
		serializer:   serializer,
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// Publish writes all events in one batch. The hash balancer keeps events of
// one aggregate on one partition.
func (p *KafkaPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		msg, err := p.message(e)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	ctx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to publish %d event(s): %w", len(msgs), err)
	}

	p.logger.Debug("Events published", zap.Int("count", len(msgs)))
	return nil
}

func (p *KafkaPublisher) message(e shared.DomainEvent) (kafka.Message, error) {
	value, err := p.serializer.Serialize(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to serialize %s event: %w", e.EventType(), err)
	}
	return kafka.Message{
		Key:   []byte(e.AggregateID()),
		Value: value,
		Time:  e.OccurredAt(),
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(e.EventType())},
			{Key: headerEventID, Value: []byte(e.EventID().String())},
			{Key: headerAggregateType, Value: []byte(e.AggregateType())},
		},
	}, nil
}

// Close flushes pending writes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
