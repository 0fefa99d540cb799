package event

import (
	"context"

	"github.com/matreq/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LogPublisher writes domain events to the application log. It is used when
// no broker is configured.
type LogPublisher struct {
	serializer *EventSerializer
	logger     *zap.Logger
}

// Ensure LogPublisher implements EventPublisher
var _ shared.EventPublisher = (*LogPublisher)(nil)

// NewLogPublisher creates a new LogPublisher
func NewLogPublisher(serializer *EventSerializer, logger *zap.Logger) *LogPublisher {
	if serializer == nil {
		serializer = NewEventSerializer()
	}
	return &LogPublisher{serializer: serializer, logger: logger.Named("events")}
}

// Publish logs each event with its JSON payload
func (p *LogPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, e := range events {
		payload, err := p.serializer.Serialize(e)
		if err != nil {
			return err
		}
		p.logger.Info("Domain event",
			zap.String("event_type", e.EventType()),
			zap.String("event_id", e.EventID().String()),
			zap.String("aggregate_type", e.AggregateType()),
			zap.String("aggregate_id", e.AggregateID()),
			zap.ByteString("payload", payload),
		)
	}
	return nil
}
