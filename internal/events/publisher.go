package events

import (
	"context"
	"time"

	"spadesk/pkg/kafka"
	"spadesk/pkg/logger"
	"spadesk/pkg/middleware"
)

const publishTimeout = 5 * time.Second

// Publisher never reports failures to the caller: a ledger mutation that
// has committed must not be undone because the broker is down.
type Publisher interface {
	Publish(ctx context.Context, events ...Event)
}

type MessageProducer interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type KafkaPublisher struct {
	producer MessageProducer
	source   string
	log      *logger.Logger
}

func NewKafkaPublisher(producer MessageProducer, source string, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		source:   source,
		log:      log,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events ...Event) {
	if len(events) == 0 {
		return
	}

	correlationID := middleware.RequestIDFromContext(ctx)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	for _, ev := range events {
		msg, err := kafka.NewMessage().
			WithKey(ev.CustomerID).
			WithValue(ev).
			WithEventID(ev.ID).
			WithEventType(ev.Type).
			WithCorrelationID(correlationID).
			WithSchemaVersion(SchemaVersion).
			WithSource(p.source).
			WithTimestamp(ev.OccurredAt).
			Build()
		if err == nil {
			err = p.producer.Publish(ctx, msg)
		}
		if err != nil {
			p.log.Error("failed to publish ledger event",
				"event_type", ev.Type,
				"event_id", ev.ID,
				"customer_id", ev.CustomerID,
				"reference_id", ev.ReferenceID,
				"error", err,
			)
		}
	}
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ...Event) {}
