package kafka_middleware

import (
	"context"
	"time"

	"spadesk/pkg/kafka"
	"spadesk/pkg/metrics"
)

const (
	DirectionPublish = "publish"
	DirectionConsume = "consume"
)

func MetricsProducerMiddleware(m *metrics.Metrics) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)
		m.ObserveKafka(DirectionPublish, err, time.Since(start))
		return err
	}
}

func MetricsConsumerMiddleware(m *metrics.Metrics) kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		m.ObserveKafka(DirectionConsume, err, time.Since(start))
		return err
	}
}
