package kafka

import (
	"context"
	"errors"
	"testing"

	"spadesk/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildMessage(t *testing.T, key string, value any) Message {
	t.Helper()
	msg, err := NewMessage().WithKey(key).WithValue(value).WithEventType("deposit.created").Build()
	require.NoError(t, err)
	return msg
}

func TestProducer_Publish(t *testing.T) {
	writer := &fakeWriter{}
	p := newProducer(writer, nil, logger.Nop(), "ledger-events", "")

	msg := buildMessage(t, "cust-1", map[string]int64{"amount": 1000})
	require.NoError(t, p.Publish(context.Background(), msg))

	written := writer.written()
	require.Len(t, written, 1)
	assert.Equal(t, "cust-1", string(written[0].Key))
	assert.JSONEq(t, `{"amount":1000}`, string(written[0].Value))
	assert.Equal(t, "deposit.created", headerValue(written[0], HeaderEventType))
	assert.NotEmpty(t, headerValue(written[0], HeaderEventID))
}

func TestProducer_RejectsInvalidMessages(t *testing.T) {
	p := newProducer(&fakeWriter{}, nil, logger.Nop(), "ledger-events", "")

	err := p.Publish(context.Background(), Message{Value: []byte("x")})
	assert.ErrorIs(t, err, ErrEmptyKey)

	err = p.Publish(context.Background(), Message{Key: "k"})
	assert.ErrorIs(t, err, ErrEmptyValue)
}

func TestProducer_ClosedRejectsPublish(t *testing.T) {
	writer := &fakeWriter{}
	p := newProducer(writer, nil, logger.Nop(), "ledger-events", "")

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.True(t, writer.closed)

	err := p.Publish(context.Background(), buildMessage(t, "k", 1))
	assert.ErrorIs(t, err, ErrProducerClosed)
}

func TestProducer_FailedWriteGoesToDLQ(t *testing.T) {
	writeErr := errors.New("connection refused")
	writer := &fakeWriter{err: writeErr}
	dlq := &fakeWriter{}
	p := newProducer(writer, dlq, logger.Nop(), "ledger-events", "ledger-events-dlq")

	msg := buildMessage(t, "cust-1", 1)
	err := p.Publish(context.Background(), msg)
	assert.ErrorIs(t, err, writeErr)

	parked := dlq.written()
	require.Len(t, parked, 1)
	assert.Equal(t, "ledger-events", headerValue(parked[0], HeaderOriginalTopic))
	assert.Equal(t, "connection refused", headerValue(parked[0], HeaderDLQError))
	_, touched := msg.Headers[HeaderDLQError]
	assert.False(t, touched)
}

func TestProducer_MiddlewareOrder(t *testing.T) {
	p := newProducer(&fakeWriter{}, nil, logger.Nop(), "ledger-events", "")

	var calls []string
	record := func(name string) ProducerMiddleware {
		return func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
			calls = append(calls, name)
			return next(ctx, msg)
		}
	}
	p.Use(record("outer"))
	p.Use(record("inner"))

	require.NoError(t, p.Publish(context.Background(), buildMessage(t, "k", 1)))
	assert.Equal(t, []string{"outer", "inner"}, calls)
}
