package kafka

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"spadesk/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runConsumer(t *testing.T, c *Consumer, reader *fakeReader, wantCommits int) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool { return reader.commits() >= wantCommits }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestConsumer_HandlesAndCommits(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{
		{Key: []byte("a"), Value: []byte(`1`)},
		{Key: []byte("b"), Value: []byte(`2`)},
	}}

	var handled atomic.Int32
	c := newConsumer(reader, nil, logger.Nop(), "ledger-events", "auditor", func(ctx context.Context, msg Message) error {
		handled.Add(1)
		return nil
	})

	runConsumer(t, c, reader, 2)
	assert.Equal(t, int32(2), handled.Load())
}

func TestConsumer_RetriesTransientErrors(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{{Key: []byte("a"), Value: []byte(`1`)}}}

	var attempts atomic.Int32
	c := newConsumer(reader, nil, logger.Nop(), "ledger-events", "auditor", func(ctx context.Context, msg Message) error {
		if attempts.Add(1) < 3 {
			return NewTransientError("store unavailable", errors.New("timeout"))
		}
		return nil
	})
	c.maxRetries = 3

	runConsumer(t, c, reader, 1)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestConsumer_PermanentErrorGoesToDLQ(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{{Key: []byte("a"), Value: []byte(`not json`)}}}
	dlq := &fakeWriter{}

	var attempts atomic.Int32
	c := newConsumer(reader, dlq, logger.Nop(), "ledger-events", "auditor", func(ctx context.Context, msg Message) error {
		attempts.Add(1)
		var v map[string]any
		return msg.DecodeValue(&v)
	})
	c.maxRetries = 5

	runConsumer(t, c, reader, 1)

	assert.Equal(t, int32(1), attempts.Load())
	parked := dlq.written()
	require.Len(t, parked, 1)
	assert.Equal(t, "auditor", headerValue(parked[0], HeaderDLQGroup))
	assert.Equal(t, "ledger-events", headerValue(parked[0], HeaderOriginalTopic))
}

func TestConsumer_ClosedRejectsStart(t *testing.T) {
	reader := &fakeReader{}
	c := newConsumer(reader, nil, logger.Nop(), "t", "g", func(context.Context, Message) error { return nil })

	require.NoError(t, c.Close())
	assert.True(t, reader.closed)
	assert.ErrorIs(t, c.Start(context.Background()), ErrConsumerClosed)
}
