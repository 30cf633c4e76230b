package rabbitmq

import (
	"context"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewPublisher_RejectsBadURL(t *testing.T) {
	p, err := NewPublisher("http://localhost:5672", "doorstep.leads", zap.NewNop())

	require.Error(t, err)
	assert.Nil(t, p)
	assert.Contains(t, err.Error(), "rabbitmq dial failed")
}

func TestPublisher_CloseWithoutConnection(t *testing.T) {
	p := &Publisher{exchange: "doorstep.leads", logger: zap.NewNop()}

	assert.NoError(t, p.Close())
	assert.NoError(t, p.Close())
}

func TestAwaitConfirm(t *testing.T) {
	t.Run("ack", func(t *testing.T) {
		confirms := make(chan amqp.Confirmation, 1)
		confirms <- amqp.Confirmation{DeliveryTag: 1, Ack: true}

		assert.NoError(t, awaitConfirm(context.Background(), confirms, 1, time.Second))
	})

	t.Run("nack", func(t *testing.T) {
		confirms := make(chan amqp.Confirmation, 1)
		confirms <- amqp.Confirmation{DeliveryTag: 1, Ack: false}

		assert.ErrorIs(t, awaitConfirm(context.Background(), confirms, 1, time.Second), errNotAcknowledged)
	})

	t.Run("closed stream", func(t *testing.T) {
		confirms := make(chan amqp.Confirmation)
		close(confirms)

		assert.ErrorIs(t, awaitConfirm(context.Background(), confirms, 1, time.Second), errConfirmStreamClosed)
	})

	t.Run("stale confirm is skipped", func(t *testing.T) {
		confirms := make(chan amqp.Confirmation, 2)
		confirms <- amqp.Confirmation{DeliveryTag: 1, Ack: true}
		confirms <- amqp.Confirmation{DeliveryTag: 2, Ack: false}

		assert.ErrorIs(t, awaitConfirm(context.Background(), confirms, 2, time.Second), errNotAcknowledged)
	})
}

func TestAwaitConfirm_TimeoutConsumesLateConfirm(t *testing.T) {
	confirms := make(chan amqp.Confirmation, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	go func() {
		time.Sleep(50 * time.Millisecond)
		confirms <- amqp.Confirmation{DeliveryTag: 1, Ack: true}
	}()

	err := awaitConfirm(ctx, confirms, 1, time.Second)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, confirms, "the late confirm must not be left for the next publish")

	// The next publish sees only its own nack.
	confirms <- amqp.Confirmation{DeliveryTag: 2, Ack: false}
	assert.ErrorIs(t, awaitConfirm(context.Background(), confirms, 2, time.Second), errNotAcknowledged)
}

func TestAwaitConfirm_GraceExpires(t *testing.T) {
	confirms := make(chan amqp.Confirmation, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := awaitConfirm(ctx, confirms, 1, 20*time.Millisecond)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
