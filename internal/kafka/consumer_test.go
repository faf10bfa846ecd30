package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumerStartReturnsNilOnContextCancel(t *testing.T) {
	consumer := NewConsumer([]string{"localhost:1"}, "test-topic", "test-group")
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := consumer.Start(ctx, func(key, value []byte) error {
		t.Fatal("handler must not run after cancellation")
		return nil
	})
	assert.NoError(t, err)
}

func TestConsumerStartReturnsErrorWhenReaderClosed(t *testing.T) {
	consumer := NewConsumer([]string{"localhost:1"}, "test-topic", "test-group")
	require.NoError(t, consumer.Close())

	err := consumer.Start(context.Background(), func(key, value []byte) error {
		return nil
	})
	assert.Error(t, err)
}
