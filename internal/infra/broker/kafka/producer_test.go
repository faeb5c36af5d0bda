package kafka

import (
	"context"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducerPublishesKeyedMessage(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	mock := mocks.NewSyncProducer(t, cfg)
	mock.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, err := msg.Key.Encode()
		require.NoError(t, err)
		assert.Equal(t, "casa-azul", string(key))
		assert.Equal(t, "stayquote.events", msg.Topic)
		require.Len(t, msg.Headers, 1)
		assert.Equal(t, "event_name", string(msg.Headers[0].Key))
		return nil
	})

	p := NewProducerFrom(mock)
	err := p.Publish(context.Background(), "stayquote.events", "casa-azul", []byte(`{}`), map[string]string{"event_name": "calendar.synced"})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestProducerHonoursCancelledContext(t *testing.T) {
	mock := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewProducerFrom(mock).Publish(ctx, "t", "k", nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
	require.NoError(t, mock.Close())
}
