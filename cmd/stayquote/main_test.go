package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayquote/internal/infra/config"
	"stayquote/internal/infra/obs"
	"stayquote/internal/infra/outbox"
	"stayquote/internal/infra/storage/memory"
)

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, string, []byte, map[string]string) error {
	return nil
}

func TestEventOutbox(t *testing.T) {
	cfg := config.Config{KafkaEventsTopic: "stayquote.events"}
	durable := &outbox.Store{}

	t.Run("durable store without brokers is skipped", func(t *testing.T) {
		box, relay := eventOutbox(cfg, durable, nil, obs.Discard())
		assert.IsType(t, &memory.Outbox{}, box)
		assert.Nil(t, relay)
	})

	t.Run("memory mode relays after commit", func(t *testing.T) {
		box, relay := eventOutbox(cfg, nil, nopPublisher{}, obs.Discard())
		assert.IsType(t, &memory.Outbox{}, box)
		assert.Nil(t, relay)
	})

	t.Run("durable store with brokers gets a relay", func(t *testing.T) {
		box, relay := eventOutbox(cfg, durable, nopPublisher{}, obs.Discard())
		assert.Same(t, durable, box)
		require.NotNil(t, relay)
		assert.Same(t, durable, relay.Queue)
		assert.Equal(t, "stayquote.events", relay.Topic)
	})
}
