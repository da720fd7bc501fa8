package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	key        string
	published  []amqp.Publishing
	publishErr error
	closed     bool
}

func (f *fakeChannel) Publish(_, key string, _, _ bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.key = key
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublish_SendsPersistentJSON(t *testing.T) {
	ch := &fakeChannel{}
	client := &Client{channel: ch, queue: ProductEventsQueue, log: zerolog.Nop()}

	event := NewEvent(EventProductCreated, map[string]any{"id": 1, "name": "Mouse"})
	require.NoError(t, client.Publish(context.Background(), event))

	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.Equal(t, ProductEventsQueue, ch.key)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, event.ID, msg.MessageId)
	assert.Equal(t, EventProductCreated, msg.Type)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, EventProductCreated, decoded["type"])
	assert.Equal(t, event.ID, decoded["id"])
	assert.Equal(t, "Mouse", decoded["product"].(map[string]any)["name"])
	assert.Contains(t, decoded, "occurred_at")
}

func TestPublish_WrapsChannelError(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("channel closed")}
	client := &Client{channel: ch, queue: ProductEventsQueue, log: zerolog.Nop()}

	err := client.Publish(context.Background(), NewEvent(EventProductDeleted, nil))
	assert.ErrorContains(t, err, "failed to publish message")
}

func TestPublish_CanceledContext(t *testing.T) {
	ch := &fakeChannel{}
	client := &Client{channel: ch, queue: ProductEventsQueue, log: zerolog.Nop()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, client.Publish(ctx, NewEvent(EventProductUpdated, nil)), context.Canceled)
	assert.Empty(t, ch.published)
}

func TestClose_ClosesChannel(t *testing.T) {
	ch := &fakeChannel{}
	client := &Client{channel: ch}

	assert.NoError(t, client.Close())
	assert.True(t, ch.closed)
}

func TestNewEvent(t *testing.T) {
	a := NewEvent(EventProductAvailabilityToggled, nil)
	b := NewEvent(EventProductAvailabilityToggled, nil)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, EventProductAvailabilityToggled, a.Type)
	assert.False(t, a.OccurredAt.IsZero())
}
