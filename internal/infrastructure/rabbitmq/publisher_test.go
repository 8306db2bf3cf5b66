package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	published []amqp.Publishing
	keys      []string
	err       error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func newTestPublisher(ch channel) (*Publisher, chan amqp.Confirmation, chan amqp.Return) {
	confirms := make(chan amqp.Confirmation, 1)
	returns := make(chan amqp.Return, 1)
	return &Publisher{exchange: DefaultExchange, ch: ch, confirmCh: confirms, returnCh: returns}, confirms, returns
}

func TestPublishEvent_Ack(t *testing.T) {
	ch := &fakeChannel{}
	p, confirms, _ := newTestPublisher(ch)
	confirms <- amqp.Confirmation{DeliveryTag: 1, Ack: true}

	require.NoError(t, p.PublishEvent(context.Background(), "participant.promoted", map[string]int{"event_id": 5}))

	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.Equal(t, "participant.promoted", ch.keys[0])
	assert.Equal(t, "application/json", msg.ContentType)
	assert.NotEmpty(t, msg.MessageId)

	var body map[string]int
	require.NoError(t, json.Unmarshal(msg.Body, &body))
	assert.Equal(t, 5, body["event_id"])
}

func TestPublishEvent_Nack(t *testing.T) {
	p, confirms, _ := newTestPublisher(&fakeChannel{})
	confirms <- amqp.Confirmation{Ack: false}

	assert.EqualError(t, p.PublishEvent(context.Background(), "k", 1), "publish nack")
}

func TestPublishEvent_NoRoute(t *testing.T) {
	p, _, returns := newTestPublisher(&fakeChannel{})
	returns <- amqp.Return{RoutingKey: "catalog.attached"}

	err := p.PublishEvent(context.Background(), "catalog.attached", 1)
	assert.EqualError(t, err, "NO_ROUTE: catalog.attached")
}

func TestPublishEvent_NoConfirmIsBestEffort(t *testing.T) {
	p, _, _ := newTestPublisher(&fakeChannel{})
	assert.NoError(t, p.PublishEvent(context.Background(), "k", 1))
}

func TestPublishEvent_Errors(t *testing.T) {
	boom := errors.New("channel closed")
	p, _, _ := newTestPublisher(&fakeChannel{err: boom})
	assert.ErrorIs(t, p.PublishEvent(context.Background(), "k", 1), boom)

	assert.Error(t, p.PublishEvent(context.Background(), "", 1))
	assert.Error(t, p.PublishEvent(context.Background(), "k", func() {}))

	require.NoError(t, p.Close())
	assert.EqualError(t, p.PublishEvent(context.Background(), "k", 1), "publisher channel not ready")
}
