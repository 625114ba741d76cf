package push

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
	key  string
	msgs []amqp.Publishing
	err  error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.key = key
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func TestPublisher_SendPush(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{ch: ch, queue: "push_test"}

	require.NoError(t, p.SendPush(context.Background(), 9, "Booking confirmed", "See you Friday"))
	require.Len(t, ch.msgs, 1)
	assert.Equal(t, "push_test", ch.key)

	pub := ch.msgs[0]
	assert.Equal(t, "application/json", pub.ContentType)
	assert.Equal(t, amqp.Persistent, pub.DeliveryMode)

	var msg Message
	require.NoError(t, json.Unmarshal(pub.Body, &msg))
	assert.Equal(t, uint(9), msg.UserID)
	assert.Equal(t, "Booking confirmed", msg.Title)
	assert.Equal(t, "See you Friday", msg.Body)
	assert.Equal(t, pub.MessageId, msg.ID)
}

func TestPublisher_SendPushError(t *testing.T) {
	p := &Publisher{ch: &fakeChannel{err: errors.New("channel closed")}, queue: "q"}
	assert.EqualError(t, p.SendPush(context.Background(), 1, "t", "b"), "channel closed")
}

func TestDial_RequiresURL(t *testing.T) {
	_, err := Dial("", "q")
	assert.Error(t, err)
}
