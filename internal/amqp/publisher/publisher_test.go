package publisher

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type message struct {
	Hash  string `json:"hash"`
	Found bool   `json:"found"`
}

type fakeSink struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
}

func (f *fakeSink) Publish(_ context.Context, exchange string, key string, _ bool, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func TestSendMessage(t *testing.T) {
	sink := &fakeSink{}
	p := newPublisher[message](sink, &Config{Exchange: "crack", RoutingKey: "responses"})
	require.NoError(t, p.SendMessage(context.Background(), &message{Hash: "abc", Found: true}, Persistent, false, false))

	assert.Equal(t, "crack", sink.exchange)
	assert.Equal(t, "responses", sink.key)
	assert.Equal(t, "application/json", sink.msg.ContentType)
	assert.Equal(t, uint8(Persistent), sink.msg.DeliveryMode)
	var decoded message
	require.NoError(t, json.Unmarshal(sink.msg.Body, &decoded))
	assert.Equal(t, message{Hash: "abc", Found: true}, decoded)
}

func TestSendMessageErrors(t *testing.T) {
	publishErr := errors.New("channel closed")
	p := newPublisher[message](&fakeSink{err: publishErr}, &Config{})
	err := p.SendMessage(context.Background(), &message{}, Transient, false, false)
	assert.True(t, errors.Is(err, publishErr))

	marshalErr := errors.New("cannot marshal")
	p = newPublisher[message](&fakeSink{}, &Config{Marshal: func(any) ([]byte, error) { return nil, marshalErr }})
	err = p.SendMessage(context.Background(), &message{}, Transient, false, false)
	assert.True(t, errors.Is(err, marshalErr))
}
