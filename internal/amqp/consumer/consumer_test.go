package consumer

import (
	"context"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type message struct {
	Hash string `json:"hash"`
}

type fakeSource struct {
	deliveries chan amqp.Delivery
	queue      string
}

func (f *fakeSource) Consume(_ context.Context, queue, _ string, _, _, _, _ bool, _ amqp.Table) <-chan amqp.Delivery {
	f.queue = queue
	return f.deliveries
}

func (f *fakeSource) IsClosed() bool {
	return true
}

func TestSubscribeDecodesAndHandles(t *testing.T) {
	src := &fakeSource{deliveries: make(chan amqp.Delivery, 4)}
	src.deliveries <- amqp.Delivery{Body: []byte(`{"hash":"abc"}`)}
	src.deliveries <- amqp.Delivery{Body: []byte(`not json`)}
	src.deliveries <- amqp.Delivery{Body: []byte(`{"hash":"panic"}`)}
	src.deliveries <- amqp.Delivery{Body: []byte(`{"hash":"def"}`)}
	close(src.deliveries)

	var got []string
	c := newConsumer[message](src, func(_ context.Context, data *message, _ amqp.Delivery) error {
		if data.Hash == "panic" {
			panic("handler exploded")
		}
		got = append(got, data.Hash)
		return nil
	}, &Config{Queue: "crack.requests"})

	done := make(chan struct{})
	go func() {
		c.Subscribe(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "consumer did not stop")
	}
	assert.Equal(t, []string{"abc", "def"}, got)
	assert.Equal(t, "crack.requests", src.queue)
}

func TestSubscribeStopsOnContext(t *testing.T) {
	src := &fakeSource{deliveries: make(chan amqp.Delivery)}
	c := newConsumer[message](src, nil, &Config{Queue: "q"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Subscribe(ctx)
}
