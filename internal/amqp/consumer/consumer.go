package consumer

import (
	"context"
	"encoding/json"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/ykhdr/rainbow-hash/internal/amqp/connection"
	"runtime/debug"
)

type Unmarshal func(data []byte, v any) error

// Handler processes one decoded message. It is responsible for acknowledging
// the delivery unless the consumer runs with AutoAck.
type Handler[T any] func(ctx context.Context, data *T, delivery amqp.Delivery) error

type Config struct {
	Unmarshal Unmarshal
	Queue     string
	Consumer  string
	AutoAck   bool
	Exclusive bool
	NoLocal   bool
	NoWait    bool
	Args      map[string]any
}

type Consumer interface {
	Subscribe(ctx context.Context)
}

type source interface {
	Consume(ctx context.Context, queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) <-chan amqp.Delivery
	IsClosed() bool
}

type consumer[T any] struct {
	cfg     *Config
	ch      source
	handler Handler[T]
	l       zerolog.Logger
}

func New[T any](ch *connection.Channel, handler Handler[T], cfg *Config) Consumer {
	return newConsumer[T](ch, handler, cfg)
}

func newConsumer[T any](ch source, handler Handler[T], cfg *Config) *consumer[T] {
	if handler == nil {
		handler = func(context.Context, *T, amqp.Delivery) error { return nil }
	}
	if cfg.Unmarshal == nil {
		cfg.Unmarshal = json.Unmarshal
	}
	return &consumer[T]{
		ch:      ch,
		handler: handler,
		cfg:     cfg,
		l: log.With().
			Str("component", "amqp-consumer").
			Type("type", *new(T)).
			Str("queue", cfg.Queue).
			Logger(),
	}
}

func (c *consumer[T]) connect(ctx context.Context) <-chan amqp.Delivery {
	return c.ch.Consume(
		ctx,
		c.cfg.Queue,
		c.cfg.Consumer,
		c.cfg.AutoAck,
		c.cfg.Exclusive,
		c.cfg.NoLocal,
		c.cfg.NoWait,
		c.cfg.Args,
	)
}

func (c *consumer[T]) Subscribe(ctx context.Context) {
	msgCh := c.connect(ctx)
	c.l.Debug().Msg("consumer connected")
	for {
		select {
		case <-ctx.Done():
			c.l.Debug().Msg("consumer stopped")
			return

		case d, ok := <-msgCh:
			if !ok {
				if c.ch.IsClosed() || ctx.Err() != nil {
					c.l.Debug().Msg("consumer stopped")
					return
				}
				c.l.Debug().Msg("consumer closed, try to reconnect")
				msgCh = c.connect(ctx)
				continue
			}
			c.l.Trace().Bytes("body", d.Body).Msg("got new event")
			data := new(T)
			if err := c.cfg.Unmarshal(d.Body, data); err != nil {
				c.l.Error().Err(err).Msg("failed to unmarshal event")
				c.reject(d)
				continue
			}
			c.handle(ctx, data, d)
		}
	}
}

// reject drops a message that can never be decoded instead of redelivering it.
func (c *consumer[T]) reject(d amqp.Delivery) {
	if c.cfg.AutoAck || d.Acknowledger == nil {
		return
	}
	if err := d.Reject(false); err != nil {
		c.l.Warn().Err(err).Msg("failed to reject event")
	}
}

func (c *consumer[T]) handle(ctx context.Context, data *T, d amqp.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			c.l.Error().Msgf("catch panic: %v\n%s", r, string(debug.Stack()))
		}
	}()
	if err := c.handler(ctx, data, d); err != nil {
		c.l.Error().Err(err).Msg("failed to consume event")
	}
}
