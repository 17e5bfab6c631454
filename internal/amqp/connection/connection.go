package connection

import (
	"context"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ConnAlreadyClosedErr    = errors.New("connection is already closed")
	ChannelAlreadyClosedErr = errors.New("channel is already closed")
)

// Connection wraps an AMQP connection and redials it whenever the broker
// closes it, until Close is called.
type Connection struct {
	l    zerolog.Logger
	uri  string
	opts amqp.Config
	conn *amqp.Connection

	reconnectTimeout time.Duration

	reconnectLock sync.RWMutex
	closed        atomic.Bool

	cancel context.CancelFunc
}

// Channel is a reopening AMQP channel bound to a Connection.
type Channel struct {
	l    zerolog.Logger
	ch   *amqp.Channel
	conn *Connection

	reconnectTimeout time.Duration
	prefetch         int

	reconnectLock sync.RWMutex
	closed        atomic.Bool

	cancel context.CancelFunc
}

func NewConnection(
	ctx context.Context,
	uri string,
	opts amqp.Config,
	reconnectTimeout time.Duration,
) (*Connection, error) {
	c, err := amqp.DialConfig(uri, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to dial amqp connection")
	}
	ctx, cancel := context.WithCancel(ctx)
	conn := &Connection{
		uri:              uri,
		opts:             opts,
		conn:             c,
		cancel:           cancel,
		reconnectTimeout: reconnectTimeout,
		l:                log.With().Str("component", "amqp-connection").Logger(),
	}
	go conn.runNotifyWatcher(ctx)
	return conn, nil
}

func (c *Connection) Connection() *amqp.Connection {
	c.reconnectLock.RLock()
	defer c.reconnectLock.RUnlock()
	return c.conn
}

func (c *Connection) Close() error {
	if c.closed.Swap(true) {
		return ConnAlreadyClosedErr
	}
	c.cancel()
	if err := c.Connection().Close(); err != nil {
		return errors.Wrap(err, "failed to close amqp connection")
	}
	return nil
}

func (c *Connection) IsClosed() bool {
	return c.closed.Load()
}

func (c *Connection) runNotifyWatcher(ctx context.Context) {
	c.l.Debug().Msg("amqp connection watcher running")
	for {
		select {
		case <-ctx.Done():
			c.l.Debug().Msg("watcher stopped")
			return
		case err, ok := <-c.Connection().NotifyClose(make(chan *amqp.Error, 1)):
			if !ok || c.IsClosed() {
				c.l.Debug().Msg("watcher stopped")
				return
			}
			c.l.Warn().Err(err).Msg("connection closed, try to reconnect")
			if !c.redial(ctx) {
				return
			}
			c.l.Info().Msg("amqp connection reconnected")
		}
	}
}

func (c *Connection) redial(ctx context.Context) bool {
	for {
		if c.IsClosed() {
			return false
		}
		cc, err := amqp.DialConfig(c.uri, c.opts)
		if err == nil {
			c.reconnectLock.Lock()
			c.conn = cc
			c.reconnectLock.Unlock()
			return true
		}
		c.l.Warn().Err(err).Msg("amqp connection error")
		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.reconnectTimeout):
		}
	}
}

// Channel opens a channel with the given prefetch count. A prefetch of zero
// leaves the broker default.
func (c *Connection) Channel(ctx context.Context, prefetch int) (*Channel, error) {
	amqpCh, err := c.openChannel(prefetch)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	ch := &Channel{
		ch:               amqpCh,
		conn:             c,
		prefetch:         prefetch,
		reconnectTimeout: c.reconnectTimeout,
		cancel:           cancel,
		l:                log.With().Str("component", "amqp-channel").Logger(),
	}
	go ch.runNotifyWatcher(ctx)
	return ch, nil
}

func (c *Connection) openChannel(prefetch int) (*amqp.Channel, error) {
	amqpCh, err := c.Connection().Channel()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open channel")
	}
	if prefetch > 0 {
		if err := amqpCh.Qos(prefetch, 0, false); err != nil {
			_ = amqpCh.Close()
			return nil, errors.Wrap(err, "failed to set channel qos")
		}
	}
	return amqpCh, nil
}

func (ch *Channel) Channel() *amqp.Channel {
	ch.reconnectLock.RLock()
	defer ch.reconnectLock.RUnlock()
	return ch.ch
}

func (ch *Channel) Close() error {
	if ch.closed.Swap(true) {
		return ChannelAlreadyClosedErr
	}
	ch.cancel()
	if err := ch.Channel().Close(); err != nil {
		return errors.Wrap(err, "failed to close amqp channel")
	}
	return nil
}

func (ch *Channel) IsClosed() bool {
	return ch.closed.Load()
}

// Consume delivers messages from queue until ctx is done or the channel is
// closed, resubscribing after channel failures.
func (ch *Channel) Consume(
	ctx context.Context, queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table,
) <-chan amqp.Delivery {
	deliveries := make(chan amqp.Delivery)
	go ch.runConsumer(ctx, deliveries, queue, consumer, autoAck, exclusive, noLocal, noWait, args)
	return deliveries
}

func (ch *Channel) runConsumer(
	ctx context.Context, deliveries chan<- amqp.Delivery, queue, consumer string, autoAck, exclusive, noLocal,
	noWait bool, args amqp.Table,
) {
	defer close(deliveries)
	for {
		if ctx.Err() != nil || ch.IsClosed() {
			return
		}
		d, err := ch.Channel().ConsumeWithContext(ctx, queue, consumer, autoAck, exclusive, noLocal, noWait, args)
		if err != nil {
			ch.l.Error().Err(err).Str("queue", queue).Msg("failed to consume")
			select {
			case <-ctx.Done():
				return
			case <-time.After(ch.reconnectTimeout):
			}
			continue
		}
		for msg := range d {
			select {
			case deliveries <- msg:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (ch *Channel) Publish(ctx context.Context, exchange string, key string, mandatory bool, immediate bool, msg amqp.Publishing) error {
	if err := ch.Channel().PublishWithContext(ctx, exchange, key, mandatory, immediate, msg); err != nil {
		return errors.Wrap(err, "failed to publish")
	}
	return nil
}

func (ch *Channel) runNotifyWatcher(ctx context.Context) {
	ch.l.Debug().Msg("amqp channel watcher running")
	for {
		select {
		case <-ctx.Done():
			ch.l.Debug().Msg("watcher stopped")
			return
		case err, ok := <-ch.Channel().NotifyClose(make(chan *amqp.Error, 1)):
			if !ok || ch.IsClosed() {
				ch.l.Debug().Msg("watcher stopped")
				return
			}
			ch.l.Warn().Err(err).Msg("channel closed, try to reopen")
			if !ch.reopen(ctx) {
				return
			}
			ch.l.Info().Msg("amqp channel reopened")
		}
	}
}

func (ch *Channel) reopen(ctx context.Context) bool {
	for {
		if ch.IsClosed() {
			return false
		}
		cch, err := ch.conn.openChannel(ch.prefetch)
		if err == nil {
			ch.reconnectLock.Lock()
			ch.ch = cch
			ch.reconnectLock.Unlock()
			return true
		}
		ch.l.Warn().Err(err).Msg("amqp channel error")
		select {
		case <-ctx.Done():
			return false
		case <-time.After(ch.reconnectTimeout):
		}
	}
}
