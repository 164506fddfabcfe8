package connection

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrConnAlreadyClosed    = errors.New("connection is already closed")
	ErrChannelAlreadyClosed = errors.New("channel is already closed")
)

// Connection redials the broker in the background when the link drops.
type Connection struct {
	l    zerolog.Logger
	uri  string
	opts amqp.Config
	conn *amqp.Connection

	reconnectTimeout time.Duration
	reconnectLock    sync.RWMutex
	closed           atomic.Bool

	cancel context.CancelFunc
}

// Channel reopens itself on the current connection when the broker closes it.
type Channel struct {
	l    zerolog.Logger
	ch   *amqp.Channel
	conn *Connection

	reconnectTimeout time.Duration
	reconnectLock    sync.RWMutex
	closed           atomic.Bool

	cancel context.CancelFunc
}

// Binding asks a consumer for a private, server-named queue bound to a
// fanout exchange. The queue is redeclared after every reconnect.
type Binding struct {
	Exchange string
}

func NewConnection(
	ctx context.Context,
	uri string,
	opts amqp.Config,
	reconnectTimeout time.Duration,
) (*Connection, error) {
	c, err := amqp.DialConfig(uri, opts)
	if err != nil {
		return nil, errors.Wrap(err, "error dial amqp connection")
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
	go conn.watch(ctx)
	return conn, nil
}

func (c *Connection) Connection() *amqp.Connection {
	c.reconnectLock.RLock()
	defer c.reconnectLock.RUnlock()
	return c.conn
}

func (c *Connection) Close() error {
	if c.closed.Swap(true) {
		return ErrConnAlreadyClosed
	}
	c.cancel()
	c.reconnectLock.Lock()
	defer c.reconnectLock.Unlock()
	if err := c.conn.Close(); err != nil {
		return errors.Wrap(err, "error close amqp connection")
	}
	return nil
}

func (c *Connection) watch(ctx context.Context) {
	for {
		notify := c.Connection().NotifyClose(make(chan *amqp.Error, 1))
		select {
		case <-ctx.Done():
			return
		case err, ok := <-notify:
			if !ok || c.closed.Load() {
				return
			}
			c.l.Warn().Err(err).Msg("connection closed, try to reconnect")
			if !c.redial(ctx) {
				return
			}
			c.l.Debug().Msg("amqp connection reconnected")
		}
	}
}

func (c *Connection) redial(ctx context.Context) bool {
	for {
		if c.closed.Load() || ctx.Err() != nil {
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
		time.Sleep(c.reconnectTimeout)
	}
}

func (c *Connection) Channel(ctx context.Context) (*Channel, error) {
	amqpCh, err := c.Connection().Channel()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open channel")
	}
	ctx, cancel := context.WithCancel(ctx)
	ch := &Channel{
		ch:               amqpCh,
		conn:             c,
		reconnectTimeout: c.reconnectTimeout,
		cancel:           cancel,
		l:                log.With().Str("component", "amqp-channel").Logger(),
	}
	go ch.watch(ctx)
	return ch, nil
}

func (ch *Channel) Channel() *amqp.Channel {
	ch.reconnectLock.RLock()
	defer ch.reconnectLock.RUnlock()
	return ch.ch
}

func (ch *Channel) Close() error {
	if ch.closed.Swap(true) {
		return ErrChannelAlreadyClosed
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

func (ch *Channel) DeclareFanout(exchange string) error {
	err := ch.Channel().ExchangeDeclare(exchange, amqp.ExchangeFanout, false, true, false, false, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to declare exchange %s", exchange)
	}
	return nil
}

func (ch *Channel) bindQueue(b *Binding) (string, error) {
	amqpCh := ch.Channel()
	q, err := amqpCh.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to declare queue")
	}
	if err := amqpCh.QueueBind(q.Name, "", b.Exchange, false, nil); err != nil {
		return "", errors.Wrapf(err, "failed to bind queue to %s", b.Exchange)
	}
	return q.Name, nil
}

// Consume delivers messages from queue, or from a fresh queue bound per
// binding when binding is not nil, until ctx is done or the channel closes.
func (ch *Channel) Consume(
	ctx context.Context, queue string, binding *Binding, consumer string, autoAck, exclusive, noLocal, noWait bool,
	args amqp.Table,
) <-chan amqp.Delivery {
	deliveries := make(chan amqp.Delivery)
	go ch.runConsumer(ctx, deliveries, queue, binding, consumer, autoAck, exclusive, noLocal, noWait, args)
	return deliveries
}

func (ch *Channel) runConsumer(
	ctx context.Context, deliveries chan<- amqp.Delivery, queue string, binding *Binding, consumer string,
	autoAck, exclusive, noLocal, noWait bool, args amqp.Table,
) {
	defer close(deliveries)
	for {
		if ctx.Err() != nil || ch.IsClosed() {
			return
		}
		name := queue
		if binding != nil {
			var err error
			if name, err = ch.bindQueue(binding); err != nil {
				ch.l.Error().Err(err).Msg("failed to bind queue")
				time.Sleep(ch.reconnectTimeout)
				continue
			}
		}
		d, err := ch.Channel().ConsumeWithContext(ctx, name, consumer, autoAck, exclusive, noLocal, noWait, args)
		if err != nil {
			ch.l.Error().Err(err).Msg("failed to consume")
			time.Sleep(ch.reconnectTimeout)
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

func (ch *Channel) watch(ctx context.Context) {
	for {
		notify := ch.Channel().NotifyClose(make(chan *amqp.Error, 1))
		select {
		case <-ctx.Done():
			return
		case err, ok := <-notify:
			if ch.closed.Load() {
				return
			}
			if ok {
				ch.l.Warn().Err(err).Msg("channel closed, try to reopen")
			}
			if !ch.reopen(ctx) {
				return
			}
			ch.l.Debug().Msg("amqp channel reopened")
		}
	}
}

func (ch *Channel) reopen(ctx context.Context) bool {
	for {
		if ch.closed.Load() || ctx.Err() != nil {
			return false
		}
		cch, err := ch.conn.Connection().Channel()
		if err == nil {
			ch.reconnectLock.Lock()
			ch.ch = cch
			ch.reconnectLock.Unlock()
			return true
		}
		ch.l.Warn().Err(err).Msg("amqp channel connection error")
		time.Sleep(ch.reconnectTimeout)
	}
}
