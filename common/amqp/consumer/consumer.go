package consumer

import (
	"context"
	"encoding/json"
	"runtime/debug"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ykhdr/crack-dict/common/amqp/connection"
)

type Unmarshal func(data []byte, v any) error

type Handler[T any] func(ctx context.Context, data *T, delivery amqp.Delivery) error

type Config struct {
	Unmarshal Unmarshal
	// Queue is consumed as is unless Binding is set.
	Queue     string
	Binding   *connection.Binding
	Consumer  string
	AutoAck   bool
	Exclusive bool
	NoLocal   bool
	NoWait    bool
	Args      map[string]any
}

type Consumer interface {
	// Subscribe blocks until ctx is done or the channel is closed.
	Subscribe(ctx context.Context)
}

type consumer[T any] struct {
	cfg       *Config
	ch        *connection.Channel
	handler   Handler[T]
	unmarshal Unmarshal
	l         zerolog.Logger
}

func New[T any](ch *connection.Channel, handler Handler[T], cfg *Config) Consumer {
	if handler == nil {
		handler = func(context.Context, *T, amqp.Delivery) error { return nil }
	}
	if cfg.Unmarshal == nil {
		cfg.Unmarshal = json.Unmarshal
	}
	l := log.With().
		Str("component", "amqp-consumer").
		Type("type", *new(T)).
		Str("queue", cfg.Queue)
	if cfg.Binding != nil {
		l = l.Str("exchange", cfg.Binding.Exchange)
	}
	return &consumer[T]{
		ch:        ch,
		handler:   handler,
		cfg:       cfg,
		unmarshal: cfg.Unmarshal,
		l:         l.Logger(),
	}
}

func (c *consumer[T]) Subscribe(ctx context.Context) {
	msgCh := c.ch.Consume(
		ctx,
		c.cfg.Queue,
		c.cfg.Binding,
		c.cfg.Consumer,
		c.cfg.AutoAck,
		c.cfg.Exclusive,
		c.cfg.NoLocal,
		c.cfg.NoWait,
		c.cfg.Args,
	)
	c.l.Debug().Msg("consumer connected")
	for {
		select {
		case <-ctx.Done():
			c.l.Debug().Msg("consumer stopped")
			return
		case d, ok := <-msgCh:
			if !ok {
				c.l.Debug().Msg("consumer closed")
				return
			}
			c.l.Debug().Bytes("body", d.Body).Msg("got new event")
			data := new(T)
			if err := c.unmarshal(d.Body, data); err != nil {
				c.l.Error().Err(err).Msg("failed to unmarshal event")
				continue
			}
			c.handle(ctx, data, d)
		}
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
