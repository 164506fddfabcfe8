package publisher

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ykhdr/crack-dict/common/amqp/connection"
)

type DeliveryMode uint8

const (
	Transient  DeliveryMode = 1
	Persistent DeliveryMode = 2
)

type Marshal func(any) ([]byte, error)

type Config struct {
	Exchange    string
	RoutingKey  string
	Marshal     Marshal
	ContentType string
}

type Publisher[T any] interface {
	SendMessage(ctx context.Context, message *T, mode DeliveryMode) error
}

type publisher[T any] struct {
	cfg         *Config
	ch          *connection.Channel
	marshal     Marshal
	contentType string
	l           zerolog.Logger
}

func New[T any](ch *connection.Channel, config *Config) Publisher[T] {
	if config.Marshal == nil {
		config.Marshal = json.Marshal
	}
	if config.ContentType == "" {
		config.ContentType = "application/json"
	}
	return &publisher[T]{
		cfg:         config,
		ch:          ch,
		marshal:     config.Marshal,
		contentType: config.ContentType,
		l: log.With().
			Str("component", "amqp-publisher").
			Type("type", *new(T)).
			Str("exchange", config.Exchange).
			Str("routing-key", config.RoutingKey).
			Logger(),
	}
}

func (p *publisher[T]) SendMessage(ctx context.Context, message *T, mode DeliveryMode) error {
	p.l.Debug().Msg("send message")
	body, err := p.marshal(message)
	if err != nil {
		return errors.Wrap(err, "failed to marshal message")
	}
	msg := amqp.Publishing{
		DeliveryMode: uint8(mode),
		ContentType:  p.contentType,
		Body:         body,
	}
	if err := p.ch.Publish(ctx, p.cfg.Exchange, p.cfg.RoutingKey, false, false, msg); err != nil {
		p.l.Error().Err(err).Msg("failed to send message")
		return errors.Wrap(err, "failed to send message")
	}
	return nil
}
