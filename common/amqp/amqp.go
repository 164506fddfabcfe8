package amqp

import (
	"context"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"

	conn "github.com/ykhdr/crack-dict/common/amqp/connection"
)

const (
	DefaultReconnectTimeout = 5 * time.Second
	DefaultDialTimeout      = 5 * time.Second
)

var ErrMissingURI = errors.New("amqp uri is required")

// Dial connects to the broker in cfg and keeps the connection alive.
// Credentials in cfg take precedence over the ones in the URI.
func Dial(ctx context.Context, cfg *Config) (*conn.Connection, error) {
	if cfg.URI == "" {
		return nil, ErrMissingURI
	}
	return conn.NewConnection(ctx, cfg.URI, dialOptions(cfg), reconnectTimeout(cfg))
}

func dialOptions(cfg *Config) amqp.Config {
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	opts := amqp.Config{Dial: amqp.DefaultDial(timeout)}
	if cfg.Username != "" {
		opts.SASL = []amqp.Authentication{
			&amqp.PlainAuth{
				Username: cfg.Username,
				Password: cfg.Password,
			},
		}
	}
	return opts
}

func reconnectTimeout(cfg *Config) time.Duration {
	if cfg.ReconnectTimeout <= 0 {
		return DefaultReconnectTimeout
	}
	return cfg.ReconnectTimeout
}
