// Package backend builds a coordination primitive from configuration.
package backend

import (
	"context"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	commonamqp "github.com/ykhdr/crack-dict/common/amqp"
	"github.com/ykhdr/crack-dict/common/consul"
	"github.com/ykhdr/crack-dict/common/store/mongo"
	"github.com/ykhdr/crack-dict/internal/coordination"
	"github.com/ykhdr/crack-dict/internal/coordination/broadcast"
	"github.com/ykhdr/crack-dict/internal/coordination/consulkv"
	"github.com/ykhdr/crack-dict/internal/coordination/mongostore"
)

type Kind string

const (
	MemoryKind Kind = "memory"
	ConsulKind Kind = "consul"
	AmqpKind   Kind = "amqp"
	MongoKind  Kind = "mongo"
)

var ErrUnknownKind = errors.New("unknown coordinator kind")

type Config struct {
	Kind string `kdl:"kind"`
	// JobID pins the job id; the worker processes of one job must share it.
	// Empty means a generated one.
	JobID  string             `kdl:"job-id"`
	Consul *consul.Config     `kdl:"consul"`
	Amqp   *commonamqp.Config `kdl:"amqp"`
	Mongo  *mongo.Config      `kdl:"mongo"`
}

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return MemoryKind, nil
	case MemoryKind, ConsulKind, AmqpKind, MongoKind:
		return k, nil
	default:
		return "", errors.Wrap(ErrUnknownKind, s)
	}
}

// New connects the configured primitive scoped to jobID. Shared backends
// refuse an empty jobID.
func New(ctx context.Context, cfg *Config, jobID string) (coordination.Coordinator, error) {
	if cfg == nil {
		return coordination.NewMemory(), nil
	}
	kind, err := ParseKind(cfg.Kind)
	if err != nil {
		return nil, err
	}
	l := log.With().
		Str("domain", "coordination").
		Str("kind", string(kind)).
		Str("job-id", jobID).
		Logger()

	switch kind {
	case ConsulKind:
		if cfg.Consul == nil {
			return nil, errors.New("consul coordinator requires a consul block")
		}
		client, err := consul.NewClient(cfg.Consul)
		if err != nil {
			return nil, err
		}
		c, err := consulkv.New(client, cfg.Consul.KVPrefix, jobID)
		if err != nil {
			return nil, err
		}
		l.Debug().Str("address", cfg.Consul.Address).Msg("using consul kv")
		return c, nil
	case AmqpKind:
		if cfg.Amqp == nil {
			return nil, errors.New("amqp coordinator requires an amqp block")
		}
		conn, err := commonamqp.Dial(ctx, cfg.Amqp)
		if err != nil {
			return nil, errors.Wrap(err, "dial amqp")
		}
		c, err := broadcast.New(ctx, conn, cfg.Amqp, jobID)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		l.Debug().Str("exchange", cfg.Amqp.Exchange).Msg("using amqp broadcast")
		return &owned{Coordinator: c, close: conn.Close}, nil
	case MongoKind:
		if cfg.Mongo == nil {
			return nil, errors.New("mongo coordinator requires a mongo block")
		}
		client, err := mongo.NewClient(&cfg.Mongo.ClientConfig)
		if err != nil {
			return nil, err
		}
		c, err := mongostore.New(client.Database(cfg.Mongo.Database), cfg.Mongo.Collection, jobID)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		l.Debug().Str("database", cfg.Mongo.Database).Msg("using mongo store")
		return &owned{Coordinator: c, close: func() error {
			return client.Disconnect(context.Background())
		}}, nil
	default:
		return coordination.NewMemory(), nil
	}
}

// owned closes the underlying connection together with the primitive.
type owned struct {
	coordination.Coordinator
	close func() error
}

func (o *owned) Purge(ctx context.Context) error {
	if p, ok := o.Coordinator.(coordination.Purger); ok {
		return p.Purge(ctx)
	}
	return nil
}

func (o *owned) Close() error {
	var result *multierror.Error
	if err := o.Coordinator.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := o.close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
