// Package broadcast shares match reports over a RabbitMQ fanout exchange.
// Every worker keeps a local view fed by the exchange, so a status check never
// leaves the process.
package broadcast

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	commonamqp "github.com/ykhdr/crack-dict/common/amqp"
	"github.com/ykhdr/crack-dict/common/amqp/connection"
	"github.com/ykhdr/crack-dict/common/amqp/consumer"
	"github.com/ykhdr/crack-dict/common/amqp/publisher"
	"github.com/ykhdr/crack-dict/internal/coordination"
)

const DefaultExchange = "crack-dict.reports"

type Coordinator struct {
	l      zerolog.Logger
	jobID  string
	local  *coordination.Memory
	pub    publisher.Publisher[coordination.Report]
	ch     *connection.Channel
	cancel context.CancelFunc
	done   chan struct{}
}

func newCoordinator(jobID string, pub publisher.Publisher[coordination.Report]) *Coordinator {
	return &Coordinator{
		jobID: jobID,
		local: coordination.NewMemory(),
		pub:   pub,
		done:  make(chan struct{}),
		l: log.With().
			Str("domain", "coordination").
			Str("type", "amqp").
			Str("job-id", jobID).
			Logger(),
	}
}

// New opens a channel on conn, declares the exchange and starts listening
// for peer reports of jobID. Reports published before the subscription is
// bound are not seen; peers then only halt later.
func New(ctx context.Context, conn *connection.Connection, cfg *commonamqp.Config, jobID string) (*Coordinator, error) {
	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}
	ch, err := conn.Channel(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "error create amqp channel")
	}
	if err := ch.DeclareFanout(cfg.Exchange); err != nil {
		_ = ch.Close()
		return nil, err
	}
	pub := publisher.New[coordination.Report](ch, cfg.ToPublisherConfig(json.Marshal, "application/json"))
	c := newCoordinator(jobID, pub)
	c.ch = ch

	subCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	sub := consumer.New[coordination.Report](ch, c.receive, cfg.ToConsumerConfig(json.Unmarshal))
	go func() {
		defer close(c.done)
		sub.Subscribe(subCtx)
	}()
	return c, nil
}

func (c *Coordinator) receive(ctx context.Context, r *coordination.Report, _ amqp.Delivery) error {
	if r.JobID != c.jobID {
		return nil
	}
	c.l.Debug().Int("rank", r.Rank).Msg("peer reported a match")
	return c.local.Report(ctx, *r)
}

func (c *Coordinator) Status(ctx context.Context) (bool, error) {
	return c.local.Status(ctx)
}

func (c *Coordinator) Report(ctx context.Context, r coordination.Report) error {
	r.JobID = c.jobID
	_ = c.local.Report(ctx, r)
	if err := c.pub.SendMessage(ctx, &r, publisher.Transient); err != nil {
		return errors.Wrap(coordination.ErrUnavailable, err.Error())
	}
	return nil
}

func (c *Coordinator) Resolve(ctx context.Context) (coordination.Report, bool, error) {
	return c.local.Resolve(ctx)
}

func (c *Coordinator) Close() error {
	if c.cancel != nil {
		c.cancel()
		<-c.done
	}
	if c.ch == nil {
		return nil
	}
	return c.ch.Close()
}

var _ coordination.Coordinator = (*Coordinator)(nil)
