package broadcast

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ykhdr/crack-dict/common/amqp/publisher"
	"github.com/ykhdr/crack-dict/internal/coordination"
)

type recordingPublisher struct {
	sent []coordination.Report
	err  error
}

func (p *recordingPublisher) SendMessage(_ context.Context, m *coordination.Report, _ publisher.DeliveryMode) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, *m)
	return nil
}

func TestReportPublishesWithJobID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pub := &recordingPublisher{}
	c := newCoordinator("job-7", pub)

	require.NoError(t, c.Report(ctx, coordination.Report{Rank: 2, Plaintext: "hunter2"}))
	require.Len(t, pub.sent, 1)
	assert.Equal(t, coordination.Report{JobID: "job-7", Rank: 2, Plaintext: "hunter2"}, pub.sent[0])

	found, err := c.Status(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	require.NoError(t, c.Close())
}

func TestReceiveFiltersOtherJobs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newCoordinator("job-7", &recordingPublisher{})

	require.NoError(t, c.receive(ctx, &coordination.Report{JobID: "other", Rank: 0, Plaintext: "x"}, amqp.Delivery{}))
	found, err := c.Status(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.receive(ctx, &coordination.Report{JobID: "job-7", Rank: 3, Plaintext: "y"}, amqp.Delivery{}))
	require.NoError(t, c.receive(ctx, &coordination.Report{JobID: "job-7", Rank: 1, Plaintext: "z"}, amqp.Delivery{}))

	r, ok, err := c.Resolve(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, r.Rank)
}

func TestReportKeepsLocalViewWhenBrokerDown(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newCoordinator("job", &recordingPublisher{err: errors.New("channel closed")})

	err := c.Report(ctx, coordination.Report{Rank: 0, Plaintext: "p"})
	require.ErrorIs(t, err, coordination.ErrUnavailable)

	r, ok, err := c.Resolve(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "p", r.Plaintext)
}
