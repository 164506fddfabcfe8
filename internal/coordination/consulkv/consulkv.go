// Package consulkv keeps match reports in the Consul KV store, one key per
// worker rank under <prefix>/<job-id>/.
package consulkv

import (
	"context"
	"encoding/json"
	"path"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ykhdr/crack-dict/common/consul"
	"github.com/ykhdr/crack-dict/internal/coordination"
)

const DefaultPrefix = "crack-dict/jobs"

type Coordinator struct {
	l      zerolog.Logger
	client consul.Client
	dir    string
}

// New scopes the coordinator to jobID, usually a coordination.JobScope.
func New(client consul.Client, prefix, jobID string) (*Coordinator, error) {
	if jobID == "" {
		return nil, coordination.ErrEmptyJobID
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Coordinator{
		client: client,
		dir:    path.Join(prefix, jobID) + "/",
		l: log.With().
			Str("domain", "coordination").
			Str("type", "consul").
			Str("job-id", jobID).
			Logger(),
	}, nil
}

func (c *Coordinator) Status(ctx context.Context) (bool, error) {
	pairs, err := c.client.List(ctx, c.dir)
	if err != nil {
		return false, errors.Wrap(coordination.ErrUnavailable, err.Error())
	}
	return len(pairs) > 0, nil
}

func (c *Coordinator) Report(ctx context.Context, r coordination.Report) error {
	value, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "marshal report")
	}
	created, err := c.client.PutIfAbsent(ctx, c.dir+strconv.Itoa(r.Rank), value)
	if err != nil {
		return errors.Wrap(coordination.ErrUnavailable, err.Error())
	}
	if !created {
		c.l.Debug().Int("rank", r.Rank).Msg("rank already reported")
	}
	return nil
}

func (c *Coordinator) Resolve(ctx context.Context) (coordination.Report, bool, error) {
	pairs, err := c.client.List(ctx, c.dir)
	if err != nil {
		return coordination.Report{}, false, errors.Wrap(coordination.ErrUnavailable, err.Error())
	}
	reports := make([]coordination.Report, 0, len(pairs))
	for _, p := range pairs {
		var r coordination.Report
		if err := json.Unmarshal(p.Value, &r); err != nil {
			c.l.Warn().Err(err).Str("key", p.Key).Msg("skip malformed report")
			continue
		}
		reports = append(reports, r)
	}
	r, ok := coordination.Lowest(reports)
	return r, ok, nil
}

func (c *Coordinator) Purge(ctx context.Context) error {
	if err := c.client.DeleteTree(ctx, c.dir); err != nil {
		return errors.Wrap(coordination.ErrUnavailable, err.Error())
	}
	c.l.Debug().Msg("job reports purged")
	return nil
}

// Close leaves the reports in place so late workers still observe them.
func (c *Coordinator) Close() error {
	return nil
}

var (
	_ coordination.Coordinator = (*Coordinator)(nil)
	_ coordination.Purger      = (*Coordinator)(nil)
)
