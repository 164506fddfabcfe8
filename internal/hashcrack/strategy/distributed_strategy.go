package strategy

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ykhdr/crack-dict/internal/coordination"
	"github.com/ykhdr/crack-dict/internal/dictionary"
	"github.com/ykhdr/crack-dict/internal/hashcrack/verdict"
)

// distributedStrategy runs one Worker per round-robin partition. Workers only
// share the coordinator; each owns its own dictionary stream.
type distributedStrategy struct {
	l             zerolog.Logger
	workers       int
	checkInterval int
	checkTimeout  time.Duration
}

func newDistributedStrategy(logger zerolog.Logger, workers, checkInterval int, checkTimeout time.Duration) *distributedStrategy {
	return &distributedStrategy{
		workers:       workers,
		checkInterval: checkInterval,
		checkTimeout:  checkTimeout,
		l: logger.
			With().
			Str("domain", "hashcrack").
			Str("type", "strategy").
			Str("strategy", distributedStrategyName).
			Int("workers", workers).
			Int("check-interval", checkInterval).
			Logger(),
	}
}

func (s *distributedStrategy) Name() string {
	return distributedStrategyName
}

func (s *distributedStrategy) Search(ctx context.Context, req *Request) (verdict.Verdict, error) {
	parts := make([]*dictionary.Partition, 0, s.workers)
	for rank := 0; rank < s.workers; rank++ {
		src, err := dictionary.Open(req.Dictionary)
		if err != nil {
			_ = closeAll(parts)
			return verdict.NotFound(), err
		}
		parts = append(parts, dictionary.NewPartition(src, rank, s.workers))
	}
	defer func() {
		if err := closeAll(parts); err != nil {
			s.l.Warn().Err(err).Msg("failed to close partitions")
		}
	}()
	req.opened()

	coord := req.Coordinator
	if coord == nil {
		coord = coordination.NewMemory()
	}

	results := make([]WorkerResult, len(parts))
	g, gCtx := errgroup.WithContext(ctx)
	for _, part := range parts {
		part := part
		w := NewWorker(WorkerConfig{
			JobID:         req.JobID,
			Rank:          part.Rank(),
			CheckInterval: s.checkInterval,
			CheckTimeout:  s.checkTimeout,
			Source:        part,
			Comparator:    req.Comparator,
			Coordinator:   coord,
		})
		g.Go(func() error {
			res, err := w.Run(gCtx)
			results[part.Rank()] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return verdict.NotFound(), err
	}

	v := Aggregate(results)
	halted := 0
	for _, r := range results {
		if r.Halted {
			halted++
		}
	}
	s.l.Debug().Str("job-id", req.JobID).Int("halted", halted).Stringer("verdict", v).Msg("workers finished")
	return v, nil
}
