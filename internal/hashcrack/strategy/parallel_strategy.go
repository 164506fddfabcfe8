package strategy

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ykhdr/crack-dict/internal/dictionary"
	"github.com/ykhdr/crack-dict/internal/hashcrack/verdict"
)

// parallelStrategy pulls candidates on one goroutine and runs comparisons on a
// bounded pool. The reported match is the first comparison to win the verdict
// cell, which is not necessarily the first match in file order.
//
// The pool limit makes dispatch block while every slot is busy, and the stop
// signal is polled before each pull, so at most poolSize comparisons start
// after a match has been recorded.
type parallelStrategy struct {
	l        zerolog.Logger
	poolSize int
}

func newParallelStrategy(logger zerolog.Logger, poolSize int) *parallelStrategy {
	return &parallelStrategy{
		poolSize: poolSize,
		l: logger.
			With().
			Str("domain", "hashcrack").
			Str("type", "strategy").
			Str("strategy", parallelStrategyName).
			Int("pool-size", poolSize).
			Logger(),
	}
}

func (s *parallelStrategy) Name() string {
	return parallelStrategyName
}

func (s *parallelStrategy) Search(ctx context.Context, req *Request) (verdict.Verdict, error) {
	src, err := dictionary.Open(req.Dictionary)
	if err != nil {
		return verdict.NotFound(), err
	}
	defer func() { _ = src.Close() }()
	req.opened()

	s.l.Debug().Str("job-id", req.JobID).Str("dictionary", req.Dictionary).Msg("scanning dictionary")
	cell := verdict.NewCell()
	cell.Begin()

	var g errgroup.Group
	g.SetLimit(s.poolSize)

	var scanErr error
	for !cell.Decided() {
		if scanErr = ctx.Err(); scanErr != nil {
			break
		}
		candidate, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			scanErr = err
			break
		}
		g.Go(func() error {
			// stale candidate, someone already won
			if cell.Decided() {
				return nil
			}
			if req.Comparator.Compare(candidate) && cell.TrySet(candidate) {
				s.l.Debug().Msg("match found")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil && scanErr == nil {
		scanErr = err
	}

	v := cell.Finish()
	s.l.Debug().
		Int("pulled", src.Line()).
		Int64("compared", req.Comparator.Compared()).
		Stringer("verdict", v).
		Msg("dispatch stopped")
	return v, scanErr
}
