package strategy

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ykhdr/crack-dict/internal/dictionary"
	"github.com/ykhdr/crack-dict/internal/hashcrack/verdict"
)

// sequentialStrategy is the reference: the first match in file order wins.
type sequentialStrategy struct {
	l zerolog.Logger
}

func newSequentialStrategy(logger zerolog.Logger) *sequentialStrategy {
	return &sequentialStrategy{
		l: logger.
			With().
			Str("domain", "hashcrack").
			Str("type", "strategy").
			Str("strategy", sequentialStrategyName).
			Logger(),
	}
}

func (s *sequentialStrategy) Name() string {
	return sequentialStrategyName
}

func (s *sequentialStrategy) Search(ctx context.Context, req *Request) (verdict.Verdict, error) {
	src, err := dictionary.Open(req.Dictionary)
	if err != nil {
		return verdict.NotFound(), err
	}
	defer func() { _ = src.Close() }()
	req.opened()

	s.l.Debug().Str("job-id", req.JobID).Str("dictionary", req.Dictionary).Msg("scanning dictionary")
	cell := verdict.NewCell()
	cell.Begin()
	for {
		if err := ctx.Err(); err != nil {
			return cell.Finish(), err
		}
		candidate, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return cell.Finish(), err
		}
		if req.Comparator.Compare(candidate) {
			cell.TrySet(candidate)
			s.l.Debug().Int("line", src.Line()).Msg("match found")
			break
		}
	}
	return cell.Finish(), nil
}
