package strategy

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ykhdr/crack-dict/internal/coordination"
	"github.com/ykhdr/crack-dict/internal/dictionary"
	"github.com/ykhdr/crack-dict/internal/hashcrack/compare"
	"github.com/ykhdr/crack-dict/internal/hashcrack/verdict"
)

type WorkerConfig struct {
	JobID         string
	Rank          int
	CheckInterval int
	// CheckTimeout bounds every coordinator call.
	CheckTimeout  time.Duration
	Source        dictionary.Candidates
	Comparator    *compare.Comparator
	Coordinator   coordination.Coordinator
}

// WorkerResult is one worker's local observation at the end of its scan.
type WorkerResult struct {
	Rank    int             `json:"rank"`
	Verdict verdict.Verdict `json:"verdict"`
	Scanned int64           `json:"scanned"`
	// Halted is set when the worker stopped early because a peer found a match.
	Halted bool `json:"halted"`
}

type Progress struct {
	JobID   string           `json:"job_id"`
	Rank    int              `json:"rank"`
	State   string           `json:"state"`
	Scanned int64            `json:"scanned"`
	Halted  bool             `json:"halted"`
	Verdict *verdict.Verdict `json:"verdict,omitempty"`
}

// Worker scans one partition sequentially and consults the coordinator every
// CheckInterval candidates.
type Worker struct {
	l             zerolog.Logger
	jobID         string
	rank          int
	checkInterval int
	checkTimeout  time.Duration
	src           dictionary.Candidates
	cmp           *compare.Comparator
	coord         coordination.Coordinator

	cell    *verdict.Cell
	scanned atomic.Int64
	halted  atomic.Bool
}

func NewWorker(cfg WorkerConfig) *Worker {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultCheckInterval
	}
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = DefaultCheckTimeout
	}
	return &Worker{
		jobID:         cfg.JobID,
		rank:          cfg.Rank,
		checkInterval: cfg.CheckInterval,
		checkTimeout:  cfg.CheckTimeout,
		src:           cfg.Source,
		cmp:           cfg.Comparator,
		coord:         cfg.Coordinator,
		cell:          verdict.NewCell(),
		l: log.With().
			Str("domain", "hashcrack").
			Str("type", "worker").
			Str("job-id", cfg.JobID).
			Int("rank", cfg.Rank).
			Logger(),
	}
}

func (w *Worker) Run(ctx context.Context) (WorkerResult, error) {
	w.cell.Begin()
	w.l.Debug().Int("check-interval", w.checkInterval).Msg("worker started")
	count := 0
	for {
		if err := ctx.Err(); err != nil {
			return w.result(), err
		}
		if count == w.checkInterval {
			count = 0
			if w.peerFound(ctx) {
				w.halted.Store(true)
				w.l.Debug().Int64("scanned", w.scanned.Load()).Msg("peer found a match, halting")
				break
			}
		}
		candidate, err := w.src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return w.result(), errors.Wrapf(err, "worker %d", w.rank)
		}
		w.scanned.Add(1)
		count++
		if w.cmp.Compare(candidate) {
			w.cell.TrySet(candidate)
			w.broadcast(ctx, candidate)
			break
		}
	}
	return w.result(), nil
}

func (w *Worker) peerFound(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, w.checkTimeout)
	defer cancel()
	found, err := w.coord.Status(ctx)
	if err != nil {
		w.l.Warn().Err(err).Msg("coordination status unknown, continue scanning")
		return false
	}
	return found
}

func (w *Worker) broadcast(ctx context.Context, plaintext string) {
	w.l.Info().Int64("scanned", w.scanned.Load()).Msg("match found")
	ctx, cancel := context.WithTimeout(ctx, w.checkTimeout)
	defer cancel()
	err := w.coord.Report(ctx, coordination.Report{
		JobID:     w.jobID,
		Rank:      w.rank,
		Plaintext: plaintext,
	})
	if err != nil {
		w.l.Warn().Err(err).Msg("failed to broadcast match")
	}
}

func (w *Worker) result() WorkerResult {
	return WorkerResult{
		Rank:    w.rank,
		Verdict: w.cell.Finish(),
		Scanned: w.scanned.Load(),
		Halted:  w.halted.Load(),
	}
}

// Progress is a snapshot safe to take while Run is in flight.
func (w *Worker) Progress() Progress {
	p := Progress{
		JobID:   w.jobID,
		Rank:    w.rank,
		State:   w.cell.State().String(),
		Scanned: w.scanned.Load(),
		Halted:  w.halted.Load(),
	}
	if w.cell.State() == verdict.StateDecided {
		v := w.cell.Verdict()
		p.Verdict = &v
	}
	return p
}

// Aggregate reduces worker results to the job verdict: the found result with
// the lowest rank.
func Aggregate(results []WorkerResult) verdict.Verdict {
	var reports []coordination.Report
	for _, r := range results {
		if r.Verdict.IsFound() {
			reports = append(reports, coordination.Report{Rank: r.Rank, Plaintext: r.Verdict.Plaintext})
		}
	}
	if r, ok := coordination.Lowest(reports); ok {
		return verdict.Found(r.Plaintext)
	}
	return verdict.NotFound()
}
