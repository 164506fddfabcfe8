package hashcrack

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ykhdr/crack-dict/internal/coordination"
	"github.com/ykhdr/crack-dict/internal/digest"
	"github.com/ykhdr/crack-dict/internal/hashcrack/compare"
	"github.com/ykhdr/crack-dict/internal/hashcrack/strategy"
	"github.com/ykhdr/crack-dict/internal/hashcrack/verdict"
)

const purgeTimeout = 5 * time.Second

// Job is the immutable configuration of one run.
type Job struct {
	ID         string
	Target     string
	Dictionary string
	Strategy   strategy.Type
	Verbose    bool
}

// CoordinatorFactory builds the primitive shared by the workers of one job.
// scope is the job id joined with the target, see coordination.JobScope.
type CoordinatorFactory func(ctx context.Context, scope string) (coordination.Coordinator, error)

type Service struct {
	l              zerolog.Logger
	digest         digest.Func
	opts           strategy.Options
	newCoordinator CoordinatorFactory
	diag           io.Writer
	onStart        func(Job)
}

type Option func(*Service)

func WithDigest(fn digest.Func) Option {
	return func(s *Service) {
		s.digest = fn
	}
}

func WithStrategyOptions(opts strategy.Options) Option {
	return func(s *Service) {
		s.opts = opts
	}
}

// WithCoordinator sets how distributed jobs reach their coordination
// primitive. Without it workers share an in-process one.
func WithCoordinator(f CoordinatorFactory) Option {
	return func(s *Service) {
		s.newCoordinator = f
	}
}

// WithDiagnostics sets where verbose jobs print each candidate.
func WithDiagnostics(w io.Writer) Option {
	return func(s *Service) {
		s.diag = w
	}
}

// WithStartHook sets a callback run once the job's dictionary is open.
func WithStartHook(f func(Job)) Option {
	return func(s *Service) {
		s.onStart = f
	}
}

func NewService(opts ...Option) *Service {
	s := &Service{
		l: log.With().
			Str("domain", "hashcrack").
			Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.digest == nil {
		s.digest, _ = digest.Lookup(digest.Default)
	}
	return s
}

// Run executes job with the strategy it names and returns its verdict.
// NotFound is a normal outcome; an error means the job could not run.
func (s *Service) Run(ctx context.Context, job Job) (verdict.Verdict, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	var cmpOpts []compare.Option
	if job.Verbose && s.diag != nil {
		cmpOpts = append(cmpOpts, compare.WithDiagnostics(s.diag))
	}
	cmp := compare.New(s.digest, job.Target, cmpOpts...)
	crackStrategy := strategy.NewStrategy(job.Strategy, s.opts)

	s.l.Debug().
		Str("job-id", job.ID).
		Str("strategy", crackStrategy.Name()).
		Str("hash", cmp.Target()).
		Str("dictionary", job.Dictionary).
		Msg("cracking job")

	req := &strategy.Request{
		JobID:      job.ID,
		Dictionary: job.Dictionary,
		Comparator: cmp,
	}
	if s.onStart != nil {
		req.Opened = func() { s.onStart(job) }
	}
	if job.Strategy == strategy.DistributedStrategyType && s.newCoordinator != nil {
		coord, err := s.newCoordinator(ctx, coordination.JobScope(job.ID, cmp.Target()))
		if err != nil {
			// workers fall back to an in-process primitive
			s.l.Warn().Err(err).Str("job-id", job.ID).Msg("coordinator unavailable")
		} else {
			defer s.release(ctx, job.ID, coord)
			req.Coordinator = coord
		}
	}

	v, err := crackStrategy.Search(ctx, req)
	if err != nil {
		s.l.Warn().Err(err).Str("job-id", job.ID).Msg("job failed")
		return verdict.NotFound(), err
	}
	s.l.Info().
		Str("job-id", job.ID).
		Str("status", string(v.Status)).
		Int64("compared", cmp.Compared()).
		Msg("job finished")
	return v, nil
}

// release purges the job's reports and closes coord. Every worker of an
// in-process job has finished by then.
func (s *Service) release(ctx context.Context, jobID string, coord coordination.Coordinator) {
	if p, ok := coord.(coordination.Purger); ok {
		purgeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), purgeTimeout)
		if err := p.Purge(purgeCtx); err != nil {
			s.l.Warn().Err(err).Str("job-id", jobID).Msg("failed to purge job reports")
		}
		cancel()
	}
	if err := coord.Close(); err != nil {
		s.l.Warn().Err(err).Str("job-id", jobID).Msg("failed to close coordinator")
	}
}
