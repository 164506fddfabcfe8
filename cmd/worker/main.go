// Command worker scans one rank of a distributed job. Usage: worker [config.kdl]
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ykhdr/crack-dict/common/consul"
	"github.com/ykhdr/crack-dict/config"
	"github.com/ykhdr/crack-dict/internal/coordination"
	"github.com/ykhdr/crack-dict/internal/coordination/backend"
	"github.com/ykhdr/crack-dict/internal/dictionary"
	"github.com/ykhdr/crack-dict/internal/digest"
	"github.com/ykhdr/crack-dict/internal/hashcrack/compare"
	"github.com/ykhdr/crack-dict/internal/hashcrack/strategy"
	"github.com/ykhdr/crack-dict/internal/net"
	"github.com/ykhdr/crack-dict/internal/server"
)

const serviceName = "crack-dict-worker"

func main() {
	var path string
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := config.InitializeWorkerConfig(path)
	if err != nil {
		log.Fatal().Err(err).Msgf("Failed to initialize config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msgf("Invalid config")
	}
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = strategy.DefaultCheckTimeout
	}
	addr, err := net.FindAvailableIPv4Addr()
	if err != nil {
		if cfg.Register {
			log.Fatal().Err(err).Msgf("Failed to find address to register")
		}
		addr = "0.0.0.0"
	}
	cfg.Address = addr

	digestFn, err := digest.Lookup(cfg.Algorithm)
	if err != nil {
		log.Fatal().Err(err).Msgf("Failed to select algorithm")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmp := compare.New(digestFn, cfg.Hash)
	jobID, scope := jobScope(cfg, cmp.Target())
	coord, err := backend.New(ctx, cfg.Coordinator, scope)
	if err != nil {
		log.Warn().Err(err).Msgf("Coordinator unavailable, scanning without peers")
		coord = coordination.NewMemory()
	}
	defer func() {
		if err := coord.Close(); err != nil {
			log.Warn().Err(err).Msgf("Failed to close coordinator")
		}
	}()

	src, err := dictionary.Open(cfg.Dictionary)
	if err != nil {
		log.Fatal().Err(err).Msgf("Failed to open dictionary")
	}
	part := dictionary.NewPartition(src, cfg.Rank, cfg.Workers)
	defer func() { _ = part.Close() }()

	worker := strategy.NewWorker(strategy.WorkerConfig{
		JobID:         jobID,
		Rank:          cfg.Rank,
		CheckInterval: cfg.CheckInterval,
		CheckTimeout:  cfg.CheckTimeout,
		Source:        part,
		Comparator:    cmp,
		Coordinator:   coord,
	})
	srv := server.NewServer(cfg.Url(), worker)

	if cfg.Register {
		deregister := register(cfg)
		defer deregister()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	g.Go(func() error {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		res, err := worker.Run(gctx)
		if err != nil {
			return err
		}
		log.Info().
			Int("rank", res.Rank).
			Str("verdict", res.Verdict.String()).
			Int64("scanned", res.Scanned).
			Bool("halted", res.Halted).
			Msg("Worker finished")
		resolveCtx, cancel := context.WithTimeout(gctx, cfg.CheckTimeout)
		defer cancel()
		logResolved(resolveCtx, coord)
		if cfg.Workers == 1 {
			purge(resolveCtx, coord)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msgf("Worker failed")
	}
}

// jobScope returns the job id and the coordination scope of this worker. A
// lone worker without a pinned job id gets a fresh one.
func jobScope(cfg *config.WorkerConfig, target string) (string, string) {
	var jobID string
	if cfg.Coordinator != nil {
		jobID = cfg.Coordinator.JobID
	}
	if jobID == "" {
		jobID = uuid.NewString()
	}
	return jobID, coordination.JobScope(jobID, target)
}

func purge(ctx context.Context, coord coordination.Coordinator) {
	p, ok := coord.(coordination.Purger)
	if !ok {
		return
	}
	if err := p.Purge(ctx); err != nil {
		log.Warn().Err(err).Msgf("Failed to purge job reports")
	}
}

func register(cfg *config.WorkerConfig) func() {
	if cfg.Coordinator == nil || cfg.Coordinator.Consul == nil {
		log.Warn().Msgf("Registration requested without a consul block")
		return func() {}
	}
	client, err := consul.NewClient(cfg.Coordinator.Consul)
	if err != nil {
		log.Warn().Err(err).Msgf("Failed to initialize consul client")
		return func() {}
	}
	if err := client.RegisterService(serviceName, cfg.Address, cfg.ServerPort); err != nil {
		log.Warn().Err(err).Msgf("Failed to register worker")
		return func() {}
	}
	return func() {
		if err := client.DeregisterService(cfg.Address, cfg.ServerPort); err != nil {
			log.Warn().Err(err).Msgf("Failed to deregister worker")
		}
	}
}

func logResolved(ctx context.Context, coord coordination.Coordinator) {
	r, ok, err := coord.Resolve(ctx)
	switch {
	case err != nil:
		log.Warn().Err(err).Msgf("Failed to resolve job verdict")
	case ok:
		log.Info().Int("rank", r.Rank).Str("plaintext", r.Plaintext).Msg("Password found")
	default:
		log.Info().Msg("Password not found by any worker yet")
	}
}
