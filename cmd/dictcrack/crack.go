package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ykhdr/crack-dict/config"
	"github.com/ykhdr/crack-dict/internal/coordination"
	"github.com/ykhdr/crack-dict/internal/coordination/backend"
	"github.com/ykhdr/crack-dict/internal/digest"
	"github.com/ykhdr/crack-dict/internal/hashcrack"
	"github.com/ykhdr/crack-dict/internal/hashcrack/strategy"
	"github.com/ykhdr/crack-dict/internal/report"
)

func NewCrackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crack",
		Short: "Search a dictionary for the plaintext of a hash",
		Long: `Crack reads the dictionary line by line, hashes every candidate and stops at
the first match. A hash that is not in the dictionary is a normal outcome and
exits with status 0.

Examples:
  # Sequential scan
  dictcrack crack --hash f52fbd32... --dictionary rockyou.txt

  # Eight goroutines with candidate diagnostics
  dictcrack crack -s parallel -p 8 -v --hash f52fbd32... -d rockyou.txt

  # Four partitioned workers sharing a Consul KV primitive
  dictcrack crack -s distributed -w 4 --coordinator consul -c crack.kdl \
    --hash f52fbd32... -d rockyou.txt`,
		Args: cobra.NoArgs,
		RunE: runCrackCmd,
	}

	cmd.Flags().String("hash", "", "Target hash as hex")
	cmd.Flags().StringP("dictionary", "d", "", "Dictionary file, one candidate per line")
	cmd.Flags().StringP("strategy", "s", "", "Search strategy: sequential, parallel or distributed")
	cmd.Flags().BoolP("verbose", "v", false, "Print the banner and every candidate")
	cmd.Flags().IntP("pool-size", "p", 0, "Goroutines of the parallel strategy (default GOMAXPROCS)")
	cmd.Flags().IntP("workers", "w", 0, "Partitions of the distributed strategy")
	cmd.Flags().Int("check-interval", 0, "Candidates between two coordinator checks")
	cmd.Flags().Duration("check-timeout", 0, "Deadline of one coordinator check")
	cmd.Flags().String("coordinator", "", "Coordinator kind: memory, consul, amqp or mongo")
	_ = cmd.MarkFlagRequired("hash")
	_ = cmd.MarkFlagRequired("dictionary")

	return cmd
}

func runCrackCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildCrackConfig(cmd)
	if err != nil {
		return err
	}
	hash, _ := cmd.Flags().GetString("hash")
	dictionary, _ := cmd.Flags().GetString("dictionary")

	digestFn, err := digest.Lookup(cfg.Algorithm)
	if err != nil {
		return err
	}
	strategyType, err := strategy.ParseStrategyName(cfg.Strategy)
	if err != nil {
		return err
	}
	if _, err := backend.ParseKind(cfg.Coordinator().Kind); err != nil {
		return err
	}

	coordCfg := cfg.Coordinator()
	rep := report.NewReporter(cmd.OutOrStdout(), cfg.Verbose)
	svc := hashcrack.NewService(
		hashcrack.WithDigest(digestFn),
		hashcrack.WithStrategyOptions(cfg.StrategyOptions()),
		hashcrack.WithDiagnostics(cmd.OutOrStdout()),
		hashcrack.WithCoordinator(func(ctx context.Context, scope string) (coordination.Coordinator, error) {
			return backend.New(ctx, coordCfg, scope)
		}),
		hashcrack.WithStartHook(func(job hashcrack.Job) {
			rep.Start(job.Target, job.Dictionary)
		}),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	v, err := svc.Run(ctx, hashcrack.Job{
		ID:         coordCfg.JobID,
		Target:     hash,
		Dictionary: dictionary,
		Strategy:   strategyType,
		Verbose:    cfg.Verbose,
	})
	if err != nil {
		return err
	}
	rep.Verdict(v)
	return nil
}

// buildCrackConfig loads the config file and applies the flags that were
// set explicitly on top of it.
func buildCrackConfig(cmd *cobra.Command) (*config.CrackConfig, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.InitializeCrackConfig(path)
	if err != nil {
		return nil, err
	}
	if cfg.Distributed == nil {
		cfg.Distributed = &config.DistributedConfig{}
	}
	if cfg.Distributed.Coordinator == nil {
		cfg.Distributed.Coordinator = config.DefaultCoordinatorConfig()
	}

	flags := cmd.Flags()
	if flags.Changed("algorithm") {
		cfg.Algorithm, _ = flags.GetString("algorithm")
	}
	if flags.Changed("strategy") {
		cfg.Strategy, _ = flags.GetString("strategy")
	}
	if flags.Changed("verbose") {
		cfg.Verbose, _ = flags.GetBool("verbose")
	}
	if flags.Changed("pool-size") {
		cfg.PoolSize, _ = flags.GetInt("pool-size")
	}
	if flags.Changed("workers") {
		cfg.Distributed.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("check-interval") {
		cfg.Distributed.CheckInterval, _ = flags.GetInt("check-interval")
	}
	if flags.Changed("check-timeout") {
		cfg.Distributed.CheckTimeout, _ = flags.GetDuration("check-timeout")
	}
	if flags.Changed("coordinator") {
		cfg.Distributed.Coordinator.Kind, _ = flags.GetString("coordinator")
	}
	return cfg, nil
}
