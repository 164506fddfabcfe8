package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ykhdr/crack-dict/common/config"
	"github.com/ykhdr/crack-dict/common/consul"
	"github.com/ykhdr/crack-dict/internal/coordination/backend"
	"github.com/ykhdr/crack-dict/internal/digest"
	"github.com/ykhdr/crack-dict/internal/hashcrack/strategy"
)

type CoordinatorConfig = backend.Config

type DistributedConfig struct {
	Workers       int                `kdl:"workers"`
	CheckInterval int                `kdl:"check-interval"`
	CheckTimeout  time.Duration      `kdl:"check-timeout"`
	Coordinator   *CoordinatorConfig `kdl:"coordinator"`
}

// CrackConfig configures the dictcrack command. Flags override it.
type CrackConfig struct {
	config.LogConfig
	Algorithm   string             `kdl:"algorithm"`
	Strategy    string             `kdl:"strategy"`
	Verbose     bool               `kdl:"verbose"`
	PoolSize    int                `kdl:"pool-size"`
	Distributed *DistributedConfig `kdl:"distributed"`
}

func DefaultCrackConfig() *CrackConfig {
	return &CrackConfig{
		LogConfig: config.LogConfig{LogLevel: "info"},
		Algorithm: digest.Default,
		Strategy:  strategy.DefaultStrategyStr(),
		Distributed: &DistributedConfig{
			Workers:       strategy.DefaultWorkers,
			CheckInterval: strategy.DefaultCheckInterval,
			CheckTimeout:  strategy.DefaultCheckTimeout,
			Coordinator:   DefaultCoordinatorConfig(),
		},
	}
}

func DefaultCoordinatorConfig() *CoordinatorConfig {
	return &CoordinatorConfig{Kind: string(backend.MemoryKind)}
}

func (c *CrackConfig) StrategyOptions() strategy.Options {
	opts := strategy.Options{PoolSize: c.PoolSize}
	if c.Distributed != nil {
		opts.Workers = c.Distributed.Workers
		opts.CheckInterval = c.Distributed.CheckInterval
		opts.CheckTimeout = c.Distributed.CheckTimeout
	}
	return opts
}

func (c *CrackConfig) Coordinator() *CoordinatorConfig {
	if c.Distributed == nil || c.Distributed.Coordinator == nil {
		return DefaultCoordinatorConfig()
	}
	return c.Distributed.Coordinator
}

func InitializeCrackConfig(path string) (*CrackConfig, error) {
	return config.InitializeConfig[CrackConfig](path, *DefaultCrackConfig())
}

// WorkerConfig configures one distributed worker process.
type WorkerConfig struct {
	config.LogConfig
	Rank          int                `kdl:"rank"`
	Workers       int                `kdl:"workers"`
	CheckInterval int                `kdl:"check-interval"`
	CheckTimeout  time.Duration      `kdl:"check-timeout"`
	Hash          string             `kdl:"hash"`
	Dictionary    string             `kdl:"dictionary"`
	Algorithm     string             `kdl:"algorithm"`
	ServerPort    int                `kdl:"server-port"`
	Register      bool               `kdl:"register"`
	Coordinator   *CoordinatorConfig `kdl:"coordinator"`
	Address       string
}

func DefaultWorkerConfig() *WorkerConfig {
	return &WorkerConfig{
		LogConfig:     config.LogConfig{LogLevel: "info"},
		Workers:       1,
		CheckInterval: strategy.DefaultCheckInterval,
		CheckTimeout:  strategy.DefaultCheckTimeout,
		Algorithm:     digest.Default,
		ServerPort:    8080,
		Coordinator: &CoordinatorConfig{
			Kind: string(backend.ConsulKind),
			Consul: &consul.Config{
				Address:  "consul:8500",
				KVPrefix: "crack-dict/jobs",
				Health: &consul.HealthConfig{
					Interval: "2s",
					Timeout:  "1s",
					Http:     "/api/health",
				},
			},
		},
	}
}

func (c *WorkerConfig) Url() string {
	return fmt.Sprintf("%s:%d", c.Address, c.ServerPort)
}

func (c *WorkerConfig) Validate() error {
	if strings.TrimSpace(c.Hash) == "" {
		return errors.New("hash is required")
	}
	if c.Dictionary == "" {
		return errors.New("dictionary is required")
	}
	if c.Workers < 1 {
		return errors.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Rank < 0 || c.Rank >= c.Workers {
		return errors.Errorf("rank %d out of range [0, %d)", c.Rank, c.Workers)
	}
	if c.Coordinator != nil && c.Coordinator.JobID == "" && c.Workers > 1 {
		return errors.New("coordinator job-id is required when several workers share a job")
	}
	return nil
}

func InitializeWorkerConfig(path string) (*WorkerConfig, error) {
	return config.InitializeConfig[WorkerConfig](path, *DefaultWorkerConfig())
}
