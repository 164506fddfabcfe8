package strategy

import (
	"runtime"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type Type int

const (
	SequentialStrategyType Type = iota
	ParallelStrategyType
	DistributedStrategyType
)

const (
	sequentialStrategyName  = "sequential"
	parallelStrategyName    = "parallel"
	distributedStrategyName = "distributed"
)

const (
	DefaultCheckInterval = 1000
	DefaultWorkers       = 4
	DefaultCheckTimeout  = 2 * time.Second
)

var ErrUnknownStrategy = errors.New("unknown strategy")

type Options struct {
	// PoolSize bounds concurrent comparisons of the parallel strategy.
	PoolSize int
	// Workers is the number of partitions of the distributed strategy.
	Workers int
	// CheckInterval is how many candidates a distributed worker compares
	// between two status checks.
	CheckInterval int
	// CheckTimeout bounds each coordinator call of a distributed worker.
	CheckTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.PoolSize <= 0 {
		o.PoolSize = runtime.GOMAXPROCS(0)
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.CheckInterval <= 0 {
		o.CheckInterval = DefaultCheckInterval
	}
	if o.CheckTimeout <= 0 {
		o.CheckTimeout = DefaultCheckTimeout
	}
	return o
}

func NewStrategy(strategyType Type, opts Options) Strategy {
	opts = opts.withDefaults()
	switch strategyType {
	case ParallelStrategyType:
		return newParallelStrategy(log.Logger, opts.PoolSize)
	case DistributedStrategyType:
		return newDistributedStrategy(log.Logger, opts.Workers, opts.CheckInterval, opts.CheckTimeout)
	default:
		return newSequentialStrategy(log.Logger)
	}
}

func ParseStrategyName(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case sequentialStrategyName, "serial", "":
		return SequentialStrategyType, nil
	case parallelStrategyName, "omp":
		return ParallelStrategyType, nil
	case distributedStrategyName, "mpi":
		return DistributedStrategyType, nil
	default:
		return SequentialStrategyType, errors.Wrapf(ErrUnknownStrategy, "%q", name)
	}
}

func (t Type) String() string {
	switch t {
	case ParallelStrategyType:
		return parallelStrategyName
	case DistributedStrategyType:
		return distributedStrategyName
	default:
		return sequentialStrategyName
	}
}

func DefaultStrategyStr() string {
	return sequentialStrategyName
}

func Names() []string {
	return []string{sequentialStrategyName, parallelStrategyName, distributedStrategyName}
}
