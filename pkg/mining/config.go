package mining

import (
	"fmt"
	"runtime"
	"time"

	"nockminer/pkg/core"
	"nockminer/pkg/kernel"
)

// Config is the coordinator's configuration surface. Zero values are filled
// in by normalize, so callers only set what they care about.
type Config struct {
	// Workers is the number of mining workers. Defaults to
	// min(logical CPUs, DefaultWorkerCap).
	Workers int

	// KernelPoolSize is the number of pre-initialized kernels. Defaults to
	// kernel.DefaultSize.
	KernelPoolSize int

	// PubKey is the mining public key folded into every candidate's seal.
	PubKey []byte

	// NonceSliceSize is the number of nonces one attempt claims and scans.
	NonceSliceSize uint64

	// StatsInterval is the period of the stats_tick event.
	StatsInterval time.Duration
}

func DefaultConfig() Config {
	cfg := Config{}
	cfg.normalize()
	return cfg
}

func (c *Config) normalize() {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Workers > core.DefaultWorkerCap {
		c.Workers = core.DefaultWorkerCap
	}
	if c.KernelPoolSize <= 0 {
		c.KernelPoolSize = kernel.DefaultSize()
	}
	if c.NonceSliceSize == 0 {
		c.NonceSliceSize = core.DefaultNonceSliceSize
	}
	if c.StatsInterval <= 0 {
		c.StatsInterval = core.DefaultStatsInterval
	}
}

func (c *Config) Validate() error {
	if len(c.PubKey) == 0 {
		return fmt.Errorf("mining: config requires a public key")
	}
	return nil
}
