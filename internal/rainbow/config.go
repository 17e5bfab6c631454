package rainbow

import (
	"github.com/pkg/errors"
	"runtime"
)

const (
	DefaultChainLength = 300
	DefaultBatchSize   = 1024
	MaxBatchSize       = 1 << 16
)

var ErrInvalidConfig = errors.New("invalid rainbow config")

type Config struct {
	ChainLength int `kdl:"chain-length"`
	Workers     int `kdl:"workers"`
	BatchSize   int `kdl:"batch-size"`
}

func DefaultConfig() *Config {
	return &Config{
		ChainLength: DefaultChainLength,
		Workers:     runtime.NumCPU(),
		BatchSize:   DefaultBatchSize,
	}
}

// Validate rejects unusable chain lengths, fills in worker and batch
// defaults and caps the batch size at MaxBatchSize.
func (c *Config) Validate() error {
	if c.ChainLength < 1 {
		return errors.Wrapf(ErrInvalidConfig, "chain length must be positive, got %d", c.ChainLength)
	}
	if c.Workers < 1 {
		c.Workers = runtime.NumCPU()
	}
	if c.BatchSize < 1 {
		c.BatchSize = DefaultBatchSize
	}
	if c.BatchSize > MaxBatchSize {
		c.BatchSize = MaxBatchSize
	}
	return nil
}
