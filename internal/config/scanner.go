package config

import (
	"errors"
	"time"
)

// ScannerConfig controls the block scanning pipeline.
type ScannerConfig struct {
	// BatchSize is the number of blocks fetched per batch before the
	// checkpoint may advance.
	BatchSize int64 `mapstructure:"batch-size"`
	// Concurrency is the size of the worker pool issuing block fetches.
	// The chain client's rate limiter enforces the real request budgets.
	Concurrency int `mapstructure:"concurrency"`
	// ActivationHeight is the lowest height staking rewards exist at; scans
	// never start below it.
	ActivationHeight int64 `mapstructure:"activation-height"`
	// TipPollingInterval is how long the forward scan idles once it has
	// caught up with the chain tip.
	TipPollingInterval time.Duration `mapstructure:"tip-polling-interval"`
	// MaxBatchErrors halts a run whose accumulated skipped-block count
	// exceeds it, instead of confirming checkpoints over a degraded range.
	MaxBatchErrors int `mapstructure:"max-batch-errors"`
}

func (cfg *ScannerConfig) Validate() error {
	if cfg.BatchSize <= 0 {
		return errors.New("batch-size must be positive")
	}
	if cfg.Concurrency <= 0 {
		return errors.New("concurrency must be positive")
	}
	if cfg.ActivationHeight < 0 {
		return errors.New("activation-height cannot be negative")
	}
	if cfg.TipPollingInterval <= 0 {
		return errors.New("tip-polling-interval must be positive")
	}
	if cfg.MaxBatchErrors < 0 {
		return errors.New("max-batch-errors cannot be negative")
	}
	return nil
}
