package dispatch

import (
	"time"

	"go-campaign-api/src/infrastructure/utils"
)

// Config holds the engine tunables. Zero values are replaced by defaults in
// Normalize, so a partially filled Config is safe to use.
type Config struct {
	// BatchSize is the number of recipients per batch unit
	BatchSize int

	// MaxConcurrentBatches caps the fan-out; 0 means all batches run at once
	MaxConcurrentBatches int

	// Pacing is the fixed inter-message delay applied between recipients,
	// independent of rate-limit waits
	Pacing time.Duration

	// PauseThreshold is the rate-limit wait beyond which the whole campaign
	// is paused instead of a single worker sleeping it off
	PauseThreshold time.Duration

	// MaxAttempts bounds dispatch attempts per recipient
	MaxAttempts int

	// BackoffBase is the base of the exponential retry backoff
	BackoffBase time.Duration

	// BackoffCap is the upper bound on a single retry delay
	BackoffCap time.Duration

	// StatusHoldWindow is how long a status event for an unknown provider
	// message id is held before being dropped
	StatusHoldWindow time.Duration
}

// LoadConfig reads the engine configuration from environment variables
func LoadConfig() Config {
	cfg := Config{
		BatchSize:            utils.GetEnvInt("DISPATCH_BATCH_SIZE", 100),
		MaxConcurrentBatches: utils.GetEnvInt("DISPATCH_MAX_CONCURRENT_BATCHES", 0),
		Pacing:               utils.GetEnvDuration("DISPATCH_PACING", 2*time.Second),
		PauseThreshold:       utils.GetEnvDuration("DISPATCH_PAUSE_THRESHOLD", 5*time.Minute),
		MaxAttempts:          utils.GetEnvInt("DISPATCH_MAX_ATTEMPTS", 3),
		BackoffBase:          utils.GetEnvDuration("DISPATCH_BACKOFF_BASE", 60*time.Second),
		BackoffCap:           utils.GetEnvDuration("DISPATCH_BACKOFF_CAP", 15*time.Minute),
		StatusHoldWindow:     utils.GetEnvDuration("DISPATCH_STATUS_HOLD_WINDOW", 2*time.Minute),
	}
	cfg.Normalize()
	return cfg
}

// Normalize replaces unusable values with defaults
func (c *Config) Normalize() {
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.MaxConcurrentBatches < 0 {
		c.MaxConcurrentBatches = 0
	}
	if c.Pacing < 0 {
		c.Pacing = 2 * time.Second
	}
	if c.PauseThreshold <= 0 {
		c.PauseThreshold = 5 * time.Minute
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = 60 * time.Second
	}
	if c.BackoffCap <= 0 {
		c.BackoffCap = 15 * time.Minute
	}
	if c.StatusHoldWindow <= 0 {
		c.StatusHoldWindow = 2 * time.Minute
	}
}

// RetryPolicy derives the pure retry decision function from the config
func (c Config) RetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: c.MaxAttempts,
		Base:        c.BackoffBase,
		Cap:         c.BackoffCap,
	}
}
