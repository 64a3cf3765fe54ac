package config

import "time"

// Config carries every tunable of the booking core. It is built once in main
// and passed by value into each constructor.
type Config struct {
	// HoldTTL is how long a PENDING booking keeps its seats before the
	// expiry sweeper reclaims them.
	HoldTTL time.Duration

	// MaxSeatsPerRequest caps a single hold request.
	MaxSeatsPerRequest int

	// DefaultMaxSeatsPerUser applies when the catalog never announced a
	// per-user policy for a game.
	DefaultMaxSeatsPerUser int

	LockWaitTimeout time.Duration
	LockLease       time.Duration

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	PublishTimeout     time.Duration
	OutboxMaxRetries   int
	OutboxRetention    time.Duration
	CleanupInterval    time.Duration

	ExpirySweepInterval time.Duration
	ExpiryBatchSize     int

	ReconcileInterval time.Duration
	ReconcileBatch    int

	ConsumerMaxRetries      int
	ConsumerInitialInterval time.Duration

	SchedulerLockLease time.Duration
}

func Default() Config {
	return Config{
		HoldTTL:                 5 * time.Minute,
		MaxSeatsPerRequest:      4,
		DefaultMaxSeatsPerUser:  4,
		LockWaitTimeout:         3 * time.Second,
		LockLease:               5 * time.Second,
		OutboxPollInterval:      time.Second,
		OutboxBatchSize:         50,
		PublishTimeout:          5 * time.Second,
		OutboxMaxRetries:        5,
		OutboxRetention:         7 * 24 * time.Hour,
		CleanupInterval:         24 * time.Hour,
		ExpirySweepInterval:     30 * time.Second,
		ExpiryBatchSize:         100,
		ReconcileInterval:       5 * time.Minute,
		ReconcileBatch:          100,
		ConsumerMaxRetries:      3,
		ConsumerInitialInterval: time.Second,
		SchedulerLockLease:      time.Minute,
	}
}
