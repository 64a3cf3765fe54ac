package outbox

import (
	"context"
	"time"

	"bookings/config"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
)

type RetentionStore interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Cleaner garbage-collects PUBLISHED outbox rows past the retention window.
// The outbox bounds storage; the events table of downstream consumers is
// the audit trail, not this one.
type Cleaner struct {
	store RetentionStore
	lock  ClusterLock
	cfg   config.Config
}

func NewCleaner(store RetentionStore, lock ClusterLock, cfg config.Config) *Cleaner {
	return &Cleaner{store: store, lock: lock, cfg: cfg}
}

func (c *Cleaner) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := c.lock.WithLock(ctx, "outbox-cleaner", c.clean)
			if err != nil && ctx.Err() == nil {
				log.FromContext(ctx).Errorf("outbox cleanup failed: %v", err)
			}
		}
	}
}

func (c *Cleaner) clean(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-c.cfg.OutboxRetention)

	deleted, err := c.store.DeletePublishedBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		log.FromContext(ctx).WithField("deleted", deleted).Info("Cleaned up published outbox records")
	}

	return nil
}
