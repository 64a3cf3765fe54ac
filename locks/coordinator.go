package locks

import (
	"context"
	"fmt"
	"sort"
	"time"

	"bookings/entities"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const seatLockPrefix = "seat-lock:"

// Coordinator provides cross-process mutual exclusion keyed by seat id on
// top of Redis SET NX leases. It is tier 1 of the locking stack; the row
// locks and CAS updates below it keep correctness even if a lease expires
// early.
type Coordinator struct {
	rdb   *redis.Client
	wait  time.Duration
	lease time.Duration
}

func NewCoordinator(rdb *redis.Client, wait, lease time.Duration) *Coordinator {
	if rdb == nil {
		panic("redis client is nil")
	}
	return &Coordinator{rdb: rdb, wait: wait, lease: lease}
}

// Handle identifies one successful Acquire call. The token guards against
// releasing a lock that has expired and been re-acquired by someone else.
type Handle struct {
	keys  []string
	token string
}

// Acquire takes one lock per seat id, in a fixed global order so concurrent
// callers cannot deadlock on overlapping sets. Either every lock is taken or
// none is: any failure or timeout releases the part already held. The lease
// bounds how long a crashed holder can block others.
func (c *Coordinator) Acquire(ctx context.Context, seatIDs []uuid.UUID) (*Handle, error) {
	sorted := make([]string, 0, len(seatIDs))
	for _, id := range seatIDs {
		sorted = append(sorted, id.String())
	}
	sort.Strings(sorted)

	handle := &Handle{token: uuid.NewString()}
	deadline := time.Now().Add(c.wait)

	for _, id := range sorted {
		key := seatLockPrefix + id

		for {
			ok, err := c.rdb.SetNX(ctx, key, handle.token, c.lease).Result()
			if err != nil {
				// lock backend unreachable: fail fast, never proceed unlocked
				c.Release(ctx, handle)
				return nil, fmt.Errorf("lock backend error for seat %s: %w", id, entities.ErrLockUnavailable)
			}
			if ok {
				handle.keys = append(handle.keys, key)
				break
			}
			if time.Now().After(deadline) {
				c.Release(ctx, handle)
				return nil, fmt.Errorf("timed out waiting for seat %s: %w", id, entities.ErrLockUnavailable)
			}

			select {
			case <-ctx.Done():
				c.Release(ctx, handle)
				return nil, fmt.Errorf("%w: %w", entities.ErrLockUnavailable, ctx.Err())
			case <-time.After(50 * time.Millisecond):
			}
		}
	}

	return handle, nil
}

// Release is best-effort: errors are logged and never propagated. A lock we
// fail to delete self-expires with its lease.
func (c *Coordinator) Release(ctx context.Context, handle *Handle) {
	if handle == nil {
		return
	}

	for _, key := range handle.keys {
		value, err := c.rdb.Get(ctx, key).Result()
		if err != nil {
			if err != redis.Nil {
				log.FromContext(ctx).WithField("key", key).Warnf("could not read lock for release: %v", err)
			}
			continue
		}
		if value != handle.token {
			// lease expired and someone else holds it now
			continue
		}
		if err := c.rdb.Del(ctx, key).Err(); err != nil {
			log.FromContext(ctx).WithField("key", key).Warnf("could not release lock: %v", err)
		}
	}

	handle.keys = nil
}
