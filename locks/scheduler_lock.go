package locks

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const schedulerLockPrefix = "scheduler-lock:"

// SchedulerLock makes background jobs single-flight per cluster. Losing the
// race is not an error: another replica is doing the work.
type SchedulerLock struct {
	rdb   *redis.Client
	lease time.Duration
}

func NewSchedulerLock(rdb *redis.Client, lease time.Duration) *SchedulerLock {
	if rdb == nil {
		panic("redis client is nil")
	}
	return &SchedulerLock{rdb: rdb, lease: lease}
}

// WithLock runs fn only if this process wins the cluster-wide lock named
// name; the lock is released on every path, including a panicking fn.
func (l *SchedulerLock) WithLock(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	key := schedulerLockPrefix + name
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, key, token, l.lease).Result()
	if err != nil {
		return err
	}
	if !ok {
		log.FromContext(ctx).WithField("lock", name).Debug("scheduler lock held elsewhere, skipping run")
		return nil
	}

	defer func() {
		value, err := l.rdb.Get(ctx, key).Result()
		if err != nil || value != token {
			return
		}
		if err := l.rdb.Del(ctx, key).Err(); err != nil {
			log.FromContext(ctx).WithField("lock", name).Warnf("could not release scheduler lock: %v", err)
		}
	}()

	return fn(ctx)
}
