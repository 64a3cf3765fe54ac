package workers

import (
	"context"
	"time"

	"bookings/config"
	"bookings/entities"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
)

type ExpiredBookingSource interface {
	FindExpired(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

type BookingReleaser interface {
	ReleaseBooking(ctx context.Context, bookingID uuid.UUID, reason string) (entities.Booking, error)
}

type ClusterLock interface {
	WithLock(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

// ExpirySweeper reclaims abandoned holds: PENDING bookings whose deadline
// passed are released in bounded batches. Each booking is handled
// independently, so one failure never aborts the rest of the batch.
type ExpirySweeper struct {
	bookings ExpiredBookingSource
	releaser BookingReleaser
	lock     ClusterLock
	cfg      config.Config
}

func NewExpirySweeper(bookings ExpiredBookingSource, releaser BookingReleaser, lock ClusterLock, cfg config.Config) *ExpirySweeper {
	return &ExpirySweeper{
		bookings: bookings,
		releaser: releaser,
		lock:     lock,
		cfg:      cfg,
	}
}

func (s *ExpirySweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.ExpirySweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := s.lock.WithLock(ctx, "hold-expiry", s.Sweep)
			if err != nil && ctx.Err() == nil {
				log.FromContext(ctx).Errorf("expiry sweep failed: %v", err)
			}
		}
	}
}

func (s *ExpirySweeper) Sweep(ctx context.Context) error {
	ids, err := s.bookings.FindExpired(ctx, time.Now().UTC(), s.cfg.ExpiryBatchSize)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	log.FromContext(ctx).WithField("count", len(ids)).Info("Releasing expired holds")

	for _, id := range ids {
		if _, err := s.releaser.ReleaseBooking(ctx, id, "hold expired"); err != nil {
			log.FromContext(ctx).WithField("booking_id", id).Errorf("could not release expired booking: %v", err)
		}
	}

	return nil
}
