package workers

import (
	"context"
	"time"

	"bookings/config"
	"bookings/db"
	"bookings/entities"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type SeatAuditSource interface {
	FindOrphanedHeld(ctx context.Context, limit int) ([]entities.SeatReplica, error)
	FindConfirmedUnreserved(ctx context.Context, limit int) ([]uuid.UUID, error)
	CASUpdateStatus(ctx context.Context, tx *sqlx.Tx, seatIDs []uuid.UUID, from, to entities.SeatStatus) (int64, error)
}

type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type OutboxAppender interface {
	Append(ctx context.Context, tx *sqlx.Tx, record db.OutboxRecord) error
}

// Auditor is the drift detector between bookings and seat replicas: two
// independently-updated stores that should agree but may not after lost
// events or half-failed compensations. It heals what is unambiguous and
// reports the rest.
type Auditor struct {
	txs      TxRunner
	seats    SeatAuditSource
	bookings ExpiredBookingSource
	outbox   OutboxAppender
	lock     ClusterLock
	cfg      config.Config
}

func NewAuditor(
	txs TxRunner,
	seats SeatAuditSource,
	bookings ExpiredBookingSource,
	outbox OutboxAppender,
	lock ClusterLock,
	cfg config.Config,
) *Auditor {
	return &Auditor{
		txs:      txs,
		seats:    seats,
		bookings: bookings,
		outbox:   outbox,
		lock:     lock,
		cfg:      cfg,
	}
}

func (a *Auditor) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := a.lock.WithLock(ctx, "reconciliation", a.Reconcile)
			if err != nil && ctx.Err() == nil {
				log.FromContext(ctx).Errorf("reconciliation run failed: %v", err)
			}
		}
	}
}

func (a *Auditor) Reconcile(ctx context.Context) error {
	if err := a.healOrphanedHolds(ctx); err != nil {
		return err
	}
	if err := a.reportConfirmedUnreserved(ctx); err != nil {
		return err
	}
	return a.reportOverdueHolds(ctx)
}

// healOrphanedHolds releases HELD seats that no PENDING booking references.
// This is the one unambiguous repair: such a seat can only be the residue of
// a lost release, so giving it back cannot take it from anyone.
func (a *Auditor) healOrphanedHolds(ctx context.Context) error {
	orphans, err := a.seats.FindOrphanedHeld(ctx, a.cfg.ReconcileBatch)
	if err != nil {
		return err
	}
	if len(orphans) == 0 {
		return nil
	}

	seatIDs := make([]uuid.UUID, 0, len(orphans))
	for _, seat := range orphans {
		seatIDs = append(seatIDs, seat.SeatID)
	}

	err = a.txs.WithTx(ctx, func(tx *sqlx.Tx) error {
		released, err := a.seats.CASUpdateStatus(ctx, tx, seatIDs, entities.SeatHeld, entities.SeatAvailable)
		if err != nil {
			return err
		}
		if released != int64(len(seatIDs)) {
			// someone released or reserved a seat between the scan and now;
			// the next pass will pick up whatever is still orphaned
			log.FromContext(ctx).
				WithField("released", released).
				WithField("expected", len(seatIDs)).
				Warn("Some orphaned seats changed state during reconciliation")
		}

		for _, seat := range orphans {
			record, err := db.NewOutboxRecord("seat", seat.SeatID.String(), entities.SeatReleased_v1{
				Header: entities.NewEventHeader(),
				SeatID: seat.SeatID,
				GameID: seat.GameID,
			})
			if err != nil {
				return err
			}
			if err := a.outbox.Append(ctx, tx, record); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	log.FromContext(ctx).WithField("count", len(orphans)).Info("Healed orphaned held seats")

	return nil
}

// reportConfirmedUnreserved only reports: a CONFIRMED booking whose seats
// are not RESERVED means one of the two stores is wrong, and it is ambiguous
// which, so no auto-fix.
func (a *Auditor) reportConfirmedUnreserved(ctx context.Context) error {
	ids, err := a.seats.FindConfirmedUnreserved(ctx, a.cfg.ReconcileBatch)
	if err != nil {
		return err
	}

	for _, id := range ids {
		log.FromContext(ctx).
			WithField("booking_id", id).
			Error("Confirmed booking with unreserved seats, operator attention required")
	}

	return nil
}

// reportOverdueHolds overlaps with the expiry sweeper on purpose: if the
// sweeper lags or keeps failing on a booking, this is where it surfaces.
func (a *Auditor) reportOverdueHolds(ctx context.Context) error {
	ids, err := a.bookings.FindExpired(ctx, time.Now().UTC(), a.cfg.ReconcileBatch)
	if err != nil {
		return err
	}

	for _, id := range ids {
		log.FromContext(ctx).
			WithField("booking_id", id).
			Warn("Pending booking past its hold deadline")
	}

	return nil
}
