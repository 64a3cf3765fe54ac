package booking

import (
	"context"
	"fmt"
	"time"

	"bookings/config"
	"bookings/db"
	"bookings/entities"
	"bookings/locks"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type BookingRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, booking entities.Booking) error
	GetByID(ctx context.Context, bookingID uuid.UUID) (entities.Booking, error)
	GetByIDTx(ctx context.Context, tx *sqlx.Tx, bookingID uuid.UUID) (entities.Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entities.Booking, error)
	UpdateStatus(ctx context.Context, tx *sqlx.Tx, booking entities.Booking) error
	CountActiveSeats(ctx context.Context, userID, gameID uuid.UUID) (int, error)
}

type SeatRepository interface {
	SelectAvailable(ctx context.Context, tx *sqlx.Tx, seatIDs []uuid.UUID, status entities.SeatStatus) ([]entities.SeatReplica, error)
	CASUpdateStatus(ctx context.Context, tx *sqlx.Tx, seatIDs []uuid.UUID, from, to entities.SeatStatus) (int64, error)
}

type GameRepository interface {
	MaxSeatsPerUser(ctx context.Context, gameID uuid.UUID, fallback int) (int, error)
}

type OutboxRepository interface {
	Append(ctx context.Context, tx *sqlx.Tx, record db.OutboxRecord) error
}

type SeatLocks interface {
	Acquire(ctx context.Context, seatIDs []uuid.UUID) (*locks.Handle, error)
	Release(ctx context.Context, handle *locks.Handle)
}

// Orchestrator composes the three locking tiers into the hold, confirm and
// cancel use cases. Every mutation runs inside one transaction together with
// its outbox records.
type Orchestrator struct {
	txs      TxRunner
	bookings BookingRepository
	seats    SeatRepository
	games    GameRepository
	outbox   OutboxRepository
	locks    SeatLocks
	cfg      config.Config
}

func NewOrchestrator(
	txs TxRunner,
	bookings BookingRepository,
	seats SeatRepository,
	games GameRepository,
	outbox OutboxRepository,
	seatLocks SeatLocks,
	cfg config.Config,
) *Orchestrator {
	return &Orchestrator{
		txs:      txs,
		bookings: bookings,
		seats:    seats,
		games:    games,
		outbox:   outbox,
		locks:    seatLocks,
		cfg:      cfg,
	}
}

// HoldSeats claims the requested seats for one user. The distributed lock
// narrows the race window; the SKIP LOCKED select and the set-based CAS
// close it entirely, so exactly one concurrent caller can take any seat even
// if the lock layer is degraded.
func (o *Orchestrator) HoldSeats(ctx context.Context, userID, gameID uuid.UUID, seatIDs []uuid.UUID) (entities.Booking, error) {
	if len(seatIDs) == 0 {
		return entities.Booking{}, entities.ErrNoSeatsRequested
	}
	if len(seatIDs) > o.cfg.MaxSeatsPerRequest {
		return entities.Booking{}, fmt.Errorf("requested %d seats, cap is %d: %w", len(seatIDs), o.cfg.MaxSeatsPerRequest, entities.ErrTooManySeats)
	}
	if hasDuplicates(seatIDs) {
		return entities.Booking{}, entities.ErrDuplicateSeats
	}

	maxPerUser, err := o.games.MaxSeatsPerUser(ctx, gameID, o.cfg.DefaultMaxSeatsPerUser)
	if err != nil {
		return entities.Booking{}, err
	}
	active, err := o.bookings.CountActiveSeats(ctx, userID, gameID)
	if err != nil {
		return entities.Booking{}, err
	}
	if active+len(seatIDs) > maxPerUser {
		return entities.Booking{}, fmt.Errorf("user holds %d seats, requested %d more, policy allows %d: %w",
			active, len(seatIDs), maxPerUser, entities.ErrSeatLimitExceeded)
	}

	handle, err := o.locks.Acquire(ctx, seatIDs)
	if err != nil {
		return entities.Booking{}, err
	}
	defer o.locks.Release(ctx, handle)

	var booking entities.Booking
	err = o.txs.WithTx(ctx, func(tx *sqlx.Tx) error {
		seats, err := o.seats.SelectAvailable(ctx, tx, seatIDs, entities.SeatAvailable)
		if err != nil {
			return err
		}
		if len(seats) != len(seatIDs) {
			return fmt.Errorf("%d of %d seats available: %w", len(seats), len(seatIDs), entities.ErrSeatNotAvailable)
		}

		booking = entities.NewBooking(userID, gameID, orderByRequest(seats, seatIDs), o.cfg.HoldTTL, time.Now().UTC())

		if err := o.bookings.Create(ctx, tx, booking); err != nil {
			return err
		}

		updated, err := o.seats.CASUpdateStatus(ctx, tx, seatIDs, entities.SeatAvailable, entities.SeatHeld)
		if err != nil {
			return err
		}
		if updated != int64(len(seatIDs)) {
			return fmt.Errorf("held %d of %d seats: %w", updated, len(seatIDs), entities.ErrSeatConflict)
		}

		if err := o.appendEvent(ctx, tx, "booking", booking.BookingID.String(), entities.BookingCreated_v1{
			Header:        entities.NewEventHeader(),
			BookingID:     booking.BookingID,
			UserID:        userID,
			GameID:        gameID,
			SeatIDs:       booking.SeatIDs(),
			TotalPrice:    booking.TotalPrice,
			HoldExpiresAt: *booking.HoldExpiresAt,
		}); err != nil {
			return err
		}
		for _, seatID := range booking.SeatIDs() {
			if err := o.appendEvent(ctx, tx, "seat", seatID.String(), entities.SeatHeld_v1{
				Header:    entities.NewEventHeader(),
				SeatID:    seatID,
				GameID:    gameID,
				BookingID: booking.BookingID,
			}); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return entities.Booking{}, err
	}

	log.FromContext(ctx).
		WithField("booking_id", booking.BookingID).
		WithField("seats", len(booking.Seats)).
		Info("Seats held")

	return booking, nil
}

// ConfirmBooking finalizes the sale once payment succeeded.
func (o *Orchestrator) ConfirmBooking(ctx context.Context, bookingID, userID uuid.UUID) (entities.Booking, error) {
	var booking entities.Booking
	err := o.txs.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		booking, err = o.bookings.GetByIDTx(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if booking.UserID != userID {
			return entities.ErrForbidden
		}
		if booking.Status != entities.BookingPending {
			return entities.ErrInvalidState
		}
		if booking.IsExpired(time.Now().UTC()) {
			return entities.ErrBookingExpired
		}

		seatIDs := booking.SeatIDs()
		updated, err := o.seats.CASUpdateStatus(ctx, tx, seatIDs, entities.SeatHeld, entities.SeatReserved)
		if err != nil {
			return err
		}
		if updated != int64(len(seatIDs)) {
			return fmt.Errorf("reserved %d of %d seats: %w", updated, len(seatIDs), entities.ErrSeatConflict)
		}

		if err := booking.Confirm(time.Now().UTC()); err != nil {
			return err
		}
		if err := o.bookings.UpdateStatus(ctx, tx, booking); err != nil {
			return err
		}

		return o.appendEvent(ctx, tx, "booking", booking.BookingID.String(), entities.BookingConfirmed_v1{
			Header:     entities.NewEventHeader(),
			BookingID:  booking.BookingID,
			UserID:     booking.UserID,
			GameID:     booking.GameID,
			SeatIDs:    seatIDs,
			TotalPrice: booking.TotalPrice,
		})
	})
	if err != nil {
		return entities.Booking{}, err
	}

	log.FromContext(ctx).WithField("booking_id", booking.BookingID).Info("Booking confirmed")

	return booking, nil
}

// CancelBooking is the user-initiated cancellation with ownership check.
func (o *Orchestrator) CancelBooking(ctx context.Context, bookingID, userID uuid.UUID) (entities.Booking, error) {
	return o.cancel(ctx, bookingID, &userID, "cancelled by user")
}

// ReleaseBooking is the system-initiated release path used by the saga
// compensation, the expiry sweeper and the reconciliation auditor. No
// ownership check.
func (o *Orchestrator) ReleaseBooking(ctx context.Context, bookingID uuid.UUID, reason string) (entities.Booking, error) {
	return o.cancel(ctx, bookingID, nil, reason)
}

func (o *Orchestrator) cancel(ctx context.Context, bookingID uuid.UUID, owner *uuid.UUID, reason string) (entities.Booking, error) {
	var booking entities.Booking
	err := o.txs.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		booking, err = o.bookings.GetByIDTx(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if owner != nil && booking.UserID != *owner {
			return entities.ErrForbidden
		}

		if !booking.Cancel() {
			// already cancelled: same terminal state, no side effects
			return nil
		}

		seatIDs := booking.SeatIDs()
		fromHeld, err := o.seats.CASUpdateStatus(ctx, tx, seatIDs, entities.SeatHeld, entities.SeatAvailable)
		if err != nil {
			return err
		}
		fromReserved, err := o.seats.CASUpdateStatus(ctx, tx, seatIDs, entities.SeatReserved, entities.SeatAvailable)
		if err != nil {
			return err
		}
		if fromHeld+fromReserved != int64(len(seatIDs)) {
			// seats already drifted; the reconciliation auditor will heal them
			log.FromContext(ctx).
				WithField("booking_id", bookingID).
				WithField("released", fromHeld+fromReserved).
				WithField("expected", len(seatIDs)).
				Warn("Released fewer seats than the booking owns")
		}

		if err := o.bookings.UpdateStatus(ctx, tx, booking); err != nil {
			return err
		}

		if err := o.appendEvent(ctx, tx, "booking", booking.BookingID.String(), entities.BookingCancelled_v1{
			Header:    entities.NewEventHeader(),
			BookingID: booking.BookingID,
			UserID:    booking.UserID,
			GameID:    booking.GameID,
			SeatIDs:   seatIDs,
			Reason:    reason,
		}); err != nil {
			return err
		}
		if err := o.appendEvent(ctx, tx, "booking", booking.BookingID.String(), entities.SeatsReleased_v1{
			Header:    entities.NewEventHeader(),
			BookingID: booking.BookingID,
			GameID:    booking.GameID,
			SeatIDs:   seatIDs,
		}); err != nil {
			return err
		}
		for _, seatID := range seatIDs {
			if err := o.appendEvent(ctx, tx, "seat", seatID.String(), entities.SeatReleased_v1{
				Header:    entities.NewEventHeader(),
				SeatID:    seatID,
				GameID:    booking.GameID,
				BookingID: booking.BookingID,
			}); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return entities.Booking{}, err
	}

	log.FromContext(ctx).
		WithField("booking_id", booking.BookingID).
		WithField("reason", reason).
		Info("Booking cancelled")

	return booking, nil
}

func (o *Orchestrator) GetBooking(ctx context.Context, bookingID, userID uuid.UUID) (entities.Booking, error) {
	booking, err := o.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return entities.Booking{}, err
	}
	if booking.UserID != userID {
		return entities.Booking{}, entities.ErrForbidden
	}

	return booking, nil
}

func (o *Orchestrator) ListBookings(ctx context.Context, userID uuid.UUID) ([]entities.Booking, error) {
	return o.bookings.ListByUser(ctx, userID)
}

func (o *Orchestrator) appendEvent(ctx context.Context, tx *sqlx.Tx, aggregateType, aggregateID string, event entities.Event) error {
	record, err := db.NewOutboxRecord(aggregateType, aggregateID, event)
	if err != nil {
		return err
	}
	return o.outbox.Append(ctx, tx, record)
}

func hasDuplicates(ids []uuid.UUID) bool {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}

func orderByRequest(seats []entities.SeatReplica, seatIDs []uuid.UUID) []entities.SeatReplica {
	byID := make(map[uuid.UUID]entities.SeatReplica, len(seats))
	for _, seat := range seats {
		byID[seat.SeatID] = seat
	}

	ordered := make([]entities.SeatReplica, 0, len(seatIDs))
	for _, id := range seatIDs {
		if seat, ok := byID[id]; ok {
			ordered = append(ordered, seat)
		}
	}
	return ordered
}
