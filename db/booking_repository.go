package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bookings/entities"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type BookingRepository struct {
	db *DB
}

func NewBookingRepository(db *DB) BookingRepository {
	if db == nil {
		panic("db is nil")
	}
	return BookingRepository{db: db}
}

// Create inserts the booking and its seats inside the caller's transaction,
// so a later CAS failure in the same transaction also removes the booking.
func (br BookingRepository) Create(ctx context.Context, tx *sqlx.Tx, booking entities.Booking) error {
	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO
		    bookings (booking_id, user_id, game_id, status, total_price, hold_expires_at, version, created_at)
		VALUES (:booking_id, :user_id, :game_id, :status, :total_price, :hold_expires_at, :version, :created_at)
		`, booking)
	if err != nil {
		return fmt.Errorf("could not insert booking: %w", err)
	}

	for _, seat := range booking.Seats {
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO
			    booking_seats (booking_id, seat_id, price, seat_order)
			VALUES (:booking_id, :seat_id, :price, :seat_order)
			`, seat)
		if err != nil {
			return fmt.Errorf("could not insert booking seat: %w", err)
		}
	}

	return nil
}

func (br BookingRepository) GetByID(ctx context.Context, bookingID uuid.UUID) (entities.Booking, error) {
	return getBooking(ctx, br.db.Conn, bookingID)
}

// GetByIDTx reads the booking through the given transaction so the
// subsequent version-checked update sees a consistent row.
func (br BookingRepository) GetByIDTx(ctx context.Context, tx *sqlx.Tx, bookingID uuid.UUID) (entities.Booking, error) {
	return getBooking(ctx, tx, bookingID)
}

func getBooking(ctx context.Context, q sqlx.QueryerContext, bookingID uuid.UUID) (entities.Booking, error) {
	var booking entities.Booking
	err := sqlx.GetContext(ctx, q, &booking, `
		SELECT booking_id, user_id, game_id, status, total_price, hold_expires_at, version, created_at
		FROM bookings
		WHERE booking_id = $1
	`, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Booking{}, entities.ErrBookingNotFound
	}
	if err != nil {
		return entities.Booking{}, fmt.Errorf("could not get booking: %w", err)
	}

	err = sqlx.SelectContext(ctx, q, &booking.Seats, `
		SELECT booking_id, seat_id, price, seat_order
		FROM booking_seats
		WHERE booking_id = $1
		ORDER BY seat_order
	`, bookingID)
	if err != nil {
		return entities.Booking{}, fmt.Errorf("could not get booking seats: %w", err)
	}

	return booking, nil
}

func (br BookingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entities.Booking, error) {
	var bookings []entities.Booking
	err := br.db.Conn.SelectContext(ctx, &bookings, `
		SELECT booking_id, user_id, game_id, status, total_price, hold_expires_at, version, created_at
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("could not list bookings: %w", err)
	}

	for i := range bookings {
		err = br.db.Conn.SelectContext(ctx, &bookings[i].Seats, `
			SELECT booking_id, seat_id, price, seat_order
			FROM booking_seats
			WHERE booking_id = $1
			ORDER BY seat_order
		`, bookings[i].BookingID)
		if err != nil {
			return nil, fmt.Errorf("could not get booking seats: %w", err)
		}
	}

	return bookings, nil
}

// UpdateStatus persists a state-machine transition with an optimistic
// version check. It returns ErrBookingConflict when the row moved on since
// it was read; callers run inside WithTx so the conflict aborts everything.
func (br BookingRepository) UpdateStatus(ctx context.Context, tx *sqlx.Tx, booking entities.Booking) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE bookings
		SET status = $1, hold_expires_at = $2, version = version + 1
		WHERE booking_id = $3 AND version = $4
	`, booking.Status, booking.HoldExpiresAt, booking.BookingID, booking.Version)
	if err != nil {
		return fmt.Errorf("could not update booking status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not read affected rows: %w", err)
	}
	if affected != 1 {
		return entities.ErrBookingConflict
	}

	return nil
}

// CountActiveSeats returns how many seats the user already holds for the
// game across PENDING and CONFIRMED bookings; the per-user policy is
// enforced against this number.
func (br BookingRepository) CountActiveSeats(ctx context.Context, userID, gameID uuid.UUID) (int, error) {
	var count int
	err := br.db.Conn.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM booking_seats bs
		JOIN bookings b ON b.booking_id = bs.booking_id
		WHERE b.user_id = $1 AND b.game_id = $2 AND b.status = ANY($3)
	`, userID, gameID, pq.Array([]string{string(entities.BookingPending), string(entities.BookingConfirmed)}))
	if err != nil {
		return 0, fmt.Errorf("could not count active seats: %w", err)
	}

	return count, nil
}

// FindExpired returns ids of PENDING bookings whose hold deadline passed.
func (br BookingRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := br.db.Conn.SelectContext(ctx, &ids, `
		SELECT booking_id
		FROM bookings
		WHERE status = $1 AND hold_expires_at <= $2
		ORDER BY hold_expires_at
		LIMIT $3
	`, entities.BookingPending, now, limit)
	if err != nil {
		return nil, fmt.Errorf("could not find expired bookings: %w", err)
	}

	return ids, nil
}
