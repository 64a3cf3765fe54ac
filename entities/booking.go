package entities

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Booking is the aggregate root of a seat purchase. It is created PENDING
// with a hold deadline, moves to CONFIRMED when the payment outcome arrives
// in time, or to CANCELLED otherwise. Both end states are terminal; bookings
// are never deleted.
type Booking struct {
	BookingID     uuid.UUID     `json:"booking_id" db:"booking_id"`
	UserID        uuid.UUID     `json:"user_id" db:"user_id"`
	GameID        uuid.UUID     `json:"game_id" db:"game_id"`
	Status        BookingStatus `json:"status" db:"status"`
	TotalPrice    float64       `json:"total_price" db:"total_price"`
	HoldExpiresAt *time.Time    `json:"hold_expires_at,omitempty" db:"hold_expires_at"`
	Version       int           `json:"-" db:"version"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`

	Seats []BookingSeat `json:"seats" db:"-"`
}

// BookingSeat is owned by exactly one booking. The price is snapshotted at
// hold time so later catalog price changes cannot affect an existing booking.
type BookingSeat struct {
	BookingID uuid.UUID `json:"-" db:"booking_id"`
	SeatID    uuid.UUID `json:"seat_id" db:"seat_id"`
	Price     float64   `json:"price" db:"price"`
	SeatOrder int       `json:"-" db:"seat_order"`
}

func NewBooking(userID, gameID uuid.UUID, seats []SeatReplica, holdTTL time.Duration, now time.Time) Booking {
	bookingID := uuid.New()
	expiresAt := now.Add(holdTTL)

	booking := Booking{
		BookingID:     bookingID,
		UserID:        userID,
		GameID:        gameID,
		Status:        BookingPending,
		HoldExpiresAt: &expiresAt,
		CreatedAt:     now,
	}

	for i, seat := range seats {
		booking.Seats = append(booking.Seats, BookingSeat{
			BookingID: bookingID,
			SeatID:    seat.SeatID,
			Price:     seat.Price,
			SeatOrder: i,
		})
		booking.TotalPrice += seat.Price
	}

	return booking
}

func (b *Booking) SeatIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(b.Seats))
	for _, seat := range b.Seats {
		ids = append(ids, seat.SeatID)
	}
	return ids
}

func (b *Booking) IsExpired(now time.Time) bool {
	return b.Status == BookingPending && b.HoldExpiresAt != nil && now.After(*b.HoldExpiresAt)
}

// Confirm moves the booking to CONFIRMED. It is legal only while the booking
// is PENDING and the hold deadline has not passed.
func (b *Booking) Confirm(now time.Time) error {
	if b.Status != BookingPending {
		return ErrInvalidState
	}
	if b.IsExpired(now) {
		return ErrBookingExpired
	}

	b.Status = BookingConfirmed
	b.HoldExpiresAt = nil

	return nil
}

// Cancel is idempotent: it reports false when the booking was already
// CANCELLED and transitions unconditionally otherwise. Cancelling a
// CONFIRMED booking is a valid compensating action.
func (b *Booking) Cancel() bool {
	if b.Status == BookingCancelled {
		return false
	}

	b.Status = BookingCancelled
	b.HoldExpiresAt = nil

	return true
}
