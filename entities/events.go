package entities

import (
	"time"

	"github.com/google/uuid"
)

const (
	TopicBookingEvents = "events.bookings"
	TopicSeatEvents    = "events.seats"
	TopicPaymentEvents = "events.payments"
	TopicCatalogEvents = "events.seat-catalog"
)

type EventHeader struct {
	ID             string    `json:"id"`
	PublishedAt    time.Time `json:"published_at"`
	IdempotencyKey string    `json:"idempotency_key"`
}

func NewEventHeader() EventHeader {
	return EventHeader{
		ID:             uuid.NewString(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: uuid.NewString(),
	}
}

func NewEventHeaderWithIdempotencyKey(idempotencyKey string) EventHeader {
	return EventHeader{
		ID:             uuid.NewString(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: idempotencyKey,
	}
}

// Event is implemented by every event this service publishes or consumes.
// Topic and PartitionKey drive outbox routing; EventName ends up in the
// message metadata so consumers can dispatch without unmarshalling.
type Event interface {
	EventName() string
	Topic() string
	PartitionKey() string
}

type BookingCreated_v1 struct {
	Header EventHeader `json:"header"`

	BookingID     uuid.UUID   `json:"booking_id"`
	UserID        uuid.UUID   `json:"user_id"`
	GameID        uuid.UUID   `json:"game_id"`
	SeatIDs       []uuid.UUID `json:"seat_ids"`
	TotalPrice    float64     `json:"total_price"`
	HoldExpiresAt time.Time   `json:"hold_expires_at"`
}

func (e BookingCreated_v1) EventName() string    { return "BookingCreated_v1" }
func (e BookingCreated_v1) Topic() string        { return TopicBookingEvents }
func (e BookingCreated_v1) PartitionKey() string { return e.BookingID.String() }

type BookingConfirmed_v1 struct {
	Header EventHeader `json:"header"`

	BookingID  uuid.UUID   `json:"booking_id"`
	UserID     uuid.UUID   `json:"user_id"`
	GameID     uuid.UUID   `json:"game_id"`
	SeatIDs    []uuid.UUID `json:"seat_ids"`
	TotalPrice float64     `json:"total_price"`
}

func (e BookingConfirmed_v1) EventName() string    { return "BookingConfirmed_v1" }
func (e BookingConfirmed_v1) Topic() string        { return TopicBookingEvents }
func (e BookingConfirmed_v1) PartitionKey() string { return e.BookingID.String() }

type BookingCancelled_v1 struct {
	Header EventHeader `json:"header"`

	BookingID uuid.UUID   `json:"booking_id"`
	UserID    uuid.UUID   `json:"user_id"`
	GameID    uuid.UUID   `json:"game_id"`
	SeatIDs   []uuid.UUID `json:"seat_ids"`
	Reason    string      `json:"reason,omitempty"`
}

func (e BookingCancelled_v1) EventName() string    { return "BookingCancelled_v1" }
func (e BookingCancelled_v1) Topic() string        { return TopicBookingEvents }
func (e BookingCancelled_v1) PartitionKey() string { return e.BookingID.String() }

type SeatHeld_v1 struct {
	Header EventHeader `json:"header"`

	SeatID    uuid.UUID `json:"seat_id"`
	GameID    uuid.UUID `json:"game_id"`
	BookingID uuid.UUID `json:"booking_id"`
}

func (e SeatHeld_v1) EventName() string    { return "SeatHeld_v1" }
func (e SeatHeld_v1) Topic() string        { return TopicSeatEvents }
func (e SeatHeld_v1) PartitionKey() string { return e.SeatID.String() }

type SeatReleased_v1 struct {
	Header EventHeader `json:"header"`

	SeatID    uuid.UUID `json:"seat_id"`
	GameID    uuid.UUID `json:"game_id"`
	BookingID uuid.UUID `json:"booking_id"`
}

func (e SeatReleased_v1) EventName() string    { return "SeatReleased_v1" }
func (e SeatReleased_v1) Topic() string        { return TopicSeatEvents }
func (e SeatReleased_v1) PartitionKey() string { return e.SeatID.String() }

type SeatsReleased_v1 struct {
	Header EventHeader `json:"header"`

	BookingID uuid.UUID   `json:"booking_id"`
	GameID    uuid.UUID   `json:"game_id"`
	SeatIDs   []uuid.UUID `json:"seat_ids"`
}

func (e SeatsReleased_v1) EventName() string    { return "SeatsReleased_v1" }
func (e SeatsReleased_v1) Topic() string        { return TopicSeatEvents }
func (e SeatsReleased_v1) PartitionKey() string { return e.BookingID.String() }
