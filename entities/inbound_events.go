package entities

import (
	"time"

	"github.com/google/uuid"
)

// Inbound events. Payment outcomes drive the saga; catalog events keep the
// seat replica and game policy in sync.

type PaymentCompleted_v1 struct {
	Header EventHeader `json:"header"`

	PaymentID uuid.UUID `json:"payment_id"`
	BookingID uuid.UUID `json:"booking_id"`
	UserID    uuid.UUID `json:"user_id"`
	Amount    float64   `json:"amount"`
	PaidAt    time.Time `json:"paid_at"`
}

func (e PaymentCompleted_v1) EventName() string    { return "PaymentCompleted_v1" }
func (e PaymentCompleted_v1) Topic() string        { return TopicPaymentEvents }
func (e PaymentCompleted_v1) PartitionKey() string { return e.BookingID.String() }

type PaymentFailed_v1 struct {
	Header EventHeader `json:"header"`

	PaymentID uuid.UUID `json:"payment_id"`
	BookingID uuid.UUID `json:"booking_id"`
	UserID    uuid.UUID `json:"user_id"`
	Reason    string    `json:"reason,omitempty"`
}

func (e PaymentFailed_v1) EventName() string    { return "PaymentFailed_v1" }
func (e PaymentFailed_v1) Topic() string        { return TopicPaymentEvents }
func (e PaymentFailed_v1) PartitionKey() string { return e.BookingID.String() }

type PaymentRefunded_v1 struct {
	Header EventHeader `json:"header"`

	PaymentID uuid.UUID `json:"payment_id"`
	BookingID uuid.UUID `json:"booking_id"`
	UserID    uuid.UUID `json:"user_id"`
	Amount    float64   `json:"amount"`
}

func (e PaymentRefunded_v1) EventName() string    { return "PaymentRefunded_v1" }
func (e PaymentRefunded_v1) Topic() string        { return TopicPaymentEvents }
func (e PaymentRefunded_v1) PartitionKey() string { return e.BookingID.String() }

type CatalogSeat struct {
	SeatID    uuid.UUID `json:"seat_id"`
	SectionID uuid.UUID `json:"section_id"`
	Price     float64   `json:"price"`
}

type SeatCatalogInitialized_v1 struct {
	Header EventHeader `json:"header"`

	GameID uuid.UUID     `json:"game_id"`
	Seats  []CatalogSeat `json:"seats"`
}

func (e SeatCatalogInitialized_v1) EventName() string    { return "SeatCatalogInitialized_v1" }
func (e SeatCatalogInitialized_v1) Topic() string        { return TopicCatalogEvents }
func (e SeatCatalogInitialized_v1) PartitionKey() string { return e.GameID.String() }

type GameInfoUpdated_v1 struct {
	Header EventHeader `json:"header"`

	GameID          uuid.UUID `json:"game_id"`
	Name            string    `json:"name"`
	MaxSeatsPerUser int       `json:"max_seats_per_user"`
}

func (e GameInfoUpdated_v1) EventName() string    { return "GameInfoUpdated_v1" }
func (e GameInfoUpdated_v1) Topic() string        { return TopicCatalogEvents }
func (e GameInfoUpdated_v1) PartitionKey() string { return e.GameID.String() }
