package entities

import (
	"fmt"

	"github.com/google/uuid"
)

type SeatStatus string

const (
	SeatAvailable SeatStatus = "AVAILABLE"
	SeatHeld      SeatStatus = "HELD"
	SeatReserved  SeatStatus = "RESERVED"
)

// Hold returns the HELD status, legal only from AVAILABLE.
func (s SeatStatus) Hold() (SeatStatus, error) {
	if s != SeatAvailable {
		return s, fmt.Errorf("cannot hold a %s seat: %w", s, ErrInvalidState)
	}
	return SeatHeld, nil
}

// Reserve returns the RESERVED status, legal only from HELD.
func (s SeatStatus) Reserve() (SeatStatus, error) {
	if s != SeatHeld {
		return s, fmt.Errorf("cannot reserve a %s seat: %w", s, ErrInvalidState)
	}
	return SeatReserved, nil
}

// Release returns the AVAILABLE status, legal from HELD or RESERVED.
func (s SeatStatus) Release() (SeatStatus, error) {
	if s != SeatHeld && s != SeatReserved {
		return s, fmt.Errorf("cannot release a %s seat: %w", s, ErrInvalidState)
	}
	return SeatAvailable, nil
}

// SeatReplica is the local, eventually-consistent mirror of a catalog seat.
// The catalog owns identity and price; this service exclusively owns the
// status column and its transitions.
type SeatReplica struct {
	SeatID    uuid.UUID  `json:"seat_id" db:"seat_id"`
	GameID    uuid.UUID  `json:"game_id" db:"game_id"`
	SectionID uuid.UUID  `json:"section_id" db:"section_id"`
	Price     float64    `json:"price" db:"price"`
	Status    SeatStatus `json:"status" db:"status"`
}

// Game mirrors the catalog's game info; MaxSeatsPerUser is the per-user
// purchase policy enforced on hold.
type Game struct {
	GameID          uuid.UUID `json:"game_id" db:"game_id"`
	Name            string    `json:"name" db:"name"`
	MaxSeatsPerUser int       `json:"max_seats_per_user" db:"max_seats_per_user"`
}
