package db

import (
	"context"
	"fmt"

	"bookings/entities"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type SeatRepository struct {
	db *DB
}

func NewSeatRepository(db *DB) SeatRepository {
	if db == nil {
		panic("db is nil")
	}
	return SeatRepository{db: db}
}

// SelectAvailable row-locks the requested seats in the given status,
// skipping rows already locked by a concurrent transaction instead of
// blocking on them. Racing transactions on overlapping seat sets therefore
// see fewer rows and fail fast; they never deadlock. The caller must
// compare len(result) against len(seatIDs).
func (sr SeatRepository) SelectAvailable(ctx context.Context, tx *sqlx.Tx, seatIDs []uuid.UUID, status entities.SeatStatus) ([]entities.SeatReplica, error) {
	var seats []entities.SeatReplica
	err := tx.SelectContext(ctx, &seats, `
		SELECT seat_id, game_id, section_id, price, status
		FROM seat_replicas
		WHERE seat_id = ANY($1) AND status = $2
		FOR UPDATE SKIP LOCKED
	`, uuidArray(seatIDs), status)
	if err != nil {
		return nil, fmt.Errorf("could not select seats: %w", err)
	}

	return seats, nil
}

// CASUpdateStatus transitions all given seats from one status to another in
// a single set-based update and returns how many rows actually changed.
// Callers MUST treat updated != len(seatIDs) as a conflict and abort their
// enclosing transaction; a partially-applied bulk update is never an
// acceptable terminal state.
func (sr SeatRepository) CASUpdateStatus(ctx context.Context, tx *sqlx.Tx, seatIDs []uuid.UUID, from, to entities.SeatStatus) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE seat_replicas
		SET status = $1
		WHERE seat_id = ANY($2) AND status = $3
	`, to, uuidArray(seatIDs), from)
	if err != nil {
		return 0, fmt.Errorf("could not update seat status: %w", err)
	}

	updated, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("could not read affected rows: %w", err)
	}

	return updated, nil
}

// UpsertFromCatalog applies a catalog-sync event. The catalog owns identity
// and price; the status column belongs to this service and is only set on
// first insert.
func (sr SeatRepository) UpsertFromCatalog(ctx context.Context, gameID uuid.UUID, seats []entities.CatalogSeat) error {
	for _, seat := range seats {
		_, err := sr.db.Conn.ExecContext(ctx, `
			INSERT INTO seat_replicas (seat_id, game_id, section_id, price, status)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (seat_id) DO UPDATE
			SET game_id = EXCLUDED.game_id, section_id = EXCLUDED.section_id, price = EXCLUDED.price
		`, seat.SeatID, gameID, seat.SectionID, seat.Price, entities.SeatAvailable)
		if err != nil {
			return fmt.Errorf("could not upsert seat %s: %w", seat.SeatID, err)
		}
	}

	return nil
}

// FindOrphanedHeld returns HELD seats that no PENDING booking references.
// They are leftovers of a lost release and are safe to auto-heal.
func (sr SeatRepository) FindOrphanedHeld(ctx context.Context, limit int) ([]entities.SeatReplica, error) {
	var seats []entities.SeatReplica
	err := sr.db.Conn.SelectContext(ctx, &seats, `
		SELECT s.seat_id, s.game_id, s.section_id, s.price, s.status
		FROM seat_replicas s
		WHERE s.status = $1
		  AND NOT EXISTS (
			SELECT 1
			FROM booking_seats bs
			JOIN bookings b ON b.booking_id = bs.booking_id
			WHERE bs.seat_id = s.seat_id AND b.status = $2
		  )
		LIMIT $3
	`, entities.SeatHeld, entities.BookingPending, limit)
	if err != nil {
		return nil, fmt.Errorf("could not find orphaned held seats: %w", err)
	}

	return seats, nil
}

// FindConfirmedUnreserved returns ids of CONFIRMED bookings owning at least
// one seat that is not RESERVED. Detection only: it is ambiguous which side
// is authoritative, so the auditor reports instead of fixing.
func (sr SeatRepository) FindConfirmedUnreserved(ctx context.Context, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := sr.db.Conn.SelectContext(ctx, &ids, `
		SELECT DISTINCT b.booking_id
		FROM bookings b
		JOIN booking_seats bs ON bs.booking_id = b.booking_id
		JOIN seat_replicas s ON s.seat_id = bs.seat_id
		WHERE b.status = $1 AND s.status <> $2
		LIMIT $3
	`, entities.BookingConfirmed, entities.SeatReserved, limit)
	if err != nil {
		return nil, fmt.Errorf("could not find unreserved confirmed bookings: %w", err)
	}

	return ids, nil
}

func uuidArray(ids []uuid.UUID) interface{} {
	strs := make([]string, 0, len(ids))
	for _, id := range ids {
		strs = append(strs, id.String())
	}
	return pq.Array(strs)
}
