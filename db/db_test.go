package db

import (
	"context"
	"os"
	"sync"
	"testing"

	"bookings/entities"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

var testDB *DB
var getDbOnce sync.Once

func getDb(t *testing.T) *DB {
	t.Helper()

	if os.Getenv("POSTGRES_URL") == "" {
		t.Skip("POSTGRES_URL not set")
	}

	getDbOnce.Do(func() {
		conn, err := sqlx.Open("postgres", os.Getenv("POSTGRES_URL"))
		if err != nil {
			panic(err)
		}
		testDB = &DB{Conn: conn}
		testDB.MigrateSchema()
	})

	return testDB
}

func insertSeats(t *testing.T, conn *DB, gameID uuid.UUID, status entities.SeatStatus, count int) []entities.SeatReplica {
	t.Helper()

	sectionID := uuid.New()
	seats := make([]entities.SeatReplica, 0, count)
	for i := 0; i < count; i++ {
		seat := entities.SeatReplica{
			SeatID:    uuid.New(),
			GameID:    gameID,
			SectionID: sectionID,
			Price:     50,
			Status:    status,
		}
		_, err := conn.Conn.Exec(`
			INSERT INTO seat_replicas (seat_id, game_id, section_id, price, status)
			VALUES ($1, $2, $3, $4, $5)
		`, seat.SeatID, seat.GameID, seat.SectionID, seat.Price, seat.Status)
		require.NoError(t, err)
		seats = append(seats, seat)
	}

	return seats
}

func insertBooking(t *testing.T, conn *DB, booking entities.Booking) {
	t.Helper()

	err := conn.WithTx(context.Background(), func(tx *sqlx.Tx) error {
		return NewBookingRepository(conn).Create(context.Background(), tx, booking)
	})
	require.NoError(t, err)
}

func seatIDsOf(seats []entities.SeatReplica) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(seats))
	for _, seat := range seats {
		ids = append(ids, seat.SeatID)
	}
	return ids
}

func seatStatus(t *testing.T, conn *DB, seatID uuid.UUID) entities.SeatStatus {
	t.Helper()

	var status entities.SeatStatus
	err := conn.Conn.Get(&status, `SELECT status FROM seat_replicas WHERE seat_id = $1`, seatID)
	require.NoError(t, err)
	return status
}
