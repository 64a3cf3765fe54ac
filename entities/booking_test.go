package entities_test

import (
	"testing"
	"time"

	"bookings/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBooking(t *testing.T) {
	userID := uuid.New()
	gameID := uuid.New()
	now := time.Now().UTC()

	seats := []entities.SeatReplica{
		{SeatID: uuid.New(), GameID: gameID, Price: 40},
		{SeatID: uuid.New(), GameID: gameID, Price: 60.5},
	}

	booking := entities.NewBooking(userID, gameID, seats, 5*time.Minute, now)

	assert.Equal(t, entities.BookingPending, booking.Status)
	assert.Equal(t, userID, booking.UserID)
	assert.Equal(t, gameID, booking.GameID)
	assert.Equal(t, 100.5, booking.TotalPrice)

	require.NotNil(t, booking.HoldExpiresAt)
	assert.Equal(t, now.Add(5*time.Minute), *booking.HoldExpiresAt)

	require.Len(t, booking.Seats, 2)
	for i, seat := range booking.Seats {
		assert.Equal(t, booking.BookingID, seat.BookingID)
		assert.Equal(t, seats[i].SeatID, seat.SeatID)
		assert.Equal(t, seats[i].Price, seat.Price)
		assert.Equal(t, i, seat.SeatOrder)
	}
	assert.Equal(t, []uuid.UUID{seats[0].SeatID, seats[1].SeatID}, booking.SeatIDs())
}

func TestBookingIsExpired(t *testing.T) {
	now := time.Now().UTC()
	booking := entities.NewBooking(uuid.New(), uuid.New(), nil, 5*time.Minute, now)

	assert.False(t, booking.IsExpired(now))
	assert.False(t, booking.IsExpired(now.Add(5*time.Minute)))
	assert.True(t, booking.IsExpired(now.Add(5*time.Minute+time.Second)))

	// terminal states never expire
	booking.Status = entities.BookingConfirmed
	assert.False(t, booking.IsExpired(now.Add(time.Hour)))
}

func TestBookingConfirm(t *testing.T) {
	now := time.Now().UTC()

	t.Run("pending booking within deadline", func(t *testing.T) {
		booking := entities.NewBooking(uuid.New(), uuid.New(), nil, 5*time.Minute, now)

		err := booking.Confirm(now.Add(time.Minute))
		require.NoError(t, err)

		assert.Equal(t, entities.BookingConfirmed, booking.Status)
		assert.Nil(t, booking.HoldExpiresAt)
	})

	t.Run("expired hold", func(t *testing.T) {
		booking := entities.NewBooking(uuid.New(), uuid.New(), nil, 5*time.Minute, now)

		err := booking.Confirm(now.Add(10 * time.Minute))
		assert.ErrorIs(t, err, entities.ErrBookingExpired)
		assert.Equal(t, entities.BookingPending, booking.Status)
	})

	t.Run("already cancelled", func(t *testing.T) {
		booking := entities.NewBooking(uuid.New(), uuid.New(), nil, 5*time.Minute, now)
		booking.Cancel()

		err := booking.Confirm(now)
		assert.ErrorIs(t, err, entities.ErrInvalidState)
	})

	t.Run("already confirmed", func(t *testing.T) {
		booking := entities.NewBooking(uuid.New(), uuid.New(), nil, 5*time.Minute, now)
		require.NoError(t, booking.Confirm(now))

		err := booking.Confirm(now)
		assert.ErrorIs(t, err, entities.ErrInvalidState)
	})
}

func TestBookingCancel(t *testing.T) {
	now := time.Now().UTC()

	t.Run("pending booking", func(t *testing.T) {
		booking := entities.NewBooking(uuid.New(), uuid.New(), nil, 5*time.Minute, now)

		assert.True(t, booking.Cancel())
		assert.Equal(t, entities.BookingCancelled, booking.Status)
		assert.Nil(t, booking.HoldExpiresAt)
	})

	t.Run("confirmed booking can be compensated", func(t *testing.T) {
		booking := entities.NewBooking(uuid.New(), uuid.New(), nil, 5*time.Minute, now)
		require.NoError(t, booking.Confirm(now))

		assert.True(t, booking.Cancel())
		assert.Equal(t, entities.BookingCancelled, booking.Status)
	})

	t.Run("cancel is idempotent", func(t *testing.T) {
		booking := entities.NewBooking(uuid.New(), uuid.New(), nil, 5*time.Minute, now)

		assert.True(t, booking.Cancel())
		assert.False(t, booking.Cancel())
		assert.Equal(t, entities.BookingCancelled, booking.Status)
	})
}
