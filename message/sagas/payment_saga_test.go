package sagas_test

import (
	"context"
	"errors"
	"testing"

	"bookings/entities"
	"bookings/message/sagas"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orchestratorMock struct {
	confirmed  []uuid.UUID
	released   []uuid.UUID
	reasons    []string
	confirmErr error
	releaseErr error
}

func (m *orchestratorMock) ConfirmBooking(ctx context.Context, bookingID, userID uuid.UUID) (entities.Booking, error) {
	m.confirmed = append(m.confirmed, bookingID)
	if m.confirmErr != nil {
		return entities.Booking{}, m.confirmErr
	}
	return entities.Booking{BookingID: bookingID, UserID: userID, Status: entities.BookingConfirmed}, nil
}

func (m *orchestratorMock) ReleaseBooking(ctx context.Context, bookingID uuid.UUID, reason string) (entities.Booking, error) {
	m.released = append(m.released, bookingID)
	m.reasons = append(m.reasons, reason)
	if m.releaseErr != nil {
		return entities.Booking{}, m.releaseErr
	}
	return entities.Booking{BookingID: bookingID, Status: entities.BookingCancelled}, nil
}

type ledgerMock struct {
	seen map[string]bool
	err  error
}

func newLedgerMock() *ledgerMock {
	return &ledgerMock{seen: map[string]bool{}}
}

func (m *ledgerMock) MarkProcessed(ctx context.Context, eventID, topic string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.seen[topic+"/"+eventID] {
		return false, nil
	}
	m.seen[topic+"/"+eventID] = true
	return true, nil
}

func completedEvent(bookingID, userID uuid.UUID) *entities.PaymentCompleted_v1 {
	return &entities.PaymentCompleted_v1{
		Header:    entities.NewEventHeader(),
		PaymentID: uuid.New(),
		BookingID: bookingID,
		UserID:    userID,
		Amount:    100.5,
	}
}

func TestOnPaymentCompleted(t *testing.T) {
	ctx := context.Background()
	bookingID := uuid.New()
	userID := uuid.New()

	t.Run("confirms the booking", func(t *testing.T) {
		orchestrator := &orchestratorMock{}
		saga := sagas.NewPaymentSaga(orchestrator, newLedgerMock())

		err := saga.OnPaymentCompleted(ctx, completedEvent(bookingID, userID))
		require.NoError(t, err)

		assert.Equal(t, []uuid.UUID{bookingID}, orchestrator.confirmed)
		assert.Empty(t, orchestrator.released)
	})

	t.Run("compensates when confirmation fails", func(t *testing.T) {
		orchestrator := &orchestratorMock{confirmErr: entities.ErrBookingExpired}
		saga := sagas.NewPaymentSaga(orchestrator, newLedgerMock())

		err := saga.OnPaymentCompleted(ctx, completedEvent(bookingID, userID))
		require.NoError(t, err, "a failed confirmation must not be retried by the broker")

		require.Len(t, orchestrator.released, 1)
		assert.Equal(t, bookingID, orchestrator.released[0])
	})

	t.Run("compensation failure is swallowed", func(t *testing.T) {
		orchestrator := &orchestratorMock{
			confirmErr: entities.ErrBookingExpired,
			releaseErr: errors.New("db down"),
		}
		saga := sagas.NewPaymentSaga(orchestrator, newLedgerMock())

		err := saga.OnPaymentCompleted(ctx, completedEvent(bookingID, userID))
		assert.NoError(t, err)
	})

	t.Run("duplicate event is skipped", func(t *testing.T) {
		orchestrator := &orchestratorMock{}
		saga := sagas.NewPaymentSaga(orchestrator, newLedgerMock())

		event := completedEvent(bookingID, userID)
		require.NoError(t, saga.OnPaymentCompleted(ctx, event))
		require.NoError(t, saga.OnPaymentCompleted(ctx, event))

		assert.Len(t, orchestrator.confirmed, 1)
	})

	t.Run("ledger error is returned for retry", func(t *testing.T) {
		orchestrator := &orchestratorMock{}
		ledger := newLedgerMock()
		ledger.err = errors.New("db down")
		saga := sagas.NewPaymentSaga(orchestrator, ledger)

		err := saga.OnPaymentCompleted(ctx, completedEvent(bookingID, userID))
		assert.Error(t, err)
		assert.Empty(t, orchestrator.confirmed)
	})
}

func TestOnPaymentFailed(t *testing.T) {
	ctx := context.Background()
	bookingID := uuid.New()

	orchestrator := &orchestratorMock{}
	saga := sagas.NewPaymentSaga(orchestrator, newLedgerMock())

	event := &entities.PaymentFailed_v1{
		Header:    entities.NewEventHeader(),
		PaymentID: uuid.New(),
		BookingID: bookingID,
		UserID:    uuid.New(),
		Reason:    "card declined",
	}

	require.NoError(t, saga.OnPaymentFailed(ctx, event))
	require.NoError(t, saga.OnPaymentFailed(ctx, event))

	require.Len(t, orchestrator.released, 1, "duplicate failure event must compensate once")
	assert.Equal(t, bookingID, orchestrator.released[0])
	assert.Equal(t, []string{"payment failed"}, orchestrator.reasons)
	assert.Empty(t, orchestrator.confirmed)
}

func TestOnPaymentRefunded(t *testing.T) {
	ctx := context.Background()
	bookingID := uuid.New()

	orchestrator := &orchestratorMock{}
	saga := sagas.NewPaymentSaga(orchestrator, newLedgerMock())

	event := &entities.PaymentRefunded_v1{
		Header:    entities.NewEventHeader(),
		PaymentID: uuid.New(),
		BookingID: bookingID,
		UserID:    uuid.New(),
		Amount:    100.5,
	}

	require.NoError(t, saga.OnPaymentRefunded(ctx, event))

	require.Len(t, orchestrator.released, 1)
	assert.Equal(t, []string{"payment refunded"}, orchestrator.reasons)
}
