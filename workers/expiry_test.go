package workers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"bookings/config"
	"bookings/entities"
	"bookings/workers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type expiredSourceMock struct {
	expired []uuid.UUID
	err     error
}

func (m *expiredSourceMock) FindExpired(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.expired) > limit {
		return m.expired[:limit], nil
	}
	return m.expired, nil
}

type releaserMock struct {
	released []uuid.UUID
	reasons  []string
	failOn   map[uuid.UUID]error
}

func (m *releaserMock) ReleaseBooking(ctx context.Context, bookingID uuid.UUID, reason string) (entities.Booking, error) {
	if err, ok := m.failOn[bookingID]; ok {
		return entities.Booking{}, err
	}
	m.released = append(m.released, bookingID)
	m.reasons = append(m.reasons, reason)
	return entities.Booking{BookingID: bookingID, Status: entities.BookingCancelled}, nil
}

type noopLock struct{}

func (noopLock) WithLock(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func TestSweepReleasesExpiredHolds(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	source := &expiredSourceMock{expired: ids}
	releaser := &releaserMock{}

	sweeper := workers.NewExpirySweeper(source, releaser, noopLock{}, config.Default())

	require.NoError(t, sweeper.Sweep(context.Background()))

	assert.Equal(t, ids, releaser.released)
	for _, reason := range releaser.reasons {
		assert.Equal(t, "hold expired", reason)
	}
}

func TestSweepOneFailureDoesNotAbortTheBatch(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	source := &expiredSourceMock{expired: ids}
	releaser := &releaserMock{failOn: map[uuid.UUID]error{ids[1]: errors.New("db down")}}

	sweeper := workers.NewExpirySweeper(source, releaser, noopLock{}, config.Default())

	require.NoError(t, sweeper.Sweep(context.Background()))

	assert.Equal(t, []uuid.UUID{ids[0], ids[2]}, releaser.released)
}

func TestSweepRespectsBatchSize(t *testing.T) {
	cfg := config.Default()
	cfg.ExpiryBatchSize = 2

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	source := &expiredSourceMock{expired: ids}
	releaser := &releaserMock{}

	sweeper := workers.NewExpirySweeper(source, releaser, noopLock{}, cfg)

	require.NoError(t, sweeper.Sweep(context.Background()))
	assert.Len(t, releaser.released, 2)
}

func TestSweepPropagatesSourceError(t *testing.T) {
	source := &expiredSourceMock{err: errors.New("db down")}
	sweeper := workers.NewExpirySweeper(source, &releaserMock{}, noopLock{}, config.Default())

	assert.Error(t, sweeper.Sweep(context.Background()))
}
