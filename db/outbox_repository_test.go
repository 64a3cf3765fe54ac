package db

import (
	"context"
	"testing"
	"time"

	"bookings/entities"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendOutboxRecord(t *testing.T, conn *DB) OutboxRecord {
	t.Helper()

	record, err := NewOutboxRecord("seat", uuid.NewString(), entities.SeatHeld_v1{
		Header:    entities.NewEventHeader(),
		SeatID:    uuid.New(),
		GameID:    uuid.New(),
		BookingID: uuid.New(),
	})
	require.NoError(t, err)

	repo := NewOutboxRepository(conn)
	err = conn.WithTx(context.Background(), func(tx *sqlx.Tx) error {
		return repo.Append(context.Background(), tx, record)
	})
	require.NoError(t, err)

	return record
}

func claimAll(t *testing.T, conn *DB) map[uuid.UUID]OutboxRecord {
	t.Helper()

	repo := NewOutboxRepository(conn)
	claimed := map[uuid.UUID]OutboxRecord{}
	err := conn.WithTx(context.Background(), func(tx *sqlx.Tx) error {
		records, err := repo.ClaimBatch(context.Background(), tx, 1000)
		if err != nil {
			return err
		}
		for _, record := range records {
			claimed[record.ID] = record
		}
		return nil
	})
	require.NoError(t, err)

	return claimed
}

func TestOutboxLifecycle(t *testing.T) {
	conn := getDb(t)
	repo := NewOutboxRepository(conn)
	ctx := context.Background()

	record := appendOutboxRecord(t, conn)

	claimed := claimAll(t, conn)
	require.Contains(t, claimed, record.ID)
	assert.Equal(t, OutboxPending, claimed[record.ID].Status)
	assert.Equal(t, "SeatHeld_v1", claimed[record.ID].EventType)
	assert.Equal(t, entities.TopicSeatEvents, claimed[record.ID].Topic)

	// a failed publish marks the row RETRYING; it stays claimable
	err := conn.WithTx(ctx, func(tx *sqlx.Tx) error {
		return repo.MarkRetrying(ctx, tx, record.ID)
	})
	require.NoError(t, err)

	claimed = claimAll(t, conn)
	require.Contains(t, claimed, record.ID)
	assert.Equal(t, OutboxRetrying, claimed[record.ID].Status)
	assert.Equal(t, 1, claimed[record.ID].RetryCount)

	// a successful publish takes it out of the claimable set
	err = conn.WithTx(ctx, func(tx *sqlx.Tx) error {
		return repo.MarkPublished(ctx, tx, record.ID, time.Now().UTC())
	})
	require.NoError(t, err)

	claimed = claimAll(t, conn)
	assert.NotContains(t, claimed, record.ID)
}

func TestOutboxFailedIsParked(t *testing.T) {
	conn := getDb(t)
	repo := NewOutboxRepository(conn)
	ctx := context.Background()

	record := appendOutboxRecord(t, conn)

	err := conn.WithTx(ctx, func(tx *sqlx.Tx) error {
		return repo.MarkFailed(ctx, tx, record.ID)
	})
	require.NoError(t, err)

	assert.NotContains(t, claimAll(t, conn), record.ID)
}

func TestOutboxAppendRollsBackWithTheTransaction(t *testing.T) {
	conn := getDb(t)
	repo := NewOutboxRepository(conn)
	ctx := context.Background()

	record, err := NewOutboxRecord("seat", uuid.NewString(), entities.SeatHeld_v1{
		Header: entities.NewEventHeader(),
		SeatID: uuid.New(),
	})
	require.NoError(t, err)

	err = conn.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := repo.Append(ctx, tx, record); err != nil {
			return err
		}
		return entities.ErrSeatConflict
	})
	require.ErrorIs(t, err, entities.ErrSeatConflict)

	// no intent survives an aborted business transaction
	assert.NotContains(t, claimAll(t, conn), record.ID)
}

func TestOutboxClaimIsExclusive(t *testing.T) {
	conn := getDb(t)
	repo := NewOutboxRepository(conn)
	ctx := context.Background()

	record := appendOutboxRecord(t, conn)

	first, err := conn.Conn.BeginTxx(ctx, nil)
	require.NoError(t, err)
	defer first.Rollback()

	claimedByFirst, err := repo.ClaimBatch(ctx, first, 1000)
	require.NoError(t, err)
	firstIDs := map[uuid.UUID]bool{}
	for _, r := range claimedByFirst {
		firstIDs[r.ID] = true
	}
	require.True(t, firstIDs[record.ID])

	// a concurrent drain skips the claimed rows instead of waiting
	second, err := conn.Conn.BeginTxx(ctx, nil)
	require.NoError(t, err)
	defer second.Rollback()

	claimedBySecond, err := repo.ClaimBatch(ctx, second, 1000)
	require.NoError(t, err)
	for _, r := range claimedBySecond {
		assert.NotEqual(t, record.ID, r.ID)
	}
}

func TestOutboxRetention(t *testing.T) {
	conn := getDb(t)
	repo := NewOutboxRepository(conn)
	ctx := context.Background()

	oldRecord := appendOutboxRecord(t, conn)
	freshRecord := appendOutboxRecord(t, conn)

	err := conn.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := repo.MarkPublished(ctx, tx, oldRecord.ID, time.Now().UTC().Add(-48*time.Hour)); err != nil {
			return err
		}
		return repo.MarkPublished(ctx, tx, freshRecord.ID, time.Now().UTC())
	})
	require.NoError(t, err)

	deleted, err := repo.DeletePublishedBefore(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, deleted, int64(1))

	var count int
	require.NoError(t, conn.Conn.Get(&count, `SELECT COUNT(*) FROM outbox WHERE id = $1`, oldRecord.ID))
	assert.Equal(t, 0, count)

	require.NoError(t, conn.Conn.Get(&count, `SELECT COUNT(*) FROM outbox WHERE id = $1`, freshRecord.ID))
	assert.Equal(t, 1, count)
}
