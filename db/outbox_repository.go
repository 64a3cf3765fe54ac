package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookings/entities"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type OutboxStatus string

const (
	OutboxPending   OutboxStatus = "PENDING"
	OutboxRetrying  OutboxStatus = "RETRYING"
	OutboxPublished OutboxStatus = "PUBLISHED"
	OutboxFailed    OutboxStatus = "FAILED"
)

// OutboxRecord is a durable intent to publish, written in the same
// transaction as the business mutation it announces.
type OutboxRecord struct {
	ID            uuid.UUID       `db:"id"`
	AggregateType string          `db:"aggregate_type"`
	AggregateID   string          `db:"aggregate_id"`
	EventType     string          `db:"event_type"`
	Topic         string          `db:"topic"`
	PartitionKey  string          `db:"partition_key"`
	Payload       json.RawMessage `db:"payload"`
	Status        OutboxStatus    `db:"status"`
	RetryCount    int             `db:"retry_count"`
	CreatedAt     time.Time       `db:"created_at"`
	PublishedAt   *time.Time      `db:"published_at"`
}

func NewOutboxRecord(aggregateType, aggregateID string, event entities.Event) (OutboxRecord, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return OutboxRecord{}, fmt.Errorf("could not marshal %s: %w", event.EventName(), err)
	}

	return OutboxRecord{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     event.EventName(),
		Topic:         event.Topic(),
		PartitionKey:  event.PartitionKey(),
		Payload:       payload,
		Status:        OutboxPending,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

type OutboxRepository struct {
	db *DB
}

func NewOutboxRepository(db *DB) OutboxRepository {
	if db == nil {
		panic("db is nil")
	}
	return OutboxRepository{db: db}
}

// Append must be called inside the transaction that performs the state
// change the event announces. If that transaction rolls back, so does the
// intent to publish.
func (or OutboxRepository) Append(ctx context.Context, tx *sqlx.Tx, record OutboxRecord) error {
	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO
		    outbox (id, aggregate_type, aggregate_id, event_type, topic, partition_key, payload, status, retry_count, created_at)
		VALUES (:id, :aggregate_type, :aggregate_id, :event_type, :topic, :partition_key, :payload, :status, :retry_count, :created_at)
		`, record)
	if err != nil {
		return fmt.Errorf("could not append outbox record: %w", err)
	}

	return nil
}

// ClaimBatch locks up to limit publishable records, skipping rows already
// claimed by a concurrent publisher replica. The claim lasts as long as the
// surrounding transaction, so mark the rows before committing.
func (or OutboxRepository) ClaimBatch(ctx context.Context, tx *sqlx.Tx, limit int) ([]OutboxRecord, error) {
	var records []OutboxRecord
	err := tx.SelectContext(ctx, &records, `
		SELECT id, aggregate_type, aggregate_id, event_type, topic, partition_key, payload, status, retry_count, created_at, published_at
		FROM outbox
		WHERE status IN ($1, $2)
		ORDER BY created_at
		LIMIT $3
		FOR UPDATE SKIP LOCKED
	`, OutboxPending, OutboxRetrying, limit)
	if err != nil {
		return nil, fmt.Errorf("could not claim outbox batch: %w", err)
	}

	return records, nil
}

func (or OutboxRepository) MarkPublished(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, publishedAt time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE outbox SET status = $1, published_at = $2 WHERE id = $3
	`, OutboxPublished, publishedAt, id)
	if err != nil {
		return fmt.Errorf("could not mark outbox record published: %w", err)
	}

	return nil
}

// MarkRetrying increments the retry counter and leaves the record eligible
// for the next poll.
func (or OutboxRepository) MarkRetrying(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE outbox SET status = $1, retry_count = retry_count + 1 WHERE id = $2
	`, OutboxRetrying, id)
	if err != nil {
		return fmt.Errorf("could not mark outbox record retrying: %w", err)
	}

	return nil
}

// MarkFailed parks the record for operator intervention; it is never picked
// up automatically again.
func (or OutboxRepository) MarkFailed(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE outbox SET status = $1, retry_count = retry_count + 1 WHERE id = $2
	`, OutboxFailed, id)
	if err != nil {
		return fmt.Errorf("could not mark outbox record failed: %w", err)
	}

	return nil
}

// DeletePublishedBefore garbage-collects delivered records past the
// retention window. The outbox bounds storage; it is not an audit trail.
func (or OutboxRepository) DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := or.db.Conn.ExecContext(ctx, `
		DELETE FROM outbox WHERE status = $1 AND published_at < $2
	`, OutboxPublished, cutoff)
	if err != nil {
		return 0, fmt.Errorf("could not delete published outbox records: %w", err)
	}

	return res.RowsAffected()
}
