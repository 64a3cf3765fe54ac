package db

import (
	"context"
	"fmt"
)

// ProcessedEventRepository is the idempotency ledger shared by every inbound
// event handler. Insertion is write-once; a unique violation is the dedup
// signal, not an error.
type ProcessedEventRepository struct {
	db *DB
}

func NewProcessedEventRepository(db *DB) ProcessedEventRepository {
	if db == nil {
		panic("db is nil")
	}
	return ProcessedEventRepository{db: db}
}

// MarkProcessed records the event id and reports whether this call was the
// first to see it. Two replicas racing on the same event both survive: the
// loser gets false and skips the handler body.
func (pr ProcessedEventRepository) MarkProcessed(ctx context.Context, eventID, topic string) (bool, error) {
	_, err := pr.db.Conn.ExecContext(ctx, `
		INSERT INTO processed_events (event_id, topic) VALUES ($1, $2)
	`, eventID, topic)
	if isErrorUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("could not mark event processed: %w", err)
	}

	return true, nil
}
