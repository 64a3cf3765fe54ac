package outbox

import (
	"context"
	"time"

	"bookings/config"
	"bookings/db"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const schedulerLockName = "outbox-publisher"

type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type Store interface {
	ClaimBatch(ctx context.Context, tx *sqlx.Tx, limit int) ([]db.OutboxRecord, error)
	MarkPublished(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, publishedAt time.Time) error
	MarkRetrying(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error
	MarkFailed(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error
}

type BrokerPublisher interface {
	Publish(ctx context.Context, topic, partitionKey string, payload []byte, metadata map[string]string) error
}

type ClusterLock interface {
	WithLock(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

// Publisher drains the outbox to the broker. Rows are claimed with SKIP
// LOCKED so concurrent replicas never double-publish a claim, and the whole
// cycle additionally runs under a cluster-wide scheduler lock. Delivery is
// at-least-once; every consumer must be idempotent.
type Publisher struct {
	txs    TxRunner
	store  Store
	broker BrokerPublisher
	lock   ClusterLock
	cfg    config.Config
}

func NewPublisher(txs TxRunner, store Store, broker BrokerPublisher, lock ClusterLock, cfg config.Config) *Publisher {
	return &Publisher{
		txs:    txs,
		store:  store,
		broker: broker,
		lock:   lock,
		cfg:    cfg,
	}
}

func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.OutboxPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := p.lock.WithLock(ctx, schedulerLockName, p.Drain)
			if err != nil && ctx.Err() == nil {
				log.FromContext(ctx).Errorf("outbox drain failed: %v", err)
			}
		}
	}
}

// Drain claims one batch and publishes it synchronously. The claim lives as
// long as the transaction, so status updates commit together with the claim
// release: a crash mid-batch leaves unpublished rows PENDING for the next
// poll, which is where at-least-once comes from.
func (p *Publisher) Drain(ctx context.Context) error {
	return p.txs.WithTx(ctx, func(tx *sqlx.Tx) error {
		records, err := p.store.ClaimBatch(ctx, tx, p.cfg.OutboxBatchSize)
		if err != nil {
			return err
		}

		for _, record := range records {
			err := p.broker.Publish(ctx, record.Topic, record.PartitionKey, record.Payload, map[string]string{
				"name":           record.EventType,
				"aggregate_type": record.AggregateType,
				"aggregate_id":   record.AggregateID,
			})
			if err == nil {
				if err := p.store.MarkPublished(ctx, tx, record.ID, time.Now().UTC()); err != nil {
					return err
				}
				continue
			}

			if record.RetryCount+1 > p.cfg.OutboxMaxRetries {
				log.FromContext(ctx).
					WithField("outbox_id", record.ID).
					WithField("event_type", record.EventType).
					Error("Outbox record exceeded its retry budget, parking as FAILED")
				if err := p.store.MarkFailed(ctx, tx, record.ID); err != nil {
					return err
				}
				continue
			}

			if err := p.store.MarkRetrying(ctx, tx, record.ID); err != nil {
				return err
			}
		}

		return nil
	})
}
