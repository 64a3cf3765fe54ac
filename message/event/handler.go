package event

import (
	"context"

	"bookings/entities"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
)

type SeatReplicaStore interface {
	UpsertFromCatalog(ctx context.Context, gameID uuid.UUID, seats []entities.CatalogSeat) error
}

type GameStore interface {
	Upsert(ctx context.Context, game entities.Game) error
}

type IdempotencyLedger interface {
	MarkProcessed(ctx context.Context, eventID, topic string) (bool, error)
}

// Handler keeps the local catalog replicas in sync with the
// seat-catalog service's events.
type Handler struct {
	seats  SeatReplicaStore
	games  GameStore
	ledger IdempotencyLedger
}

func NewHandler(seats SeatReplicaStore, games GameStore, ledger IdempotencyLedger) Handler {
	if seats == nil {
		panic("missing seats store")
	}
	if games == nil {
		panic("missing games store")
	}
	if ledger == nil {
		panic("missing idempotency ledger")
	}
	return Handler{
		seats:  seats,
		games:  games,
		ledger: ledger,
	}
}

func (h Handler) OnSeatCatalogInitialized(ctx context.Context, event *entities.SeatCatalogInitialized_v1) error {
	fresh, err := h.ledger.MarkProcessed(ctx, event.Header.ID, event.Topic())
	if err != nil {
		return err
	}
	if !fresh {
		log.FromContext(ctx).WithField("event_id", event.Header.ID).Info("Skipping already processed event")
		return nil
	}

	log.FromContext(ctx).
		WithField("game_id", event.GameID).
		WithField("seats", len(event.Seats)).
		Info("Syncing seat catalog")

	return h.seats.UpsertFromCatalog(ctx, event.GameID, event.Seats)
}

func (h Handler) OnGameInfoUpdated(ctx context.Context, event *entities.GameInfoUpdated_v1) error {
	fresh, err := h.ledger.MarkProcessed(ctx, event.Header.ID, event.Topic())
	if err != nil {
		return err
	}
	if !fresh {
		log.FromContext(ctx).WithField("event_id", event.Header.ID).Info("Skipping already processed event")
		return nil
	}

	return h.games.Upsert(ctx, entities.Game{
		GameID:          event.GameID,
		Name:            event.Name,
		MaxSeatsPerUser: event.MaxSeatsPerUser,
	})
}
