package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bookings/entities"

	"github.com/google/uuid"
)

type GameRepository struct {
	db *DB
}

func NewGameRepository(db *DB) GameRepository {
	if db == nil {
		panic("db is nil")
	}
	return GameRepository{db: db}
}

func (gr GameRepository) Upsert(ctx context.Context, game entities.Game) error {
	_, err := gr.db.Conn.NamedExecContext(ctx, `
		INSERT INTO games (game_id, name, max_seats_per_user)
		VALUES (:game_id, :name, :max_seats_per_user)
		ON CONFLICT (game_id) DO UPDATE
		SET name = EXCLUDED.name, max_seats_per_user = EXCLUDED.max_seats_per_user
		`, game)
	if err != nil {
		return fmt.Errorf("could not upsert game: %w", err)
	}

	return nil
}

// MaxSeatsPerUser returns the per-user policy for a game, or fallback when
// the catalog never announced one.
func (gr GameRepository) MaxSeatsPerUser(ctx context.Context, gameID uuid.UUID, fallback int) (int, error) {
	var max int
	err := gr.db.Conn.GetContext(ctx, &max, `
		SELECT max_seats_per_user FROM games WHERE game_id = $1
	`, gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return fallback, nil
	}
	if err != nil {
		return 0, fmt.Errorf("could not get game policy: %w", err)
	}

	return max, nil
}
