package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"lookyswappy/internal/domain/game"
)

type GameRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewGameRepository(pool *pgxpool.Pool, log *slog.Logger) *GameRepository {
	return &GameRepository{
		pool: pool,
		log:  log.With("component", "game_repository"),
	}
}

func (r *GameRepository) ListByDevice(ctx context.Context, deviceID string) ([]game.Game, error) {
	const query = `
		SELECT ` + gameColumns + `
		FROM games
		WHERE device_id = $1 AND NOT is_deleted
		ORDER BY started_at DESC`

	rows, err := r.pool.Query(ctx, query, deviceID)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var games []game.Game
	for rows.Next() {
		var g game.Game
		if err := rows.Scan(
			&g.ID, &g.ClientID, &g.DeviceID, &g.Name, &g.TargetScore, &g.Status,
			&g.WinnerID, &g.StartedAt, &g.EndedAt, &g.IsDeleted, &g.LastModified, &g.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// FindByPublicID looks a game up by the identity a client knows it by:
// the stored client identity or, failing that, the server identity.
func (r *GameRepository) FindByPublicID(ctx context.Context, deviceID, publicID string) (*game.Game, error) {
	const query = `
		SELECT ` + gameColumns + `
		FROM games
		WHERE device_id = $1 AND NOT is_deleted
		  AND (client_id = $2 OR id::text = $2)`

	var g game.Game
	err := r.pool.QueryRow(ctx, query, deviceID, publicID).Scan(
		&g.ID, &g.ClientID, &g.DeviceID, &g.Name, &g.TargetScore, &g.Status,
		&g.WinnerID, &g.StartedAt, &g.EndedAt, &g.IsDeleted, &g.LastModified, &g.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, game.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find game: %w", err)
	}
	return &g, nil
}

func (r *GameRepository) PlayersOf(ctx context.Context, gameID string) ([]game.GamePlayer, error) {
	const query = `
		SELECT id, client_id, game_id, name, position, total_score,
		       is_deleted, last_modified, created_at
		FROM game_players
		WHERE game_id = $1 AND NOT is_deleted
		ORDER BY position`

	rows, err := r.pool.Query(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []game.GamePlayer
	for rows.Next() {
		var p game.GamePlayer
		if err := rows.Scan(
			&p.ID, &p.ClientID, &p.GameID, &p.Name, &p.Position, &p.TotalScore,
			&p.IsDeleted, &p.LastModified, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}
