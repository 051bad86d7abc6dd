package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"lookyswappy/internal/domain/stats"
)

type StatsRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewStatsRepository(pool *pgxpool.Pool, log *slog.Logger) *StatsRepository {
	return &StatsRepository{
		pool: pool,
		log:  log.With("component", "stats_repository"),
	}
}

func (r *StatsRepository) DeviceStats(ctx context.Context, deviceID string) (*stats.DeviceStats, error) {
	const gamesQuery = `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'completed'),
		       COUNT(*) FILTER (WHERE status = 'active')
		FROM games
		WHERE device_id = $1 AND NOT is_deleted`

	var st stats.DeviceStats
	if err := r.pool.QueryRow(ctx, gamesQuery, deviceID).
		Scan(&st.TotalGames, &st.GamesCompleted, &st.GamesActive); err != nil {
		return nil, fmt.Errorf("game stats: %w", err)
	}

	const scoresQuery = `
		SELECT COALESCE(AVG(s.final_score), 0)
		FROM scores s
		JOIN rounds r ON s.round_id = r.id
		JOIN games g ON r.game_id = g.id
		WHERE g.device_id = $1
		  AND NOT s.is_deleted AND NOT r.is_deleted AND NOT g.is_deleted`

	if err := r.pool.QueryRow(ctx, scoresQuery, deviceID).Scan(&st.AverageScore); err != nil {
		return nil, fmt.Errorf("score stats: %w", err)
	}

	return &st, nil
}
