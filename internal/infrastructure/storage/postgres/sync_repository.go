package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"lookyswappy/internal/domain/game"
	"lookyswappy/internal/domain/sync"
)

// SyncRepository implements the sync engine's store contract against
// PostgreSQL. Table names arriving through the interface are checked
// against the replicated set before they reach any query text.
type SyncRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewSyncRepository(pool *pgxpool.Pool, log *slog.Logger) *SyncRepository {
	return &SyncRepository{
		pool: pool,
		log:  log.With("component", "sync_repository"),
	}
}

var syncedTables = map[string]bool{
	sync.TableGames:   true,
	sync.TablePlayers: true,
	sync.TableRounds:  true,
	sync.TableScores:  true,
}

func checkTable(table string) error {
	if !syncedTables[table] {
		return fmt.Errorf("unknown table %q", table)
	}
	return nil
}

const gameColumns = `id, client_id, device_id, name, target_score, status, winner_id,
	       started_at, ended_at, is_deleted, last_modified, created_at`

func (r *SyncRepository) GamesModifiedSince(ctx context.Context, deviceID string, since time.Time) ([]game.Game, error) {
	const query = `
		SELECT ` + gameColumns + `
		FROM games
		WHERE device_id = $1 AND last_modified > $2
		ORDER BY last_modified`

	rows, err := r.pool.Query(ctx, query, deviceID, since)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
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

func (r *SyncRepository) ActiveGameIDs(ctx context.Context, deviceID string) ([]string, error) {
	const query = `SELECT id FROM games WHERE device_id = $1 AND NOT is_deleted`

	rows, err := r.pool.Query(ctx, query, deviceID)
	if err != nil {
		return nil, fmt.Errorf("query game scope: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

func (r *SyncRepository) PlayersModifiedSince(ctx context.Context, gameIDs []string, since time.Time) ([]game.GamePlayer, error) {
	if len(gameIDs) == 0 {
		return nil, nil
	}

	const query = `
		SELECT id, client_id, game_id, name, position, total_score,
		       is_deleted, last_modified, created_at
		FROM game_players
		WHERE game_id = ANY($1::uuid[]) AND last_modified > $2
		ORDER BY last_modified`

	rows, err := r.pool.Query(ctx, query, gameIDs, since)
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
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

func (r *SyncRepository) RoundsModifiedSince(ctx context.Context, gameIDs []string, since time.Time) ([]game.Round, error) {
	if len(gameIDs) == 0 {
		return nil, nil
	}

	const query = `
		SELECT id, client_id, game_id, round_number, caller_id,
		       is_deleted, last_modified, created_at
		FROM rounds
		WHERE game_id = ANY($1::uuid[]) AND last_modified > $2
		ORDER BY last_modified`

	rows, err := r.pool.Query(ctx, query, gameIDs, since)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()

	var rounds []game.Round
	for rows.Next() {
		var rd game.Round
		if err := rows.Scan(
			&rd.ID, &rd.ClientID, &rd.GameID, &rd.RoundNumber, &rd.CallerID,
			&rd.IsDeleted, &rd.LastModified, &rd.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		rounds = append(rounds, rd)
	}
	return rounds, rows.Err()
}

func (r *SyncRepository) ActiveRoundIDs(ctx context.Context, gameIDs []string) ([]string, error) {
	if len(gameIDs) == 0 {
		return nil, nil
	}

	const query = `SELECT id FROM rounds WHERE game_id = ANY($1::uuid[]) AND NOT is_deleted`

	rows, err := r.pool.Query(ctx, query, gameIDs)
	if err != nil {
		return nil, fmt.Errorf("query round scope: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

func (r *SyncRepository) ScoresModifiedSince(ctx context.Context, roundIDs []string, since time.Time) ([]game.Score, error) {
	if len(roundIDs) == 0 {
		return nil, nil
	}

	const query = `
		SELECT id, client_id, round_id, player_id, raw_score, bonus_applied,
		       final_score, total_after, is_deleted, last_modified, created_at
		FROM scores
		WHERE round_id = ANY($1::uuid[]) AND last_modified > $2
		ORDER BY last_modified`

	rows, err := r.pool.Query(ctx, query, roundIDs, since)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	var scores []game.Score
	for rows.Next() {
		var sc game.Score
		if err := rows.Scan(
			&sc.ID, &sc.ClientID, &sc.RoundID, &sc.PlayerID, &sc.RawScore, &sc.BonusApplied,
			&sc.FinalScore, &sc.TotalAfter, &sc.IsDeleted, &sc.LastModified, &sc.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		scores = append(scores, sc)
	}
	return scores, rows.Err()
}

func (r *SyncRepository) PublicIDs(ctx context.Context, table string, serverIDs []string) (map[string]string, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if len(serverIDs) == 0 {
		return map[string]string{}, nil
	}

	query := fmt.Sprintf(
		`SELECT id, COALESCE(client_id, id::text) FROM %s WHERE id = ANY($1::uuid[])`, table)

	rows, err := r.pool.Query(ctx, query, serverIDs)
	if err != nil {
		return nil, fmt.Errorf("query public ids: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string, len(serverIDs))
	for rows.Next() {
		var id, pub string
		if err := rows.Scan(&id, &pub); err != nil {
			return nil, fmt.Errorf("scan public id: %w", err)
		}
		out[id] = pub
	}
	return out, rows.Err()
}

func (r *SyncRepository) GameModifiedAfter(ctx context.Context, deviceID string, t time.Time) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM games WHERE device_id = $1 AND last_modified > $2
		)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, deviceID, t).Scan(&exists); err != nil {
		return false, fmt.Errorf("conflict query: %w", err)
	}
	return exists, nil
}

func (r *SyncRepository) InTx(ctx context.Context, fn func(w sync.Writer) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&txWriter{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func scanIDs(rows pgx.Rows) ([]string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// txWriter is the transaction-scoped write side handed to the push
// engine. Update queries only touch entity fields and last_modified;
// identity fields, ownership, and created_at stay as inserted.
type txWriter struct {
	tx pgx.Tx
}

func (w *txWriter) ResolveClientID(ctx context.Context, table, clientID string) (string, error) {
	if err := checkTable(table); err != nil {
		return "", err
	}

	query := fmt.Sprintf(`SELECT id FROM %s WHERE client_id = $1`, table)

	var id string
	err := w.tx.QueryRow(ctx, query, clientID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", sync.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve client id: %w", err)
	}
	return id, nil
}

func (w *txWriter) ResolveGameID(ctx context.Context, deviceID, clientID string) (string, error) {
	const query = `SELECT id, device_id FROM games WHERE client_id = $1`

	var id, owner string
	err := w.tx.QueryRow(ctx, query, clientID).Scan(&id, &owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", sync.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve game id: %w", err)
	}
	if owner != deviceID {
		return "", sync.ErrNotOwned
	}
	return id, nil
}

func (w *txWriter) InsertGame(ctx context.Context, g *game.Game) error {
	const query = `
		INSERT INTO games (id, client_id, device_id, name, target_score, status,
		                   winner_id, started_at, ended_at, is_deleted, last_modified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, $10, $11)`

	_, err := w.tx.Exec(ctx, query,
		g.ID, g.ClientID, g.DeviceID, g.Name, g.TargetScore, g.Status,
		g.WinnerID, g.StartedAt, g.EndedAt, g.LastModified, g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

func (w *txWriter) UpdateGame(ctx context.Context, g *game.Game) error {
	const query = `
		UPDATE games
		SET name = $2, target_score = $3, status = $4, winner_id = $5,
		    started_at = $6, ended_at = $7, last_modified = $8
		WHERE id = $1`

	_, err := w.tx.Exec(ctx, query,
		g.ID, g.Name, g.TargetScore, g.Status, g.WinnerID,
		g.StartedAt, g.EndedAt, g.LastModified,
	)
	if err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	return nil
}

func (w *txWriter) InsertPlayer(ctx context.Context, p *game.GamePlayer) error {
	const query = `
		INSERT INTO game_players (id, client_id, game_id, name, position, total_score,
		                          is_deleted, last_modified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $8)`

	_, err := w.tx.Exec(ctx, query,
		p.ID, p.ClientID, p.GameID, p.Name, p.Position, p.TotalScore,
		p.LastModified, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

func (w *txWriter) UpdatePlayer(ctx context.Context, p *game.GamePlayer) error {
	const query = `
		UPDATE game_players
		SET name = $2, position = $3, total_score = $4, last_modified = $5
		WHERE id = $1`

	_, err := w.tx.Exec(ctx, query,
		p.ID, p.Name, p.Position, p.TotalScore, p.LastModified,
	)
	if err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	return nil
}

func (w *txWriter) InsertRound(ctx context.Context, rd *game.Round) error {
	const query = `
		INSERT INTO rounds (id, client_id, game_id, round_number, caller_id,
		                    is_deleted, last_modified, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7)`

	_, err := w.tx.Exec(ctx, query,
		rd.ID, rd.ClientID, rd.GameID, rd.RoundNumber, rd.CallerID,
		rd.LastModified, rd.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}
	return nil
}

func (w *txWriter) UpdateRound(ctx context.Context, rd *game.Round) error {
	const query = `
		UPDATE rounds
		SET round_number = $2, caller_id = $3, last_modified = $4
		WHERE id = $1`

	_, err := w.tx.Exec(ctx, query,
		rd.ID, rd.RoundNumber, rd.CallerID, rd.LastModified,
	)
	if err != nil {
		return fmt.Errorf("update round: %w", err)
	}
	return nil
}

func (w *txWriter) InsertScore(ctx context.Context, sc *game.Score) error {
	const query = `
		INSERT INTO scores (id, client_id, round_id, player_id, raw_score, bonus_applied,
		                    final_score, total_after, is_deleted, last_modified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, $9, $10)`

	_, err := w.tx.Exec(ctx, query,
		sc.ID, sc.ClientID, sc.RoundID, sc.PlayerID, sc.RawScore, sc.BonusApplied,
		sc.FinalScore, sc.TotalAfter, sc.LastModified, sc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

func (w *txWriter) UpdateScore(ctx context.Context, sc *game.Score) error {
	const query = `
		UPDATE scores
		SET raw_score = $2, bonus_applied = $3, final_score = $4,
		    total_after = $5, last_modified = $6
		WHERE id = $1`

	_, err := w.tx.Exec(ctx, query,
		sc.ID, sc.RawScore, sc.BonusApplied, sc.FinalScore, sc.TotalAfter, sc.LastModified,
	)
	if err != nil {
		return fmt.Errorf("update score: %w", err)
	}
	return nil
}

func (w *txWriter) SoftDelete(ctx context.Context, table, serverID string, now time.Time) error {
	if err := checkTable(table); err != nil {
		return err
	}

	query := fmt.Sprintf(
		`UPDATE %s SET is_deleted = TRUE, last_modified = $2 WHERE id = $1`, table)

	if _, err := w.tx.Exec(ctx, query, serverID, now); err != nil {
		return fmt.Errorf("soft delete: %w", err)
	}
	return nil
}
