package sync

import (
	"context"
	"time"

	"lookyswappy/internal/domain/game"
)

// Table names of the replicated tables, in dependency order.
const (
	TableGames   = "games"
	TablePlayers = "game_players"
	TableRounds  = "rounds"
	TableScores  = "scores"
)

// Repository is the read side of the sync store. Empty id slices yield
// empty results, never full scans.
type Repository interface {
	// GamesModifiedSince returns the device's games with
	// last_modified strictly after since, tombstones included.
	GamesModifiedSince(ctx context.Context, deviceID string, since time.Time) ([]game.Game, error)

	// ActiveGameIDs returns the server identities of the device's
	// currently non-deleted games. This is the scope children are
	// pulled through.
	ActiveGameIDs(ctx context.Context, deviceID string) ([]string, error)

	PlayersModifiedSince(ctx context.Context, gameIDs []string, since time.Time) ([]game.GamePlayer, error)
	RoundsModifiedSince(ctx context.Context, gameIDs []string, since time.Time) ([]game.Round, error)

	// ActiveRoundIDs returns the non-deleted round identities within
	// the given game scope.
	ActiveRoundIDs(ctx context.Context, gameIDs []string) ([]string, error)

	ScoresModifiedSince(ctx context.Context, roundIDs []string, since time.Time) ([]game.Score, error)

	// PublicIDs maps server identities to public identities for the
	// given table: the stored client identity where one exists, the
	// server identity's string form otherwise.
	PublicIDs(ctx context.Context, table string, serverIDs []string) (map[string]string, error)

	// GameModifiedAfter reports whether any game owned by the device
	// was modified strictly after t. Child tables are not inspected:
	// every write travels through the same push transaction, so a
	// child never changes without its game's scope being reachable
	// from the same device's pull.
	GameModifiedAfter(ctx context.Context, deviceID string, t time.Time) (bool, error)

	// InTx runs fn inside a single store transaction. Any error from
	// fn rolls the whole transaction back.
	InTx(ctx context.Context, fn func(w Writer) error) error
}

// Writer is the transactional write scope a push applies through.
type Writer interface {
	// ResolveClientID maps a client identity to the server identity
	// of the record carrying it, scoped to one table. Returns
	// ErrNotFound when no record matches.
	ResolveClientID(ctx context.Context, table, clientID string) (string, error)

	// ResolveGameID maps a game's client identity to its server
	// identity within the calling device's ownership. Returns
	// ErrNotFound when no game carries the identity and ErrNotOwned
	// when the matching game belongs to another device. Every game
	// resolution on the push path goes through here; child tables
	// inherit the check through their game reference.
	ResolveGameID(ctx context.Context, deviceID, clientID string) (string, error)

	InsertGame(ctx context.Context, g *game.Game) error
	UpdateGame(ctx context.Context, g *game.Game) error
	InsertPlayer(ctx context.Context, p *game.GamePlayer) error
	UpdatePlayer(ctx context.Context, p *game.GamePlayer) error
	InsertRound(ctx context.Context, r *game.Round) error
	UpdateRound(ctx context.Context, r *game.Round) error
	InsertScore(ctx context.Context, s *game.Score) error
	UpdateScore(ctx context.Context, s *game.Score) error

	// SoftDelete marks the record deleted and refreshes its
	// last_modified stamp. Idempotent.
	SoftDelete(ctx context.Context, table, serverID string, now time.Time) error
}
