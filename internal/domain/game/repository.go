package game

import "context"

// Repository is the read side used by the games API. All lookups are
// scoped to the owning device; sub-entities are reachable only through
// a game the device owns.
type Repository interface {
	ListByDevice(ctx context.Context, deviceID string) ([]Game, error)
	FindByPublicID(ctx context.Context, deviceID, publicID string) (*Game, error)
	PlayersOf(ctx context.Context, gameID string) ([]GamePlayer, error)
}
