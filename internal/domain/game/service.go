package game

import (
	"context"
	"fmt"

	"golang.org/x/exp/slog"
)

type Servicer interface {
	List(ctx context.Context, deviceID string) ([]Game, error)
	Get(ctx context.Context, deviceID, publicID string) (*Game, []GamePlayer, error)
}

type Service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

func (s *Service) List(ctx context.Context, deviceID string) ([]Game, error) {
	games, err := s.repo.ListByDevice(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return games, nil
}

// Get returns one game and its players, looked up by the identity the
// client knows the game by.
func (s *Service) Get(ctx context.Context, deviceID, publicID string) (*Game, []GamePlayer, error) {
	g, err := s.repo.FindByPublicID(ctx, deviceID, publicID)
	if err != nil {
		return nil, nil, err
	}

	players, err := s.repo.PlayersOf(ctx, g.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load players: %w", err)
	}

	return g, players, nil
}
