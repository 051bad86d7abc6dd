package stats

import (
	"context"
	"fmt"

	"golang.org/x/exp/slog"
)

type Repository interface {
	DeviceStats(ctx context.Context, deviceID string) (*DeviceStats, error)
}

type Servicer interface {
	ForDevice(ctx context.Context, deviceID string) (*DeviceStats, error)
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

func (s *Service) ForDevice(ctx context.Context, deviceID string) (*DeviceStats, error) {
	st, err := s.repo.DeviceStats(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("device stats: %w", err)
	}
	return st, nil
}
