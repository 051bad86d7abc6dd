package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"lookyswappy/internal/domain/device"
)

type DeviceRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewDeviceRepository(pool *pgxpool.Pool, log *slog.Logger) *DeviceRepository {
	return &DeviceRepository{
		pool: pool,
		log:  log.With("component", "device_repository"),
	}
}

func (r *DeviceRepository) Upsert(ctx context.Context, id string) (*device.Device, error) {
	const query = `
		INSERT INTO devices (id, last_seen, created_at)
		VALUES ($1, now(), now())
		ON CONFLICT (id) DO UPDATE SET last_seen = now()
		RETURNING id, last_seen, created_at`

	var d device.Device
	if err := r.pool.QueryRow(ctx, query, id).Scan(&d.ID, &d.LastSeen, &d.CreatedAt); err != nil {
		return nil, fmt.Errorf("upsert device: %w", err)
	}
	return &d, nil
}

func (r *DeviceRepository) Find(ctx context.Context, id string) (*device.Device, error) {
	const query = `SELECT id, last_seen, created_at FROM devices WHERE id = $1`

	var d device.Device
	err := r.pool.QueryRow(ctx, query, id).Scan(&d.ID, &d.LastSeen, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, device.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find device: %w", err)
	}
	return &d, nil
}

func (r *DeviceRepository) TouchLastSeen(ctx context.Context, id string, seen time.Time) error {
	const query = `UPDATE devices SET last_seen = $2 WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, id, seen); err != nil {
		return fmt.Errorf("touch last seen: %w", err)
	}
	return nil
}
