package device

import (
	"context"
	"time"
)

type Repository interface {
	// Upsert registers the device or refreshes an existing row.
	Upsert(ctx context.Context, id string) (*Device, error)
	Find(ctx context.Context, id string) (*Device, error)
	TouchLastSeen(ctx context.Context, id string, seen time.Time) error
}
