package sync

import (
	"time"

	"lookyswappy/internal/domain/game"
)

type changeKind int

const (
	changeCreated changeKind = iota
	changeUpdated
	changeDeleted
)

// classify decides which bucket of a pull response a record belongs
// in, relative to the caller's watermark. Soft-deleted records are
// always tombstones, whether or not the caller ever saw them. A record
// born after the watermark is new to the caller; anything else the
// caller already knows and gets as an update. The decision is computed
// fresh from the record's current fields on every pull; there is no
// per-device state.
func classify(meta game.Syncable, since time.Time) changeKind {
	switch {
	case meta.IsDeleted:
		return changeDeleted
	case meta.CreatedAt.After(since):
		return changeCreated
	default:
		return changeUpdated
	}
}
