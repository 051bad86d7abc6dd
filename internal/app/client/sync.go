package client

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"lookyswappy/internal/domain/sync"
)

// Pull fetches changes since the stored watermark and advances it. The
// full response is returned for display; nothing but the watermark is
// persisted locally.
func (a *App) Pull(ctx context.Context) (*sync.PullResponse, error) {
	since, err := a.lastPulledAt()
	if err != nil {
		return nil, err
	}

	resp, err := a.httpClient.Pull(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("pull failed: %w", err)
	}

	watermark := strconv.FormatFloat(resp.Timestamp, 'f', -1, 64)
	if err := a.storage.SetState(stateLastPulledAt, watermark); err != nil {
		return nil, fmt.Errorf("failed to persist watermark: %w", err)
	}

	a.log.Info("pull complete",
		"records", CountChanges(resp.Changes),
		"timestamp", resp.Timestamp,
	)
	return resp, nil
}

// Push reads a changes payload from the given JSON file and sends it
// with the stored watermark. The caller owns producing the payload;
// nothing is queued locally.
func (a *App) Push(ctx context.Context, changesPath string) (*sync.PushResponse, error) {
	data, err := os.ReadFile(changesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read changes file: %w", err)
	}

	var changes sync.SyncChanges
	if err := json.Unmarshal(data, &changes); err != nil {
		return nil, fmt.Errorf("malformed changes file: %w", err)
	}

	since, err := a.lastPulledAt()
	if err != nil {
		return nil, err
	}

	resp, err := a.httpClient.Push(ctx, sync.PushRequest{
		Changes:      changes,
		LastPulledAt: since,
	})
	if err != nil {
		return nil, fmt.Errorf("push failed: %w", err)
	}

	if !resp.OK {
		a.log.Warn("push rejected", "errors", resp.Errors)
	} else {
		a.log.Info("push complete", "records", CountChanges(changes))
	}

	return resp, nil
}

func (a *App) lastPulledAt() (float64, error) {
	raw, err := a.storage.GetState(stateLastPulledAt)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return 0, nil
	}

	since, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt watermark %q: %w", raw, err)
	}
	return since, nil
}

// CountChanges totals the records across all tables of a change set.
func CountChanges(c sync.SyncChanges) int {
	return len(c.Games.Created) + len(c.Games.Updated) + len(c.Games.Deleted) +
		len(c.GamePlayers.Created) + len(c.GamePlayers.Updated) + len(c.GamePlayers.Deleted) +
		len(c.Rounds.Created) + len(c.Rounds.Updated) + len(c.Rounds.Deleted) +
		len(c.Scores.Created) + len(c.Scores.Updated) + len(c.Scores.Deleted)
}
