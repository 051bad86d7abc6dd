package sync

import (
	"math"
	"time"
)

// Wire shapes for the pull/push protocol. Every id and *_id field here
// is a public identity: the identifier the client assigned locally if
// the record has one, the server identity otherwise. Server identities
// never leak into this layer for records that were pushed by a client.

// GameSync is the public form of a game record.
type GameSync struct {
	ID          string     `json:"id" doc:"Public record identity"`
	Name        *string    `json:"name,omitempty"`
	TargetScore int        `json:"target_score" default:"100"`
	Status      string     `json:"status" enum:"active,completed"`
	WinnerID    *string    `json:"winner_id,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
}

// PlayerSync is the public form of a game player record.
type PlayerSync struct {
	ID           string `json:"id"`
	GameID       string `json:"game_id"`
	Name         string `json:"name"`
	Position     int    `json:"position"`
	CurrentTotal int    `json:"current_total"`
}

// RoundSync is the public form of a round record.
type RoundSync struct {
	ID          string    `json:"id"`
	GameID      string    `json:"game_id"`
	RoundNumber int       `json:"round_number"`
	CallerID    *string   `json:"caller_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ScoreSync is the public form of a score record.
type ScoreSync struct {
	ID           string `json:"id"`
	RoundID      string `json:"round_id"`
	PlayerID     string `json:"player_id"`
	RawScore     int    `json:"raw_score"`
	BonusApplied int    `json:"bonus_applied"`
	FinalScore   int    `json:"final_score"`
	TotalAfter   int    `json:"total_after"`
}

// TableChanges buckets one table's records relative to a watermark.
// Deleted carries public identities only.
type TableChanges[T any] struct {
	Created []T      `json:"created"`
	Updated []T      `json:"updated"`
	Deleted []string `json:"deleted"`
}

// SyncChanges bundles the change sets of all four replicated tables.
type SyncChanges struct {
	Games       TableChanges[GameSync]   `json:"games"`
	GamePlayers TableChanges[PlayerSync] `json:"game_players"`
	Rounds      TableChanges[RoundSync]  `json:"rounds"`
	Scores      TableChanges[ScoreSync]  `json:"scores"`
}

// PullResponse is the result of a pull. Timestamp is the new watermark
// the caller must persist and present on its next pull; it is returned
// even when the change set is empty.
type PullResponse struct {
	Changes   SyncChanges `json:"changes"`
	Timestamp float64     `json:"timestamp" doc:"Server watermark for the next pull, Unix seconds"`
}

// PushRequest carries a device's local changes plus the watermark it
// last pulled, used for conflict detection.
type PushRequest struct {
	Changes      SyncChanges `json:"changes"`
	LastPulledAt float64     `json:"last_pulled_at" doc:"Watermark from the last pull, Unix seconds; 0 means never pulled"`
}

// PushResponse reports the outcome of a push. A conflict or store
// failure yields OK=false with a single explanatory error; on success
// Errors is empty even if individual records were skipped.
type PushResponse struct {
	OK     bool     `json:"ok"`
	Errors []string `json:"errors"`
}

// Watermarks travel as float Unix seconds. Conversions keep
// millisecond precision so a returned watermark compares equal to the
// server time it was derived from.

// WatermarkOf converts a server time to its wire form.
func WatermarkOf(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1000
}

// WatermarkTime converts a wire watermark back to a time. Zero or
// negative means "beginning of time" and maps to the zero time, which
// every stored last_modified compares after.
func WatermarkTime(w float64) time.Time {
	if w <= 0 {
		return time.Time{}
	}
	// Round, don't truncate: w carries a millisecond count divided by
	// 1000, and the division is not always exact in float64.
	return time.UnixMilli(int64(math.Round(w * 1000))).UTC()
}
