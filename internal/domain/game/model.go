package game

import "time"

// Game statuses as they travel over the wire.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Syncable carries the bookkeeping fields shared by every replicated
// record. ID is the server-assigned identity, stable for the record's
// lifetime; ClientID is the identifier the originating device assigned
// before the record was first pushed, immutable once set. LastModified
// is stamped by the server on every write, including soft deletes, and
// is the only field trusted for change detection.
type Syncable struct {
	ID           string
	ClientID     *string
	IsDeleted    bool
	LastModified time.Time
	CreatedAt    time.Time
}

// PublicID returns the identity a client knows this record by: the
// client-assigned identifier when there is one, the server identity
// otherwise.
func (s *Syncable) PublicID() string {
	if s.ClientID != nil && *s.ClientID != "" {
		return *s.ClientID
	}
	return s.ID
}

// Game is a single scoring session owned by exactly one device.
// WinnerID references a GamePlayer by server identity.
type Game struct {
	Syncable
	DeviceID    string
	Name        *string
	TargetScore int
	Status      string
	WinnerID    *string
	StartedAt   time.Time
	EndedAt     *time.Time
}

// GamePlayer is a participant in one game. TotalScore is a cached
// running total maintained by the clients.
type GamePlayer struct {
	Syncable
	GameID     string
	Name       string
	Position   int
	TotalScore int
}

// Round is one scoring round within a game. CallerID optionally
// references the GamePlayer who called the round.
type Round struct {
	Syncable
	GameID      string
	RoundNumber int
	CallerID    *string
}

// Score is one player's result for one round. TotalAfter is the
// running total as computed by the client; the server stores it as
// supplied and never recomputes it.
type Score struct {
	Syncable
	RoundID      string
	PlayerID     string
	RawScore     int
	BonusApplied int
	FinalScore   int
	TotalAfter   int
}
