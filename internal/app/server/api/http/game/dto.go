package game

import (
	"time"

	"lookyswappy/internal/domain/game"
)

// GameView is the REST form of a game, keyed by public identity.
type GameView struct {
	ID          string     `json:"id"`
	Name        *string    `json:"name,omitempty"`
	TargetScore int        `json:"target_score"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
}

type PlayerView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Position     int    `json:"position"`
	CurrentTotal int    `json:"current_total"`
}

type listInput struct{}

type listOutput struct {
	Body ListResponse
}

type ListResponse struct {
	Games []GameView `json:"games"`
}

type getInput struct {
	ID string `path:"id" doc:"Public game identity"`
}

type getOutput struct {
	Body GameDetail
}

type GameDetail struct {
	GameView
	Players []PlayerView `json:"players"`
}

func toView(g game.Game) GameView {
	return GameView{
		ID:          g.PublicID(),
		Name:        g.Name,
		TargetScore: g.TargetScore,
		Status:      g.Status,
		StartedAt:   g.StartedAt,
		EndedAt:     g.EndedAt,
	}
}

func toPlayerView(p game.GamePlayer) PlayerView {
	return PlayerView{
		ID:           p.PublicID(),
		Name:         p.Name,
		Position:     p.Position,
		CurrentTotal: p.TotalScore,
	}
}
