package stats

// DeviceStats summarizes a device's non-deleted games and scores.
type DeviceStats struct {
	TotalGames     int     `json:"total_games"`
	GamesCompleted int     `json:"games_completed"`
	GamesActive    int     `json:"games_active"`
	AverageScore   float64 `json:"average_score"`
}
