package stats

import (
	"lookyswappy/internal/domain/stats"
)

type getInput struct{}

type getOutput struct {
	Body stats.DeviceStats
}
