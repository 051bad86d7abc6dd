package sync

import (
	"lookyswappy/internal/domain/sync"
)

type pullInput struct {
	LastPulledAt float64 `query:"last_pulled_at" minimum:"0" doc:"Watermark from the previous pull, Unix seconds; 0 pulls full history"`
}

type pullOutput struct {
	Body sync.PullResponse
}

type pushInput struct {
	Body sync.PushRequest
}

type pushOutput struct {
	Body sync.PushResponse
}
