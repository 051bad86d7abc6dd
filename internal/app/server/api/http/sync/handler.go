package sync

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"lookyswappy/internal/app/server/api/http/middleware/auth"
	"lookyswappy/internal/domain/sync"
)

type Handler struct {
	service    sync.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service sync.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.pullOp(), h.pull)
	huma.Register(api, h.pushOp(), h.push)
}

func (h *Handler) pull(ctx context.Context, input *pullInput) (*pullOutput, error) {
	deviceID, ok := auth.GetDeviceID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("device not authenticated")
	}

	response, err := h.service.Pull(ctx, deviceID, input.LastPulledAt)
	if err != nil {
		h.log.Error("pull failed", "device_id", deviceID, "error", err)
		return nil, huma.Error500InternalServerError("pull failed")
	}

	return &pullOutput{Body: *response}, nil
}

func (h *Handler) push(ctx context.Context, input *pushInput) (*pushOutput, error) {
	deviceID, ok := auth.GetDeviceID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("device not authenticated")
	}

	response, err := h.service.Push(ctx, deviceID, input.Body)
	if err != nil {
		h.log.Error("push failed", "device_id", deviceID, "error", err)
		return nil, huma.Error500InternalServerError("push failed")
	}

	return &pushOutput{Body: *response}, nil
}
