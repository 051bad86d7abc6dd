package stats

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"lookyswappy/internal/app/server/api/http/middleware/auth"
	"lookyswappy/internal/domain/stats"
)

type Handler struct {
	service    stats.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service stats.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.getOp(), h.get)
}

func (h *Handler) get(ctx context.Context, _ *getInput) (*getOutput, error) {
	deviceID, ok := auth.GetDeviceID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("device not authenticated")
	}

	st, err := h.service.ForDevice(ctx, deviceID)
	if err != nil {
		h.log.Error("stats failed", "device_id", deviceID, "error", err)
		return nil, huma.Error500InternalServerError("stats failed")
	}

	return &getOutput{Body: *st}, nil
}
