package game

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"lookyswappy/internal/app/server/api/http/middleware/auth"
	"lookyswappy/internal/domain/game"
)

type Handler struct {
	service    game.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service game.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.getOp(), h.get)
}

func (h *Handler) list(ctx context.Context, _ *listInput) (*listOutput, error) {
	deviceID, ok := auth.GetDeviceID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("device not authenticated")
	}

	games, err := h.service.List(ctx, deviceID)
	if err != nil {
		h.log.Error("list games failed", "device_id", deviceID, "error", err)
		return nil, huma.Error500InternalServerError("list failed")
	}

	views := make([]GameView, 0, len(games))
	for _, g := range games {
		views = append(views, toView(g))
	}

	return &listOutput{Body: ListResponse{Games: views}}, nil
}

func (h *Handler) get(ctx context.Context, input *getInput) (*getOutput, error) {
	deviceID, ok := auth.GetDeviceID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("device not authenticated")
	}

	g, players, err := h.service.Get(ctx, deviceID, input.ID)
	if err != nil {
		if errors.Is(err, game.ErrNotFound) {
			return nil, huma.Error404NotFound("game not found")
		}
		h.log.Error("get game failed", "device_id", deviceID, "id", input.ID, "error", err)
		return nil, huma.Error500InternalServerError("lookup failed")
	}

	detail := GameDetail{
		GameView: toView(*g),
		Players:  make([]PlayerView, 0, len(players)),
	}
	for _, p := range players {
		detail.Players = append(detail.Players, toPlayerView(p))
	}

	return &getOutput{Body: detail}, nil
}
