package auth

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	authmw "lookyswappy/internal/app/server/api/http/middleware/auth"
	"lookyswappy/internal/domain/device"
)

type Handler struct {
	devices device.Servicer
	log     *slog.Logger

	// register is public; refresh and me require a valid token.
	public    huma.Middlewares
	protected huma.Middlewares
}

func NewHandler(devices device.Servicer, log *slog.Logger, public, protected huma.Middlewares) *Handler {
	return &Handler{
		devices:   devices,
		log:       log,
		public:    public,
		protected: protected,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.registerOp(), h.register)
	huma.Register(api, h.refreshOp(), h.refresh)
	huma.Register(api, h.meOp(), h.me)
}

func (h *Handler) register(ctx context.Context, input *registerInput) (*tokenOutput, error) {
	token, err := h.devices.Register(ctx, input.Body.DeviceID)
	if err != nil {
		if errors.Is(err, device.ErrInvalidID) {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		h.log.Error("device registration failed", "error", err)
		return nil, huma.Error500InternalServerError("registration failed")
	}

	return &tokenOutput{Body: TokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   token.ExpiresIn,
	}}, nil
}

func (h *Handler) refresh(ctx context.Context, _ *refreshInput) (*tokenOutput, error) {
	deviceID, ok := authmw.GetDeviceID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("device not authenticated")
	}

	token, err := h.devices.Refresh(ctx, deviceID)
	if err != nil {
		h.log.Error("token refresh failed", "device_id", deviceID, "error", err)
		return nil, huma.Error500InternalServerError("refresh failed")
	}

	return &tokenOutput{Body: TokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   token.ExpiresIn,
	}}, nil
}

func (h *Handler) me(ctx context.Context, _ *meInput) (*meOutput, error) {
	deviceID, ok := authmw.GetDeviceID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("device not authenticated")
	}

	d, err := h.devices.Get(ctx, deviceID)
	if err != nil {
		if errors.Is(err, device.ErrNotFound) {
			return nil, huma.Error404NotFound("device not found")
		}
		return nil, huma.Error500InternalServerError("lookup failed")
	}

	return &meOutput{Body: *d}, nil
}
