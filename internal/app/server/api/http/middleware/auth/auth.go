package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"lookyswappy/internal/domain/device"
)

type Auth struct {
	devices device.Servicer
	log     *slog.Logger
}

func New(devices device.Servicer, log *slog.Logger) *Auth {
	return &Auth{
		devices: devices,
		log:     log.With("component", "auth_middleware"),
	}
}

type contextKey string

const DeviceIDKey contextKey = "deviceID"

// Middleware validates the bearer token and stores the calling
// device's identity in the request context.
func (a *Auth) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		header := ctx.Header("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			a.reject(ctx, "missing bearer token")
			return
		}

		deviceID, err := a.devices.Validate(ctx.Context(), token)
		if err != nil {
			a.log.Debug("token rejected", "error", err)
			a.reject(ctx, "invalid or expired token")
			return
		}

		newCtx := context.WithValue(ctx.Context(), DeviceIDKey, deviceID)
		next(huma.WithContext(ctx, newCtx))
	}
}

func (a *Auth) reject(ctx huma.Context, reason string) {
	ctx.SetStatus(http.StatusUnauthorized)
	ctx.SetHeader("Content-Type", "application/json")

	if err := json.NewEncoder(ctx.BodyWriter()).Encode(map[string]string{
		"error": reason,
	}); err != nil {
		a.log.Error("failed to write unauthorized response", "error", err)
	}
}

// GetDeviceID returns the authenticated device identity, if any.
func GetDeviceID(ctx context.Context) (string, bool) {
	deviceID, ok := ctx.Value(DeviceIDKey).(string)
	return deviceID, ok
}
