package auth

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) registerOp() huma.Operation {
	return huma.Operation{
		OperationID:   "auth-register-device",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/register-device",
		Summary:       "Register a device",
		Description:   "Registers a new device or refreshes an existing one, returning a bearer token.",
		Tags:          []string{"auth"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   h.public,
	}
}

func (h *Handler) refreshOp() huma.Operation {
	return huma.Operation{
		OperationID: "auth-refresh",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/refresh",
		Summary:     "Refresh token",
		Description: "Issues a new token before the current one expires.",
		Tags:        []string{"auth"},
		Middlewares: h.protected,
	}
}

func (h *Handler) meOp() huma.Operation {
	return huma.Operation{
		OperationID: "auth-me",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/me",
		Summary:     "Get current device info",
		Tags:        []string{"auth"},
		Middlewares: h.protected,
	}
}
