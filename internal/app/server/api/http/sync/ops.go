package sync

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) pullOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-pull",
		Method:      http.MethodGet,
		Path:        "/api/v1/sync/pull",
		Summary:     "Pull changes since the last sync",
		Description: "Returns all of the device's changes since the given watermark plus the new watermark to persist.",
		Tags:        []string{"sync"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) pushOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-push",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync/push",
		Summary:     "Push local changes to the server",
		Description: "Applies a batch of device-originated changes; rejected wholesale if the server has newer state than the supplied watermark.",
		Tags:        []string{"sync"},
		Middlewares: h.middleware,
	}
}
