package stats

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) getOp() huma.Operation {
	return huma.Operation{
		OperationID: "stats-get",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Get the device's game statistics",
		Tags:        []string{"stats"},
		Middlewares: h.middleware,
	}
}
