package game

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "games-list",
		Method:      http.MethodGet,
		Path:        "/api/v1/games",
		Summary:     "List the device's games",
		Tags:        []string{"games"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) getOp() huma.Operation {
	return huma.Operation{
		OperationID: "games-get",
		Method:      http.MethodGet,
		Path:        "/api/v1/games/{id}",
		Summary:     "Get one game with its players",
		Tags:        []string{"games"},
		Middlewares: h.middleware,
	}
}
