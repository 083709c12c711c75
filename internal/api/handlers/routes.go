package handlers

import (
	"commute-service/internal/api/dto"
	"commute-service/internal/domain"
	"commute-service/internal/ports"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// RoutesHandler exposes the configured route descriptors for a direction.
type RoutesHandler struct {
	Repo ports.RouteRepository
}

func (h *RoutesHandler) List(w http.ResponseWriter, r *http.Request) {
	dir, err := domain.ParseDirection(strings.TrimSpace(r.URL.Query().Get("direction")))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	routes, err := h.Repo.ListRoutes(r.Context(), dir)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("direction", string(dir)).Msg("list routes failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.FromDescriptors(dir, routes))
}
