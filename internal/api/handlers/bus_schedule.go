package handlers

import (
	"commute-service/internal/adapters/busschedule"
	"commute-service/internal/api/dto"
	"context"
	"net/http"

	"github.com/rs/zerolog"
)

// ScheduleSource returns the bus timetable currently served.
type ScheduleSource interface {
	Get(ctx context.Context) (busschedule.Snapshot, error)
}

type BusScheduleHandler struct {
	Source ScheduleSource
}

func (h *BusScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Source.Get(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("load bus schedule failed")
		writeError(w, r, http.StatusServiceUnavailable, "bus schedule unavailable")
		return
	}

	res := dto.BusScheduleResponse{
		ScheduleID: snap.ScheduleID,
		Source:     snap.Source,
		Stale:      snap.Stale,
		Schedule:   snap.Schedule,
	}
	if !snap.FetchedAt.IsZero() {
		fetched := snap.FetchedAt
		res.FetchedAt = &fetched
	}

	writeJSON(w, r, http.StatusOK, res)
}
