package handlers

import (
	"commute-service/internal/api/dto"
	"commute-service/internal/domain"
	"commute-service/internal/ports"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// CommuteComputer schedules every configured route for a direction.
type CommuteComputer interface {
	Compute(ctx context.Context, dir domain.Direction, asOf time.Time) (ports.CommuteBatch, error)
}

type CommuteHandler struct {
	Service CommuteComputer
	// Upper bound on a whole batch; routes unfinished by then are reported as timed out.
	BatchTimeout time.Duration
}

// Get serves GET /commute?direction={toOffice|toHome}&asOf={RFC3339}.
func (h *CommuteHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	dir, err := domain.ParseDirection(strings.TrimSpace(q.Get("direction")))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var asOf time.Time
	if raw := strings.TrimSpace(q.Get("asOf")); raw != "" {
		asOf, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "asOf must be an RFC3339 timestamp")
			return
		}
	}

	ctx := r.Context()
	if h.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.BatchTimeout)
		defer cancel()
	}

	batch, err := h.Service.Compute(ctx, dir, asOf)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("direction", string(dir)).Msg("compute commute failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.FromBatch(batch))
}
