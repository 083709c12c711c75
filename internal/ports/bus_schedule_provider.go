package ports

import (
	"commute-service/internal/domain"
	"context"
	"time"
)

// Contract for the fixed-route bus timetable source.
// Implementations must be safe for concurrent use.
type BusScheduleProvider interface {
	// Return the current timetable (possibly a last-known-good copy).
	Schedule(ctx context.Context) (domain.BusSchedule, error)
	// Return the next departure at or after the given instant.
	// found is false when no run remains that day.
	NextBus(ctx context.Context, after time.Time, dir domain.BusDirection) (departure time.Time, found bool, err error)
}
