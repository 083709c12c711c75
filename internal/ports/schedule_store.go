package ports

import (
	"commute-service/internal/domain"
	"context"
	"errors"
	"time"
)

// ErrScheduleNotFound is returned by a ScheduleStore with nothing stored for the ID.
var ErrScheduleNotFound = errors.New("schedule not found")

// A timetable together with the time it was fetched from the live source.
type StoredSchedule struct {
	ScheduleID string
	Schedule   domain.BusSchedule
	FetchedAt  time.Time
}

// Persistent last-known-good storage for bus timetables.
type ScheduleStore interface {
	Load(ctx context.Context, scheduleID string) (StoredSchedule, error)
	Save(ctx context.Context, s StoredSchedule) error
}
