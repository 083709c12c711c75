package domain

import (
	"errors"
	"fmt"
	"time"
)

// Named, statically configured alternative for one direction.
type RouteDescriptor struct {
	Name     string
	Segments []SegmentDescriptor
}

func (r RouteDescriptor) Validate() error {
	if r.Name == "" {
		return errors.New("route name must be non-empty")
	}
	if len(r.Segments) == 0 {
		return fmt.Errorf("route %q: at least one segment is required", r.Name)
	}
	for i, s := range r.Segments {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("route %q: segment %d: %w", r.Name, i+1, err)
		}
	}
	return nil
}

// Result of scheduling one RouteDescriptor.
// When HasError is false, StartTime is the first segment's departure,
// ETA the last segment's arrival and TotalDurationSeconds their exact difference.
type RouteResult struct {
	Name                 string
	Segments             []ResolvedSegment
	TotalDurationSeconds int
	StartTime            time.Time
	ETA                  time.Time
	HasError             bool
	IsBest               bool
}

// CheckContinuity returns the index of the first segment that departs before
// its predecessor arrives, or -1. Failed segments are skipped.
func CheckContinuity(segments []ResolvedSegment) int {
	var prevArrival time.Time
	for i, s := range segments {
		if s.Failed() {
			continue
		}
		if !prevArrival.IsZero() && s.DepartureTime.Before(prevArrival) {
			return i
		}
		prevArrival = s.ArrivalTime
	}
	return -1
}
