package ports

import (
	"commute-service/internal/domain"
	"context"
	"errors"
	"time"
)

// ErrNoResult is returned when a provider answered but had no usable route.
var ErrNoResult = errors.New("no route result")

// TimeConstraintKind selects whether a query pins departure or arrival.
type TimeConstraintKind int

const (
	DepartAt TimeConstraintKind = iota
	ArriveBy
)

// Requested departure or arrival instant for a directions query.
type TimeConstraint struct {
	Kind TimeConstraintKind
	At   time.Time
}

// TransitPreference restricts which transit vehicles a query may use.
type TransitPreference string

const (
	TransitTrain TransitPreference = "train"
	TransitPATH  TransitPreference = "path"
	TransitAny   TransitPreference = "any"
)

// Driving time and distance between two locations at a given time.
type DrivingResult struct {
	DurationSeconds     int
	DistanceMeters      int
	TrafficDelaySeconds int
}

// A fixed, timetable-determined transit run.
type TransitResult struct {
	DurationSeconds int
	DistanceMeters  int
	Departure       time.Time
	Arrival         time.Time
	LineLabel       string
}

// Contract for the mapping/directions service.
// Any returned error is treated by callers as "no usable result".
type DirectionsProvider interface {
	ComputeDrivingRoute(ctx context.Context, origin, destination domain.Location, when TimeConstraint) (DrivingResult, error)
	ComputeTransitRoute(ctx context.Context, origin, destination domain.Location, mode TransitPreference, when TimeConstraint) (TransitResult, error)
}
