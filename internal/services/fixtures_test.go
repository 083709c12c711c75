package services

import (
	"commute-service/internal/adapters/directions"
	"commute-service/internal/domain"
	"commute-service/internal/ports"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	home         = domain.Location{Key: "home", Label: "Home", Address: "12 Elm St, Morristown, NJ"}
	morrisPlains = domain.Location{Key: "morris_plains", Label: "Morris Plains Station", Address: "Morris Plains Station, NJ"}
	hoboken      = domain.Location{Key: "hoboken", Label: "Hoboken Terminal", Address: "1 Hudson Pl, Hoboken, NJ"}
	office       = domain.Location{Key: "office", Label: "Office", Address: "1 Penn Plaza, New York, NY"}
	parkAndRide  = domain.Location{Key: "park_ride", Label: "Park & Ride", Address: "Route 46 Park & Ride, NJ"}
	portAuth     = domain.Location{Key: "port_authority", Label: "Port Authority", Address: "625 8th Ave, New York, NY"}
)

var loadNewYork = sync.OnceValues(func() (*time.Location, error) {
	return time.LoadLocation(domain.ScheduleTimeZone)
})

func newYork(t testing.TB) *time.Location {
	t.Helper()
	loc, err := loadNewYork()
	require.NoError(t, err)
	return loc
}

// at returns a Tuesday wall-clock instant in New York.
func at(t testing.TB, hour, minute int) time.Time {
	return time.Date(2026, time.March, 10, hour, minute, 0, 0, newYork(t))
}

func driveSeg(from, to domain.Location) domain.SegmentDescriptor {
	return domain.SegmentDescriptor{Kind: domain.KindDrive, From: from, To: to, FromLabel: from.Label, ToLabel: to.Label}
}

func walkSeg(from, to string, d time.Duration) domain.SegmentDescriptor {
	return domain.SegmentDescriptor{Kind: domain.KindWalk, FromLabel: from, ToLabel: to, WalkDuration: d}
}

func transitSeg(from, to domain.Location, mode domain.Mode) domain.SegmentDescriptor {
	return domain.SegmentDescriptor{Kind: domain.KindTransit, From: from, To: to, FromLabel: from.Label, ToLabel: to.Label, TransitMode: mode}
}

func busSeg(from, to domain.Location, dir domain.BusDirection) domain.SegmentDescriptor {
	return domain.SegmentDescriptor{Kind: domain.KindBus, From: from, To: to, FromLabel: from.Label, ToLabel: to.Label, BusDirection: dir}
}

// morrisPlainsRoute is drive 6m, walk 3m, train to Hoboken, PATH to the office.
func morrisPlainsRoute() domain.RouteDescriptor {
	return domain.RouteDescriptor{
		Name: "Via Morris Plains train",
		Segments: []domain.SegmentDescriptor{
			driveSeg(home, morrisPlains),
			walkSeg("Parking", "Platform", 3*time.Minute),
			transitSeg(morrisPlains, hoboken, domain.ModeTrain),
			transitSeg(hoboken, office, domain.ModePATH),
		},
	}
}

// morrisPlainsProvider serves the Morris Plains scenario. The provider matches
// forward queries up to 10 minutes early, so a 4:29 PM request returns the
// 4:20 PM train.
func morrisPlainsProvider(t testing.TB, trains ...directions.MockRun) *directions.MockDirectionsProvider {
	p := directions.NewMockDirectionsProvider([]directions.MockPair{
		{From: "home", To: "morris_plains", Meters: 5200, Seconds: 360},
		{From: "home", To: "office", Meters: 56000, Seconds: 4200, DelaySeconds: 600},
		{From: "home", To: "park_ride", Meters: 8000, Seconds: 600},
		{From: "park_ride", To: "port_authority", Meters: 48000, Seconds: 3000},
	})
	p.Leniency = 10 * time.Minute

	if len(trains) == 0 {
		trains = []directions.MockRun{
			{From: "morris_plains", To: "hoboken", Departure: at(t, 16, 20), Arrival: at(t, 17, 32), Line: "MOE"},
			{From: "morris_plains", To: "hoboken", Departure: at(t, 16, 38), Arrival: at(t, 17, 45), Line: "MOE"},
			{From: "morris_plains", To: "hoboken", Departure: at(t, 17, 20), Arrival: at(t, 18, 30), Line: "MOE"},
		}
	}
	p.AddRuns(trains...)
	p.AddRuns(
		directions.MockRun{From: "hoboken", To: "office", Departure: at(t, 17, 50), Arrival: at(t, 18, 0), Line: "HOB-33"},
		directions.MockRun{From: "hoboken", To: "office", Departure: at(t, 18, 10), Arrival: at(t, 18, 20), Line: "HOB-33"},
		directions.MockRun{From: "hoboken", To: "office", Departure: at(t, 18, 40), Arrival: at(t, 18, 50), Line: "HOB-33"},
	)
	return p
}

// fakeBuses is an in-memory BusScheduleProvider.
type fakeBuses struct {
	schedule domain.BusSchedule
	loc      *time.Location
	err      error
}

func (f *fakeBuses) Schedule(ctx context.Context) (domain.BusSchedule, error) {
	return f.schedule, f.err
}

func (f *fakeBuses) NextBus(ctx context.Context, after time.Time, dir domain.BusDirection) (time.Time, bool, error) {
	if f.err != nil {
		return time.Time{}, false, f.err
	}
	dep, ok := f.schedule.NextDeparture(after, dir, f.loc)
	return dep, ok, nil
}

func eveningBuses(t testing.TB) *fakeBuses {
	return &fakeBuses{
		loc: newYork(t),
		schedule: domain.BusSchedule{
			Weekday: domain.DirectionTimes{
				Eastbound: []domain.ClockTime{{Hour: 16, Minute: 25}, {Hour: 16, Minute: 45}},
				Westbound: []domain.ClockTime{{Hour: 17, Minute: 15}},
			},
		},
	}
}

// blockingDirections never answers until its context ends.
type blockingDirections struct{}

func (blockingDirections) ComputeDrivingRoute(ctx context.Context, _, _ domain.Location, _ ports.TimeConstraint) (ports.DrivingResult, error) {
	<-ctx.Done()
	return ports.DrivingResult{}, ctx.Err()
}

func (blockingDirections) ComputeTransitRoute(ctx context.Context, _, _ domain.Location, _ ports.TransitPreference, _ ports.TimeConstraint) (ports.TransitResult, error) {
	<-ctx.Done()
	return ports.TransitResult{}, ctx.Err()
}

// assertContinuous checks that no segment of an error-free route departs
// before its predecessor arrives.
func assertContinuous(t *testing.T, r domain.RouteResult) {
	t.Helper()
	if r.HasError {
		return
	}
	for i := 1; i < len(r.Segments); i++ {
		prev, curr := r.Segments[i-1], r.Segments[i]
		require.False(t, curr.DepartureTime.Before(prev.ArrivalTime),
			"route %q: segment %d departs %s before segment %d arrives %s",
			r.Name, i, curr.DepartureTime, i-1, prev.ArrivalTime)
	}
}

// assertAssembled checks start, ETA and total duration of an error-free route.
func assertAssembled(t *testing.T, r domain.RouteResult) {
	t.Helper()
	if r.HasError {
		return
	}
	require.NotEmpty(t, r.Segments)
	require.True(t, r.StartTime.Equal(r.Segments[0].DepartureTime))
	require.True(t, r.ETA.Equal(r.Segments[len(r.Segments)-1].ArrivalTime))
	require.Equal(t, int(r.ETA.Sub(r.StartTime)/time.Second), r.TotalDurationSeconds)
	require.Zero(t, r.ETA.Sub(r.StartTime)%time.Second)
}
