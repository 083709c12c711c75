package services

import (
	"commute-service/internal/adapters/directions"
	"commute-service/internal/domain"
	"commute-service/internal/ports"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentResolverWalk(t *testing.T) {
	r := NewSegmentResolver(nil, nil)
	seg := walkSeg("Parking", "Platform", 3*time.Minute)

	fwd := r.Resolve(context.Background(), seg, domain.DepartAfterAnchor(at(t, 16, 26)))
	assert.Empty(t, fwd.Error)
	assert.Equal(t, 180, fwd.DurationSeconds)
	assert.True(t, fwd.DepartureTime.Equal(at(t, 16, 26)))
	assert.True(t, fwd.ArrivalTime.Equal(at(t, 16, 29)))

	back := r.Resolve(context.Background(), seg, domain.ArriveByAnchor(at(t, 16, 29)))
	assert.True(t, back.DepartureTime.Equal(at(t, 16, 26)))
	assert.True(t, back.ArrivalTime.Equal(at(t, 16, 29)))
}

func TestSegmentResolverDrive(t *testing.T) {
	p := morrisPlainsProvider(t)
	r := NewSegmentResolver(p, nil)

	fwd := r.Resolve(context.Background(), driveSeg(home, office), domain.DepartAfterAnchor(at(t, 8, 0)))
	require.Empty(t, fwd.Error)
	assert.Equal(t, domain.ModeDrive, fwd.Mode)
	assert.Equal(t, 4200, fwd.DurationSeconds)
	assert.True(t, fwd.ArrivalTime.Equal(at(t, 9, 10)))
	require.NotNil(t, fwd.DistanceMeters)
	assert.Equal(t, 56000, *fwd.DistanceMeters)
	assert.Equal(t, "Moderate traffic (+10 min)", fwd.TrafficNote)

	back := r.Resolve(context.Background(), driveSeg(home, office), domain.ArriveByAnchor(at(t, 9, 10)))
	require.Empty(t, back.Error)
	assert.True(t, back.DepartureTime.Equal(at(t, 8, 0)))

	// Backward drives still query the provider as a departure at the anchor.
	calls := p.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, ports.DepartAt, calls[1].When.Kind)
	assert.True(t, calls[1].When.At.Equal(at(t, 9, 10)))
}

func TestSegmentResolverDriveProviderFailure(t *testing.T) {
	p := morrisPlainsProvider(t)
	p.Fail("home", "office")
	r := NewSegmentResolver(p, nil)

	rs := r.Resolve(context.Background(), driveSeg(home, office), domain.DepartAfterAnchor(at(t, 8, 0)))
	assert.Equal(t, domain.ErrTextAPI, rs.Error)
	assert.Zero(t, rs.DurationSeconds)
	assert.True(t, rs.DepartureTime.IsZero())
	assert.True(t, rs.ArrivalTime.IsZero())
	assert.Equal(t, "Home", rs.FromLabel)
}

func TestSegmentResolverTransitKeepsEarlyRun(t *testing.T) {
	p := morrisPlainsProvider(t)
	r := NewSegmentResolver(p, nil)

	rs := r.Resolve(context.Background(), transitSeg(morrisPlains, hoboken, domain.ModeTrain), domain.DepartAfterAnchor(at(t, 16, 29)))
	require.Empty(t, rs.Error)
	assert.Equal(t, domain.ModeTrain, rs.Mode)
	assert.True(t, rs.DepartureTime.Equal(at(t, 16, 20)), "resolver must not hide the early run")
	assert.Equal(t, 72*60, rs.DurationSeconds)
	assert.Equal(t, "MOE", rs.LineLabel)
}

func TestSegmentResolverTransitArriveBy(t *testing.T) {
	p := morrisPlainsProvider(t)
	r := NewSegmentResolver(p, nil)

	rs := r.Resolve(context.Background(), transitSeg(morrisPlains, hoboken, domain.ModeTrain), domain.ArriveByAnchor(at(t, 17, 50)))
	require.Empty(t, rs.Error)
	assert.True(t, rs.DepartureTime.Equal(at(t, 16, 38)))
	assert.Equal(t, 1, p.CountCalls("transit", ports.ArriveBy))
}

func TestSegmentResolverBus(t *testing.T) {
	p := morrisPlainsProvider(t)
	r := NewSegmentResolver(p, eveningBuses(t))

	rs := r.Resolve(context.Background(), busSeg(parkAndRide, portAuth, domain.Eastbound), domain.DepartAfterAnchor(at(t, 16, 30)))
	require.Empty(t, rs.Error)
	assert.Equal(t, domain.ModeBus, rs.Mode)
	assert.True(t, rs.DepartureTime.Equal(at(t, 16, 45)))
	assert.True(t, rs.ArrivalTime.Equal(at(t, 17, 35)))

	// The road leg is evaluated at the bus departure, not the anchor.
	calls := p.Calls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].When.At.Equal(at(t, 16, 45)))
}

func TestSegmentResolverBusNoneLeft(t *testing.T) {
	r := NewSegmentResolver(morrisPlainsProvider(t), eveningBuses(t))

	rs := r.Resolve(context.Background(), busSeg(parkAndRide, portAuth, domain.Eastbound), domain.DepartAfterAnchor(at(t, 16, 46)))
	assert.Equal(t, domain.ErrTextNoBus, rs.Error)
	assert.True(t, rs.DepartureTime.IsZero())
}

func TestSegmentResolverBusProviderFailure(t *testing.T) {
	buses := eveningBuses(t)
	buses.err = errors.New("schedule unavailable")
	r := NewSegmentResolver(morrisPlainsProvider(t), buses)

	rs := r.Resolve(context.Background(), busSeg(parkAndRide, portAuth, domain.Eastbound), domain.DepartAfterAnchor(at(t, 16, 0)))
	assert.Equal(t, domain.ErrTextAPI, rs.Error)
}

func TestSegmentResolverBusRejectsArriveBy(t *testing.T) {
	r := NewSegmentResolver(morrisPlainsProvider(t), eveningBuses(t))

	rs := r.Resolve(context.Background(), busSeg(parkAndRide, portAuth, domain.Eastbound), domain.ArriveByAnchor(at(t, 18, 0)))
	assert.Equal(t, domain.ErrTextInternal, rs.Error)
}

func TestSegmentResolverCallTimeoutIsAPIError(t *testing.T) {
	r := NewSegmentResolver(blockingDirections{}, nil)
	r.CallTimeout = 20 * time.Millisecond

	start := time.Now()
	rs := r.Resolve(context.Background(), driveSeg(home, office), domain.DepartAfterAnchor(at(t, 8, 0)))
	assert.Equal(t, domain.ErrTextAPI, rs.Error)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestTrafficNote(t *testing.T) {
	assert.Equal(t, "", trafficNote(30))
	assert.Equal(t, "Light traffic (+2 min)", trafficNote(120))
	assert.Equal(t, "Heavy traffic (+20 min)", trafficNote(1200))
}

var _ ports.DirectionsProvider = (*directions.MockDirectionsProvider)(nil)
