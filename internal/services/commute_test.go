package services

import (
	"commute-service/internal/domain"
	"commute-service/internal/ports"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRoutes struct {
	byDir map[domain.Direction][]domain.RouteDescriptor
	err   error
}

func (f fakeRoutes) ListRoutes(ctx context.Context, dir domain.Direction) ([]domain.RouteDescriptor, error) {
	return f.byDir[dir], f.err
}

type fakePublisher struct {
	mu      sync.Mutex
	batches []ports.CommuteBatch
	err     error
}

func (f *fakePublisher) Publish(ctx context.Context, b ports.CommuteBatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, b)
	return f.err
}

func newCommute(t *testing.T, now time.Time) (*CommuteService, *fakePublisher) {
	routes := fakeRoutes{byDir: map[domain.Direction][]domain.RouteDescriptor{
		domain.DirectionToOffice: {
			morrisPlainsRoute(),
			{Name: "Drive", Segments: []domain.SegmentDescriptor{driveSeg(home, office)}},
		},
	}}
	svc := NewCommuteService(routes, newBatch(morrisPlainsProvider(t), nil))
	svc.Now = func() time.Time { return now }
	pub := &fakePublisher{}
	svc.Publisher = pub
	return svc, pub
}

func TestComputeSchedulesAndPublishes(t *testing.T) {
	now := at(t, 16, 20)
	svc, pub := newCommute(t, now)

	batch, err := svc.Compute(context.Background(), domain.DirectionToOffice, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, domain.DirectionToOffice, batch.Direction)
	assert.True(t, batch.AsOf.Equal(now), "zero asOf defaults to now")
	assert.True(t, batch.LastUpdated.Equal(now))
	require.Len(t, batch.Routes, 2)
	// Drive is 70 minutes, the train 100.
	assert.Equal(t, "Drive", batch.Routes[0].Name)
	assert.True(t, batch.Routes[0].IsBest)

	require.Len(t, pub.batches, 1)
	assert.Equal(t, batch, pub.batches[0])
}

func TestComputeUsesExplicitAsOf(t *testing.T) {
	svc, _ := newCommute(t, at(t, 7, 0))

	batch, err := svc.Compute(context.Background(), domain.DirectionToOffice, at(t, 16, 20))
	require.NoError(t, err)
	assert.True(t, batch.AsOf.Equal(at(t, 16, 20)))
	for _, r := range batch.Routes {
		assert.False(t, r.StartTime.Before(at(t, 16, 20)), r.Name)
	}
}

func TestComputeRejectsUnknownDirection(t *testing.T) {
	svc, pub := newCommute(t, at(t, 8, 0))

	_, err := svc.Compute(context.Background(), domain.Direction("sideways"), time.Time{})
	require.Error(t, err)
	assert.Empty(t, pub.batches)
}

func TestComputeDirectionWithoutRoutes(t *testing.T) {
	svc, _ := newCommute(t, at(t, 17, 0))

	batch, err := svc.Compute(context.Background(), domain.DirectionToHome, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, batch.Routes)
}

func TestComputeRepositoryError(t *testing.T) {
	boom := errors.New("routes file unreadable")
	svc := NewCommuteService(fakeRoutes{err: boom}, newBatch(nil, nil))

	_, err := svc.Compute(context.Background(), domain.DirectionToOffice, at(t, 8, 0))
	require.ErrorIs(t, err, boom)
}

func TestComputeIgnoresPublishFailure(t *testing.T) {
	svc, pub := newCommute(t, at(t, 16, 20))
	pub.err = errors.New("nats down")

	batch, err := svc.Compute(context.Background(), domain.DirectionToOffice, time.Time{})
	require.NoError(t, err)
	assert.Len(t, batch.Routes, 2)
}
