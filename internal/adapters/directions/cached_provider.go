package directions

import (
	"commute-service/internal/domain"
	"commute-service/internal/ports"
	"context"
	"fmt"
	"strings"
	"time"
)

const DefaultDrivingBucket = 15 * time.Minute

// CachedProvider serves driving lookups from a DrivingCache and forwards
// everything else to the wrapped provider. Departures inside the same bucket
// share one cache entry. Transit runs are never cached.
type CachedProvider struct {
	next   ports.DirectionsProvider
	cache  ports.DrivingCache
	bucket time.Duration
}

func NewCachedProvider(next ports.DirectionsProvider, cache ports.DrivingCache) *CachedProvider {
	return &CachedProvider{next: next, cache: cache, bucket: DefaultDrivingBucket}
}

func (c *CachedProvider) ComputeDrivingRoute(
	ctx context.Context,
	origin, destination domain.Location,
	when ports.TimeConstraint,
) (ports.DrivingResult, error) {
	key := c.key(origin, destination, when.At)

	if r, ok := c.cache.Get(ctx, key); ok {
		return r, nil
	}

	r, err := c.next.ComputeDrivingRoute(ctx, origin, destination, when)
	if err != nil {
		return ports.DrivingResult{}, err
	}

	c.cache.Put(ctx, key, r)
	return r, nil
}

func (c *CachedProvider) ComputeTransitRoute(
	ctx context.Context,
	origin, destination domain.Location,
	mode ports.TransitPreference,
	when ports.TimeConstraint,
) (ports.TransitResult, error) {
	return c.next.ComputeTransitRoute(ctx, origin, destination, mode, when)
}

func (c *CachedProvider) key(origin, destination domain.Location, at time.Time) string {
	return fmt.Sprintf("drive|%s|%s|%d",
		normalize(origin.Query()),
		normalize(destination.Query()),
		at.Truncate(c.bucket).Unix(),
	)
}

// normalize ensures consistent cache keys by collapsing whitespace.
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
