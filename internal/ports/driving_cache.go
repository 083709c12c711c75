package ports

import "context"

// Short-lived cache for driving lookups, keyed by the caller.
type DrivingCache interface {
	Get(ctx context.Context, key string) (DrivingResult, bool)
	Put(ctx context.Context, key string, r DrivingResult)
}
