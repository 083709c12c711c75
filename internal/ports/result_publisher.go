package ports

import (
	"commute-service/internal/domain"
	"context"
	"time"
)

// A computed batch of routes for one direction.
type CommuteBatch struct {
	Direction   domain.Direction
	AsOf        time.Time
	LastUpdated time.Time
	Routes      []domain.RouteResult
}

// Sink for computed batches (e.g. display devices). Publishing is best-effort.
type ResultPublisher interface {
	Publish(ctx context.Context, batch CommuteBatch) error
}
