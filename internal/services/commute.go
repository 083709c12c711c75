package services

import (
	"commute-service/internal/domain"
	"commute-service/internal/ports"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// CommuteService is the entry point for a commute request: it loads the
// configured routes for a direction, schedules them and hands the batch to an
// optional publisher.
type CommuteService struct {
	Routes    ports.RouteRepository
	Batch     *BatchProcessor
	Publisher ports.ResultPublisher // optional

	Now    func() time.Time
	Logger zerolog.Logger
}

func NewCommuteService(routes ports.RouteRepository, batch *BatchProcessor) *CommuteService {
	return &CommuteService{
		Routes: routes,
		Batch:  batch,
		Now:    time.Now,
		Logger: zerolog.Nop(),
	}
}

// Compute schedules every route configured for dir. A zero asOf means now.
func (c *CommuteService) Compute(ctx context.Context, dir domain.Direction, asOf time.Time) (ports.CommuteBatch, error) {
	if _, err := domain.ParseDirection(string(dir)); err != nil {
		return ports.CommuteBatch{}, fmt.Errorf("compute commute: %w", err)
	}

	if asOf.IsZero() {
		asOf = c.Now()
	}

	routes, err := c.Routes.ListRoutes(ctx, dir)
	if err != nil {
		return ports.CommuteBatch{}, fmt.Errorf("compute commute: list routes for %s: %w", dir, err)
	}

	results := c.Batch.Process(ctx, dir, routes, asOf)

	batch := ports.CommuteBatch{
		Direction:   dir,
		AsOf:        asOf,
		LastUpdated: c.Now(),
		Routes:      results,
	}

	if c.Publisher != nil {
		// Detached from the request so a client disconnect does not drop the publish.
		if err := c.Publisher.Publish(context.WithoutCancel(ctx), batch); err != nil {
			c.Logger.Warn().Err(err).Str("direction", string(dir)).Msg("publish commute batch failed")
		}
	}

	return batch, nil
}
