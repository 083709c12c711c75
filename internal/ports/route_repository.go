package ports

import (
	"commute-service/internal/domain"
	"context"
)

// Port: a boundary for retrieving the statically configured routes.
type RouteRepository interface {
	// Retrieve the routes configured for a direction, in configured order.
	ListRoutes(ctx context.Context, dir domain.Direction) ([]domain.RouteDescriptor, error)
}
