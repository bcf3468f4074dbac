package ports

import (
	"context"
	"errors"
	"fuel-route-service/internal/domain"
)

// ErrRouteNotFound is returned when no stored route has the requested id.
var ErrRouteNotFound = errors.New("route not found")

// Port: a boundary for retrieving stored routes.
type RouteRepository interface {
	// Return a listing of all stored routes ordered by id.
	ListRoutes(ctx context.Context) ([]domain.RouteInfo, error)
	// Return the route with its points in travel order.
	GetRoute(ctx context.Context, id string) (*domain.Route, error)
}
