package ports

import (
	"context"
	"fuel-route-service/internal/domain"
)

// Elevation for one requested point. OK is false when the service had no value.
type ElevationSample struct {
	Meters float64
	OK     bool
}

// Contract for looking up terrain elevation.
type ElevationProvider interface {
	// Return one sample per point, in order. Partial results are not an error.
	Elevations(ctx context.Context, points []domain.GeoPoint) ([]ElevationSample, error)
}
