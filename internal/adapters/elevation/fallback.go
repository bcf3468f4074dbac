package elevation

import (
	"context"
	"fmt"
	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/platform/obs"
	"fuel-route-service/internal/ports"
	"log"
)

// DefaultMinCoverage is the share of resolved points below which the fallback is consulted.
const DefaultMinCoverage = 0.8

// FallbackElevation asks Primary first and, when it resolves too few points,
// Secondary. Points Secondary cannot resolve keep Primary's value.
type FallbackElevation struct {
	Primary     ports.ElevationProvider
	Secondary   ports.ElevationProvider
	MinCoverage float64
}

func NewFallbackElevation(primary, secondary ports.ElevationProvider) *FallbackElevation {
	return &FallbackElevation{Primary: primary, Secondary: secondary, MinCoverage: DefaultMinCoverage}
}

func (f *FallbackElevation) Elevations(ctx context.Context, points []domain.GeoPoint) ([]ports.ElevationSample, error) {
	primary, err := f.Primary.Elevations(ctx, points)
	if err != nil {
		return nil, fmt.Errorf("fallback elevation: primary: %w", err)
	}

	cov := Coverage(primary)
	if cov >= f.MinCoverage || f.Secondary == nil {
		return primary, nil
	}

	log.Printf("req_id=%s op=elevation.fallback coverage=%.2f min=%.2f switching=secondary",
		obs.RequestID(ctx), cov, f.MinCoverage)

	secondary, err := f.Secondary.Elevations(ctx, points)
	if err != nil {
		return nil, fmt.Errorf("fallback elevation: secondary: %w", err)
	}

	for i, s := range secondary {
		if !s.OK {
			secondary[i] = primary[i]
		}
	}
	return secondary, nil
}

// Coverage returns the share of samples with a value; an empty slice counts as full.
func Coverage(samples []ports.ElevationSample) float64 {
	if len(samples) == 0 {
		return 1
	}
	ok := 0
	for _, s := range samples {
		if s.OK {
			ok++
		}
	}
	return float64(ok) / float64(len(samples))
}
