package elevation

import (
	"context"
	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/ports"
)

// MockElevation resolves heights from a function of position. It is used for
// local runs without an API key and in tests.
type MockElevation struct {
	height func(lon, lat float64) (float64, bool)
}

func NewMockElevation(height func(lon, lat float64) (float64, bool)) *MockElevation {
	return &MockElevation{height: height}
}

// NewFlatElevation reports the same height everywhere.
func NewFlatElevation(meters float64) *MockElevation {
	return NewMockElevation(func(float64, float64) (float64, bool) { return meters, true })
}

func (m *MockElevation) Elevations(ctx context.Context, points []domain.GeoPoint) ([]ports.ElevationSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]ports.ElevationSample, len(points))
	for i, p := range points {
		z, ok := m.height(p.Lon, p.Lat)
		out[i] = ports.ElevationSample{Meters: z, OK: ok}
	}
	return out, nil
}
