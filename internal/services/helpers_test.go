package services

import (
	"fuel-route-service/internal/domain"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// straight returns n+1 waypoints spaced step metres apart along x, each rising by rise.
func straight(n int, step, rise float64) []domain.Waypoint {
	w := make([]domain.Waypoint, n+1)
	for i := range w {
		w[i] = domain.Waypoint{X: float64(i) * step, Z: float64(i) * rise}
	}
	return w
}

// arc returns n+1 waypoints on a circle of the given radius, dtheta radians apart.
func arc(n int, radius, dtheta float64) []domain.Waypoint {
	w := make([]domain.Waypoint, n+1)
	for i := range w {
		th := float64(i) * dtheta
		w[i] = domain.Waypoint{X: radius * math.Cos(th), Y: radius * math.Sin(th)}
	}
	return w
}

func mustGeometry(t *testing.T, w []domain.Waypoint) *Geometry {
	t.Helper()
	g, err := NewGeometry(w)
	require.NoError(t, err)
	return g
}

func mustProfile(t *testing.T, lengths, slopes, curvature []float64) *Geometry {
	t.Helper()
	g, err := GeometryFromProfile(lengths, slopes, curvature)
	require.NoError(t, err)
	return g
}

func mustPowertrain(t *testing.T, cfg domain.VehicleConfig) *Powertrain {
	t.Helper()
	pt, err := NewPowertrain(cfg)
	require.NoError(t, err)
	return pt
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
