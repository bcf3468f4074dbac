package services

import (
	"fuel-route-service/internal/domain"
	"math"
)

// Curvature below this is treated as this value to keep the grip limit finite.
const curvatureFloor = 1e-12

// CorneringLimit returns the highest speed at which the centripetal demand at the
// given curvature stays within tyre grip, capped at straightCap for near-straight road.
func CorneringLimit(curvature, grip, gravity, straightCap float64) float64 {
	k := math.Max(curvature, curvatureFloor)
	v := math.Sqrt(math.Max(0, grip*gravity/k))
	return math.Min(v, straightCap)
}

// NodeCorneringLimits evaluates CorneringLimit at every node of the route.
// The returned slice is never modified by the solver.
func NodeCorneringLimits(g *Geometry, p domain.VehicleParameters) []float64 {
	limits := make([]float64, g.Nodes())
	for i, k := range g.Curvature {
		limits[i] = CorneringLimit(k, p.GripCoefficient, p.Gravity, p.StraightSpeedCap)
	}
	return limits
}

// SegmentCorneringLimits gives each segment the tighter of its two node limits.
func SegmentCorneringLimits(nodeLimits []float64) []float64 {
	if len(nodeLimits) < 2 {
		return nil
	}
	out := make([]float64, len(nodeLimits)-1)
	for i := range out {
		out[i] = math.Min(nodeLimits[i], nodeLimits[i+1])
	}
	return out
}
