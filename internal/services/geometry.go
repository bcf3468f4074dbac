package services

import (
	"fmt"
	"fuel-route-service/internal/domain"
	"math"
)

const (
	// Added to the horizontal run so vertical segments keep a finite slope.
	slopeEpsilon = 1e-12
	// Below this squared speed-along-path the tangent is undefined and curvature is 0.
	tangentFloor = 1e-12
	// Minimum arc-length step used by the numerical derivatives.
	spacingFloor = 1e-9
	// Minimum segment length used by kinematic formulas.
	lengthFloor = 1e-6
)

// Geometry is the immutable per-segment and per-node description of a route.
type Geometry struct {
	Segments  []domain.Segment
	Curvature []float64 // per node, 1/m
	Distance  []float64 // cumulative arc length per node, m
	Elevation []float64 // per node, m
}

// NewGeometry derives segment lengths, slopes and node curvature from ordered waypoints.
//
// Curvature uses first and second derivatives of x and y with respect to arc length,
// estimated by second-order central differences at interior nodes and one-sided
// differences at the two boundary nodes.
func NewGeometry(waypoints []domain.Waypoint) (*Geometry, error) {
	n := len(waypoints)
	if n < 2 {
		return nil, fmt.Errorf("new geometry: %d waypoints: %w", n, ErrTooFewWaypoints)
	}

	segments := make([]domain.Segment, n-1)
	s := make([]float64, n)
	xs := make([]float64, n)
	ys := make([]float64, n)
	zs := make([]float64, n)

	for i, w := range waypoints {
		xs[i], ys[i], zs[i] = w.X, w.Y, w.Z
	}

	for i := 0; i < n-1; i++ {
		dx := xs[i+1] - xs[i]
		dy := ys[i+1] - ys[i]
		dz := zs[i+1] - zs[i]

		horizontal := math.Hypot(dx, dy)
		length := math.Sqrt(dx*dx + dy*dy + dz*dz)

		segments[i] = domain.Segment{
			Length:     length,
			Horizontal: horizontal,
			Rise:       dz,
			Slope:      math.Atan2(dz, horizontal+slopeEpsilon),
		}
		s[i+1] = s[i] + length
	}

	xp := gradient(xs, s)
	yp := gradient(ys, s)
	xpp := gradient(xp, s)
	ypp := gradient(yp, s)

	curvature := make([]float64, n)
	for i := range curvature {
		speedSq := xp[i]*xp[i] + yp[i]*yp[i]
		if speedSq < tangentFloor {
			continue
		}
		curvature[i] = math.Abs(xp[i]*ypp[i]-yp[i]*xpp[i]) / math.Pow(speedSq, 1.5)
	}

	g := &Geometry{
		Segments:  segments,
		Curvature: curvature,
		Distance:  s,
		Elevation: zs,
	}
	g.assignSegmentCurvature()

	return g, nil
}

// GeometryFromProfile builds a Geometry from a route table whose upstream
// preprocessing already derived segment lengths, slopes and node curvature.
// Elevation is reconstructed relative to the first node.
func GeometryFromProfile(lengths, slopes, curvature []float64) (*Geometry, error) {
	if len(curvature) == 0 {
		return nil, fmt.Errorf("geometry from profile: no nodes: %w", ErrTooFewWaypoints)
	}
	if len(lengths) != len(slopes) || len(curvature) != len(lengths)+1 {
		return nil, fmt.Errorf(
			"geometry from profile: %d lengths, %d slopes, %d curvature values: %w",
			len(lengths), len(slopes), len(curvature), ErrLengthMismatch,
		)
	}

	n := len(curvature)
	segments := make([]domain.Segment, n-1)
	s := make([]float64, n)
	z := make([]float64, n)
	k := make([]float64, n)

	for i := 0; i < n-1; i++ {
		length := math.Max(lengths[i], 0)
		segments[i] = domain.Segment{
			Length:     length,
			Horizontal: length * math.Cos(slopes[i]),
			Rise:       length * math.Sin(slopes[i]),
			Slope:      slopes[i],
		}
		s[i+1] = s[i] + length
		z[i+1] = z[i] + segments[i].Rise
	}
	for i, c := range curvature {
		k[i] = math.Abs(c)
	}

	g := &Geometry{
		Segments:  segments,
		Curvature: k,
		Distance:  s,
		Elevation: z,
	}
	g.assignSegmentCurvature()

	return g, nil
}

// Nodes returns the number of route nodes.
func (g *Geometry) Nodes() int { return len(g.Curvature) }

// TotalDistance returns the route arc length in metres.
func (g *Geometry) TotalDistance() float64 {
	if len(g.Distance) == 0 {
		return 0
	}
	return g.Distance[len(g.Distance)-1]
}

// Lengths returns the segment lengths as a fresh slice.
func (g *Geometry) Lengths() []float64 {
	out := make([]float64, len(g.Segments))
	for i, seg := range g.Segments {
		out[i] = seg.Length
	}
	return out
}

func (g *Geometry) assignSegmentCurvature() {
	for i := range g.Segments {
		g.Segments[i].Curvature = math.Max(g.Curvature[i], g.Curvature[i+1])
	}
}

// gradient differentiates samples f taken at non-uniform abscissae s.
// Interior nodes use the second-order three-point formula; the ends are one-sided.
func gradient(f, s []float64) []float64 {
	n := len(f)
	out := make([]float64, n)
	if n < 2 {
		return out
	}

	out[0] = (f[1] - f[0]) / math.Max(s[1]-s[0], spacingFloor)
	out[n-1] = (f[n-1] - f[n-2]) / math.Max(s[n-1]-s[n-2], spacingFloor)

	for i := 1; i < n-1; i++ {
		hs := math.Max(s[i]-s[i-1], spacingFloor)
		hd := math.Max(s[i+1]-s[i], spacingFloor)
		out[i] = (hs*hs*f[i+1] + (hd*hd-hs*hs)*f[i] - hd*hd*f[i-1]) / (hs * hd * (hd + hs))
	}

	return out
}
