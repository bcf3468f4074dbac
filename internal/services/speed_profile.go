package services

import (
	"fmt"
	"fuel-route-service/internal/domain"
	"math"
)

// SolverOptions controls the speed profile relaxation.
//
// The default is one forward sweep followed by one backward sweep. With Iterate set,
// sweeps repeat until no node moves by more than Tolerance or MaxIterations is reached.
type SolverOptions struct {
	Iterate       bool
	MaxIterations int
	Tolerance     float64
}

// SpeedSolution is the relaxed profile together with the limits that shaped it.
type SpeedSolution struct {
	Speeds        domain.SpeedProfile
	Limits        []float64 // cornering limit per node
	SegmentLimits []float64 // cornering limit per segment, min of its two nodes
	Iterations    int       // forward+backward sweeps performed
	Converged     bool      // last sweep changed no node
}

// SpeedProfileSolver produces node speeds bounded by cornering grip and by
// straight-line acceleration and braking capability.
type SpeedProfileSolver struct {
	params domain.VehicleParameters
	opts   SolverOptions
}

func NewSpeedProfileSolver(params domain.VehicleParameters, opts SolverOptions) *SpeedProfileSolver {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 50
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = 1e-9
	}
	return &SpeedProfileSolver{params: params, opts: opts}
}

// Solve runs the relaxation on g. It is deterministic: equal inputs give equal profiles.
func (s *SpeedProfileSolver) Solve(g *Geometry) SpeedSolution {
	limits := NodeCorneringLimits(g, s.params)
	lengths := g.Lengths()

	v := make(domain.SpeedProfile, len(limits))
	for i, lim := range limits {
		v[i] = math.Min(lim, s.params.SpeedCap)
	}

	sweeps := 1
	if s.opts.Iterate {
		sweeps = s.opts.MaxIterations
	}

	sol := SpeedSolution{Speeds: v, Limits: limits, SegmentLimits: SegmentCorneringLimits(limits)}
	for sol.Iterations < sweeps {
		sol.Iterations++
		fwd := forwardPass(v, limits, lengths, s.params.MaxAcceleration)
		bwd := backwardPass(v, limits, lengths, s.params.MaxBraking)
		if math.Max(fwd, bwd) <= s.opts.Tolerance {
			sol.Converged = true
			break
		}
	}

	return sol
}

// forwardPass caps v[i+1] at what full acceleration from v[i] can reach over segment i.
// It returns the largest reduction applied to any node.
func forwardPass(v, limits, lengths []float64, aMax float64) float64 {
	var moved float64
	for i := 0; i < len(v)-1; i++ {
		reachable := math.Sqrt(v[i]*v[i] + 2*aMax*math.Max(lengths[i], lengthFloor))
		next := math.Min(v[i+1], math.Min(reachable, limits[i+1]))
		moved = math.Max(moved, v[i+1]-next)
		v[i+1] = next
	}
	return moved
}

// backwardPass caps v[i] so that full braking over segment i still reaches v[i+1].
func backwardPass(v, limits, lengths []float64, brake float64) float64 {
	var moved float64
	for i := len(v) - 2; i >= 0; i-- {
		brakeable := math.Sqrt(v[i+1]*v[i+1] + 2*brake*math.Max(lengths[i], lengthFloor))
		cur := math.Min(v[i], math.Min(brakeable, limits[i]))
		moved = math.Max(moved, v[i]-cur)
		v[i] = cur
	}
	return moved
}

// ImpliedAcceleration is the constant acceleration that takes v0 to v1 over length metres.
func ImpliedAcceleration(v0, v1, length float64) float64 {
	return (v1*v1 - v0*v0) / (2 * math.Max(length, lengthFloor))
}

// CheckFeasible reports the first node or pair violating cornering, acceleration or
// braking limits by more than tol. A nil error means the profile is feasible.
func CheckFeasible(g *Geometry, p domain.VehicleParameters, speeds domain.SpeedProfile, tol float64) error {
	if len(speeds) != g.Nodes() {
		return fmt.Errorf("check feasible: %d speeds for %d nodes: %w", len(speeds), g.Nodes(), ErrLengthMismatch)
	}

	limits := NodeCorneringLimits(g, p)
	for i, v := range speeds {
		if v < 0 || v > limits[i]+tol {
			return fmt.Errorf("check feasible: node %d speed %.4f outside [0, %.4f]", i, v, limits[i])
		}
	}

	for i, seg := range g.Segments {
		a := ImpliedAcceleration(speeds[i], speeds[i+1], seg.Length)
		if a > p.MaxAcceleration+tol {
			return fmt.Errorf("check feasible: segment %d acceleration %.4f exceeds %.4f", i, a, p.MaxAcceleration)
		}
		if -a > p.MaxBraking+tol {
			return fmt.Errorf("check feasible: segment %d deceleration %.4f exceeds %.4f", i, -a, p.MaxBraking)
		}
	}

	return nil
}
