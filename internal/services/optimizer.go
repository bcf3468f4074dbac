package services

import (
	"context"
	"fmt"
	"fuel-route-service/internal/domain"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"
)

// Optimizer status values.
const (
	StatusConverged      = "converged"
	StatusIterationLimit = "iteration limit reached"
	StatusInfeasible     = "constraints violated"
	StatusSolverFailure  = "solver stopped early"
)

const (
	defaultOptimizerBSFC = 250.0
	// Keeps the starting guess off the asymptotes of the logistic map.
	sigmoidEdge = 1e-6
	// Penalty weight grows by penaltyGrowth whenever a round fails to cut the
	// violation to penaltyShrinkRequired of the previous one.
	penaltyGrowth         = 10.0
	penaltyShrinkRequired = 0.25
)

// OptimizerOptions configures the continuous speed optimizer. Zero fields take defaults.
type OptimizerOptions struct {
	MinSpeed        float64 // m/s, default 10
	MaxSpeed        float64 // m/s, default 30
	MaxAccel        float64 // m/s², bound on |acceleration| between nodes, default 0.5
	InitialSpeed    float64 // m/s, uniform starting guess, default 20
	BSFC            float64 // g/kWh, constant specific consumption, default 250
	MaxIterations   int     // inner quasi-Newton iterations per round, default 100
	OuterIterations int     // multiplier update rounds, default 10
	Tolerance       float64 // acceptable constraint violation, m/s², default 1e-4
}

func (o OptimizerOptions) withDefaults() OptimizerOptions {
	if o.MinSpeed == 0 && o.MaxSpeed == 0 {
		o.MinSpeed, o.MaxSpeed = 10, 30
	}
	if o.MaxAccel <= 0 {
		o.MaxAccel = 0.5
	}
	if o.InitialSpeed <= 0 {
		o.InitialSpeed = 20
	}
	if o.BSFC <= 0 {
		o.BSFC = defaultOptimizerBSFC
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = 100
	}
	if o.OuterIterations <= 0 {
		o.OuterIterations = 10
	}
	if o.Tolerance <= 0 {
		o.Tolerance = 1e-4
	}
	return o
}

// OptimizationResult is the best profile found. It is a confirmed optimum only
// when Converged is true; otherwise check MaxViolation before relying on it.
type OptimizationResult struct {
	Speeds       domain.SpeedProfile
	FuelKg       float64
	TimeS        float64
	Converged    bool
	Status       string
	Iterations   int
	MaxViolation float64 // largest |acceleration| excess over MaxAccel, m/s²
}

// Err returns ErrNonConvergent for results that are not confirmed optima.
func (r OptimizationResult) Err() error {
	if r.Converged {
		return nil
	}
	return fmt.Errorf("optimize speeds: %s, max violation %.3g: %w", r.Status, r.MaxViolation, ErrNonConvergent)
}

// ContinuousOptimizer chooses every node speed at once to minimize a simplified
// fuel objective: steady-state drag, rolling and grade forces at each segment's
// mean speed, burned at a constant specific consumption.
//
// Speed bounds are enforced by a logistic change of variables. Acceleration limits
// are handled by an augmented Lagrangian whose subproblems go to L-BFGS.
type ContinuousOptimizer struct {
	params domain.VehicleParameters
	opts   OptimizerOptions
}

func NewContinuousOptimizer(params domain.VehicleParameters, opts OptimizerOptions) (*ContinuousOptimizer, error) {
	opts = opts.withDefaults()
	if !(opts.MinSpeed >= 0 && opts.MaxSpeed > opts.MinSpeed) {
		return nil, fmt.Errorf("new optimizer: speeds [%v, %v]: %w", opts.MinSpeed, opts.MaxSpeed, ErrInvalidBounds)
	}
	return &ContinuousOptimizer{params: params, opts: opts}, nil
}

// Options returns the effective options after defaults.
func (o *ContinuousOptimizer) Options() OptimizerOptions { return o.opts }

// SegmentFuel is the simplified objective for one segment between speeds v0 and v1.
func (o *ContinuousOptimizer) SegmentFuel(seg domain.Segment, v0, v1 float64) float64 {
	avg := 0.5 * (v0 + v1)
	duration := seg.Length / math.Max(avg, minDurationSpeed)
	force := ResistiveForce(o.params, avg, seg.Slope)
	power := force * avg
	if power <= 0 {
		return o.params.IdleFuelRate * duration
	}
	return power * o.opts.BSFC * bsfcToKgPerJoule * duration
}

// Fuel totals the simplified objective and elapsed time over speeds.
// Zero-length segments are skipped.
func (o *ContinuousOptimizer) Fuel(g *Geometry, speeds []float64) (fuelKg, timeS float64) {
	for i, seg := range g.Segments {
		if seg.Length <= lengthFloor {
			continue
		}
		fuelKg += o.SegmentFuel(seg, speeds[i], speeds[i+1])
		timeS += seg.Length / math.Max(domain.SpeedProfile(speeds).Segment(i), minDurationSpeed)
	}
	return fuelKg, timeS
}

// MaxViolation returns the largest amount by which any segment's implied
// acceleration magnitude exceeds MaxAccel, or 0 when all are within it.
func (o *ContinuousOptimizer) MaxViolation(g *Geometry, speeds []float64) float64 {
	var worst float64
	for i, seg := range g.Segments {
		if seg.Length <= lengthFloor {
			continue
		}
		a := ImpliedAcceleration(speeds[i], speeds[i+1], seg.Length)
		worst = math.Max(worst, math.Abs(a)-o.opts.MaxAccel)
	}
	return worst
}

// Optimize runs the solver on g. Context cancellation stops it between rounds and
// returns the best profile so far together with ctx.Err().
func (o *ContinuousOptimizer) Optimize(ctx context.Context, g *Geometry) (OptimizationResult, error) {
	n := g.Nodes()
	lo, hi := o.opts.MinSpeed, o.opts.MaxSpeed

	toSpeed := func(u, v []float64) {
		for i := range u {
			v[i] = lo + (hi-lo)*sigmoid(u[i])
		}
	}

	u := make([]float64, n)
	frac := math.Min(math.Max((o.opts.InitialSpeed-lo)/(hi-lo), sigmoidEdge), 1-sigmoidEdge)
	for i := range u {
		u[i] = math.Log(frac / (1 - frac))
	}

	v := make([]float64, n)
	toSpeed(u, v)
	scale, _ := o.Fuel(g, v)
	if scale <= 0 {
		scale = 1
	}

	// Two multipliers per segment: a - aMax <= 0 and -a - aMax <= 0.
	lambda := make([]float64, 2*len(g.Segments))
	rho := 10.0
	lastViolation := math.Inf(1)

	res := OptimizationResult{Status: StatusIterationLimit}
	innerConverged := false

	for round := 0; round < o.opts.OuterIterations; round++ {
		if err := ctx.Err(); err != nil {
			return o.finish(g, u, toSpeed, res), err
		}

		obj := o.lagrangian(g, lambda, rho, scale, toSpeed)
		settings := &optimize.Settings{
			MajorIterations:   o.opts.MaxIterations,
			GradientThreshold: 1e-8,
		}
		run, err := optimize.Minimize(obj, u, settings, &optimize.LBFGS{})
		if run == nil {
			return o.finish(g, u, toSpeed, res), fmt.Errorf("optimize speeds: %w", err)
		}
		copy(u, run.X)
		res.Iterations += run.Stats.MajorIterations
		innerConverged = err == nil && run.Status != optimize.IterationLimit
		if err != nil && run.Status != optimize.IterationLimit {
			res.Status = StatusSolverFailure
		}

		toSpeed(u, v)
		violation := o.MaxViolation(g, v)
		if violation <= o.opts.Tolerance && innerConverged {
			res.Converged = true
			res.Status = StatusConverged
			break
		}

		for i, seg := range g.Segments {
			if seg.Length <= lengthFloor {
				continue
			}
			a := ImpliedAcceleration(v[i], v[i+1], seg.Length)
			lambda[2*i] = math.Max(0, lambda[2*i]+rho*(a-o.opts.MaxAccel))
			lambda[2*i+1] = math.Max(0, lambda[2*i+1]+rho*(-a-o.opts.MaxAccel))
		}
		if violation > penaltyShrinkRequired*lastViolation {
			rho *= penaltyGrowth
		}
		lastViolation = violation
	}

	if !res.Converged && res.Status != StatusSolverFailure {
		toSpeed(u, v)
		if o.MaxViolation(g, v) > o.opts.Tolerance {
			res.Status = StatusInfeasible
		} else {
			res.Status = StatusIterationLimit
		}
	}

	return o.finish(g, u, toSpeed, res), nil
}

func (o *ContinuousOptimizer) finish(g *Geometry, u []float64, toSpeed func(u, v []float64), res OptimizationResult) OptimizationResult {
	v := make([]float64, len(u))
	toSpeed(u, v)
	res.Speeds = v
	res.FuelKg, res.TimeS = o.Fuel(g, v)
	res.MaxViolation = o.MaxViolation(g, v)
	return res
}

// lagrangian builds the augmented Lagrangian subproblem in the unbounded variables u.
// The fuel term is divided by scale so penalties and objective share a magnitude.
func (o *ContinuousOptimizer) lagrangian(g *Geometry, lambda []float64, rho, scale float64, toSpeed func(u, v []float64)) optimize.Problem {
	n := g.Nodes()
	lo, hi := o.opts.MinSpeed, o.opts.MaxSpeed
	aMax := o.opts.MaxAccel
	fdSettings := &fd.Settings{Formula: fd.Central, Step: 1e-6}

	// penalty is the inequality term for constraint c <= 0 with multiplier l.
	penalty := func(c, l float64) float64 {
		t := math.Max(0, l+rho*c)
		return (t*t - l*l) / (2 * rho)
	}

	segmentValue := func(i int, v0, v1 float64) float64 {
		seg := g.Segments[i]
		a := ImpliedAcceleration(v0, v1, seg.Length)
		return o.SegmentFuel(seg, v0, v1)/scale +
			penalty(a-aMax, lambda[2*i]) + penalty(-a-aMax, lambda[2*i+1])
	}

	v := make([]float64, n)
	pair := make([]float64, 2)
	pairGrad := make([]float64, 2)

	return optimize.Problem{
		Func: func(u []float64) float64 {
			toSpeed(u, v)
			var total float64
			for i, seg := range g.Segments {
				if seg.Length <= lengthFloor {
					continue
				}
				total += segmentValue(i, v[i], v[i+1])
			}
			return total
		},
		Grad: func(grad, u []float64) {
			toSpeed(u, v)
			for i := range grad {
				grad[i] = 0
			}
			for i, seg := range g.Segments {
				if seg.Length <= lengthFloor {
					continue
				}
				pair[0], pair[1] = v[i], v[i+1]
				fd.Gradient(pairGrad, func(x []float64) float64 {
					return segmentValue(i, x[0], x[1])
				}, pair, fdSettings)
				grad[i] += pairGrad[0]
				grad[i+1] += pairGrad[1]
			}
			for i := range grad {
				s := sigmoid(u[i])
				grad[i] *= (hi - lo) * s * (1 - s)
			}
		},
	}
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }
