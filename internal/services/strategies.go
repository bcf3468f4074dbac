package services

import (
	"context"
	"fmt"
	"fuel-route-service/internal/domain"
	"math"
)

// ConstantSpeedProfile holds every node at speed.
func ConstantSpeedProfile(g *Geometry, speed float64) domain.SpeedProfile {
	v := make(domain.SpeedProfile, g.Nodes())
	for i := range v {
		v[i] = speed
	}
	return v
}

// GradeAdaptiveOptions tunes the grade-following heuristic. Zero fields take defaults.
type GradeAdaptiveOptions struct {
	Base           float64 // m/s on moderate terrain, default 20
	Threshold      float64 // grade %, default 5
	ClimbSlope     float64 // m/s shed per % of climb, default 0.5
	ClimbFloor     float64 // m/s, default 15
	DescentSlope   float64 // m/s gained per % of descent, default 0.3
	DescentCeiling float64 // m/s, default 25
	Sigma          float64 // Gaussian smoothing width in nodes, default 2
}

func (o GradeAdaptiveOptions) withDefaults() GradeAdaptiveOptions {
	if o.Base <= 0 {
		o.Base = 20
	}
	if o.Threshold <= 0 {
		o.Threshold = 5
	}
	if o.ClimbSlope <= 0 {
		o.ClimbSlope = 0.5
	}
	if o.ClimbFloor <= 0 {
		o.ClimbFloor = 15
	}
	if o.DescentSlope <= 0 {
		o.DescentSlope = 0.3
	}
	if o.DescentCeiling <= 0 {
		o.DescentCeiling = 25
	}
	if o.Sigma <= 0 {
		o.Sigma = 2
	}
	return o
}

// GradeAdaptiveProfile slows on steep climbs and speeds up on steep descents,
// then smooths the result. Node i takes the grade of the segment leaving it;
// the final node repeats the last segment.
func GradeAdaptiveProfile(g *Geometry, opts GradeAdaptiveOptions) domain.SpeedProfile {
	opts = opts.withDefaults()

	v := make([]float64, g.Nodes())
	for i := range v {
		var grade float64
		if len(g.Segments) > 0 {
			grade = g.Segments[min(i, len(g.Segments)-1)].GradePercent()
		}

		switch {
		case grade > opts.Threshold:
			v[i] = math.Max(opts.ClimbFloor, opts.Base-opts.ClimbSlope*grade)
		case grade < -opts.Threshold:
			v[i] = math.Min(opts.DescentCeiling, opts.Base-opts.DescentSlope*grade)
		default:
			v[i] = opts.Base
		}
	}

	return domain.SpeedProfile(gaussianSmooth(v, opts.Sigma))
}

// gaussianSmooth convolves x with a normalized Gaussian truncated at 4 sigma,
// mirroring samples about the array edges.
func gaussianSmooth(x []float64, sigma float64) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}

	radius := int(4*sigma + 0.5)
	weights := make([]float64, 2*radius+1)
	var sum float64
	for k := -radius; k <= radius; k++ {
		w := math.Exp(-0.5 * float64(k*k) / (sigma * sigma))
		weights[k+radius] = w
		sum += w
	}
	for k := range weights {
		weights[k] /= sum
	}

	out := make([]float64, n)
	for i := range x {
		var acc float64
		for k := -radius; k <= radius; k++ {
			acc += weights[k+radius] * x[reflectIndex(i+k, n)]
		}
		out[i] = acc
	}
	return out
}

// reflectIndex maps j into [0, n) as d c b a | a b c d | d c b a.
func reflectIndex(j, n int) int {
	period := 2 * n
	j %= period
	if j < 0 {
		j += period
	}
	if j >= n {
		j = period - 1 - j
	}
	return j
}

// Strategy is a named speed profile to be compared against others.
type Strategy struct {
	Name   string
	Speeds domain.SpeedProfile
}

// StrategyResult is one strategy's evaluation. SavingsPct is relative to the
// first strategy compared and is NaN when either total is not finite or positive.
type StrategyResult struct {
	Name       string
	Evaluation *Evaluation
	SavingsPct float64
}

// CompareStrategies integrates fuel for each strategy over g in order.
func CompareStrategies(ctx context.Context, integrator *FuelIntegrator, g *Geometry, strategies []Strategy) ([]StrategyResult, error) {
	out := make([]StrategyResult, 0, len(strategies))
	for _, s := range strategies {
		ev, err := integrator.Integrate(ctx, g, s.Speeds)
		if err != nil {
			return nil, fmt.Errorf("compare strategies: %s: %w", s.Name, err)
		}
		out = append(out, StrategyResult{Name: s.Name, Evaluation: ev})
	}

	if len(out) == 0 {
		return out, nil
	}
	baseline := out[0].Evaluation.Ledger.FuelKg
	for i := range out {
		fuel := out[i].Evaluation.Ledger.FuelKg
		if baseline > 0 && !math.IsInf(baseline, 0) && !math.IsInf(fuel, 0) {
			out[i].SavingsPct = (baseline - fuel) / baseline * 100
		} else {
			out[i].SavingsPct = math.NaN()
		}
	}
	return out, nil
}
