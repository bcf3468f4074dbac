package services

import (
	"context"
	"errors"
	"fmt"
	"fuel-route-service/internal/domain"
	"math"

	"golang.org/x/sync/errgroup"
)

// Segments are timed at no less than this mean speed, m/s.
const minDurationSpeed = 0.1

// SegmentResult is the fuel accounting for one route segment.
type SegmentResult struct {
	Index        int
	Length       float64 // m
	AvgSpeed     float64 // m/s
	Duration     float64 // s
	Acceleration float64 // m/s², signed
	Forces       ForceBreakdown
	Point        OperatingPoint
	FuelKg       float64 // +Inf when Infeasible
	Infeasible   bool
}

// Evaluation is the outcome of integrating fuel along a speed profile.
type Evaluation struct {
	Speeds             domain.SpeedProfile
	Segments           []SegmentResult
	Ledger             domain.FuelLedger
	Feasible           bool
	InfeasibleSegments []int
	ClampEvents        int
}

// FuelIntegrator walks a route segment by segment and totals fuel and time.
//
// Gear selection for each segment is independent, so it is fanned out across at
// most workers goroutines. The ledger is then filled strictly in segment order.
type FuelIntegrator struct {
	powertrain *Powertrain
	workers    int
}

func NewFuelIntegrator(pt *Powertrain, workers int) *FuelIntegrator {
	if workers <= 0 {
		workers = 1
	}
	return &FuelIntegrator{powertrain: pt, workers: workers}
}

// Integrate evaluates speeds over g. Segments no gear can serve are flagged and
// carry +Inf fuel, so Ledger.FuelKg is finite only for a Feasible evaluation.
func (f *FuelIntegrator) Integrate(ctx context.Context, g *Geometry, speeds domain.SpeedProfile) (*Evaluation, error) {
	if len(speeds) != g.Nodes() {
		return nil, fmt.Errorf("integrate: %d speeds for %d nodes: %w", len(speeds), g.Nodes(), ErrLengthMismatch)
	}
	for i, v := range speeds {
		if math.IsNaN(v) || v < 0 {
			return nil, fmt.Errorf("integrate: node %d: invalid speed %v", i, v)
		}
	}

	results := make([]SegmentResult, len(g.Segments))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(f.workers)
	for i := range g.Segments {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			r, err := f.segment(i, g.Segments[i], speeds)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("integrate: %w", err)
	}

	ev := &Evaluation{
		Speeds:   speeds.Clone(),
		Segments: results,
		Feasible: true,
	}
	for _, r := range results {
		if err := ev.Ledger.Add(r.FuelKg, r.Duration); err != nil {
			return nil, fmt.Errorf("integrate: %w", err)
		}
		if r.Infeasible {
			ev.Feasible = false
			ev.InfeasibleSegments = append(ev.InfeasibleSegments, r.Index)
		}
		if r.Point.Clamped {
			ev.ClampEvents++
		}
	}

	return ev, nil
}

// segment costs one segment. Zero-length segments (duplicate fixes) pass through
// at no time or fuel; any speed change across them is not an acceleration.
func (f *FuelIntegrator) segment(i int, seg domain.Segment, speeds domain.SpeedProfile) (SegmentResult, error) {
	avg := speeds.Segment(i)
	r := SegmentResult{
		Index:    i,
		Length:   seg.Length,
		AvgSpeed: avg,
	}
	if seg.Length <= lengthFloor {
		r.Point = OperatingPoint{Idle: true, FuelRate: f.powertrain.FuelModel().IdleRate()}
		return r, nil
	}

	r.Duration = seg.Length / math.Max(avg, minDurationSpeed)
	r.Acceleration = ImpliedAcceleration(speeds[i], speeds[i+1], seg.Length)
	r.Forces = TractionForce(f.powertrain.Params(), r.Acceleration, avg, seg.Slope)

	point, err := f.powertrain.SelectGear(r.Forces.Total, avg)
	switch {
	case errors.Is(err, ErrGearInfeasible):
		r.Infeasible = true
		r.FuelKg = math.Inf(1)
		return r, nil
	case err != nil:
		return r, fmt.Errorf("segment %d: %w", i, err)
	}

	r.Point = point
	r.FuelKg = point.FuelRate * r.Duration
	return r, nil
}
