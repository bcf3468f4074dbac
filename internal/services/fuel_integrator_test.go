package services

import (
	"context"
	"fuel-route-service/internal/domain"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIntegrator(t *testing.T, workers int) *FuelIntegrator {
	t.Helper()
	return NewFuelIntegrator(mustPowertrain(t, domain.DefaultVehicleConfig()), workers)
}

func TestIntegrateFlatCruise(t *testing.T) {
	g := mustGeometry(t, straight(10, 100, 0))
	speeds := ConstantSpeedProfile(g, 25)

	ev, err := newIntegrator(t, 4).Integrate(context.Background(), g, speeds)
	require.NoError(t, err)

	assert.True(t, ev.Feasible)
	assert.Empty(t, ev.InfeasibleSegments)
	assert.Equal(t, 10, ev.Ledger.Segments)
	assert.InDelta(t, 40.0, ev.Ledger.TimeS, 1e-9)
	assert.Greater(t, ev.Ledger.FuelKg, 0.0)
	assert.False(t, math.IsInf(ev.Ledger.FuelKg, 0))

	for _, seg := range ev.Segments {
		assert.NotZero(t, seg.Point.Gear)
		assert.Zero(t, seg.Acceleration)
		assert.InDelta(t, seg.Point.FuelRate*4, seg.FuelKg, 1e-15)
	}
}

func TestIntegrateBrakingSegmentBurnsIdleFuel(t *testing.T) {
	g := mustGeometry(t, straight(1, 100, 0))

	ev, err := newIntegrator(t, 1).Integrate(context.Background(), g, domain.SpeedProfile{20, 10})
	require.NoError(t, err)

	seg := ev.Segments[0]
	require.Less(t, seg.Forces.Total, 0.0)
	assert.True(t, seg.Point.Idle)
	assert.Equal(t, 0.0001*(100/15.0), seg.FuelKg)
	assert.Equal(t, seg.FuelKg, ev.Ledger.FuelKg)
}

func TestIntegrateInfeasibleSegmentIsFlagged(t *testing.T) {
	g := mustProfile(t, []float64{100, 100, 100}, []float64{0, 0.5, 0}, repeat(0, 4))

	ev, err := newIntegrator(t, 2).Integrate(context.Background(), g, domain.SpeedProfile{20, 20, 20, 20})
	require.NoError(t, err)

	assert.False(t, ev.Feasible)
	assert.Equal(t, []int{1}, ev.InfeasibleSegments)
	assert.True(t, ev.Segments[1].Infeasible)
	assert.True(t, math.IsInf(ev.Segments[1].FuelKg, 1))
	assert.True(t, math.IsInf(ev.Ledger.FuelKg, 1), "an infeasible route never reports a finite total")
	assert.False(t, math.IsInf(ev.Segments[0].FuelKg, 0))
}

func TestIntegrateZeroSegmentRoute(t *testing.T) {
	g := mustProfile(t, nil, nil, []float64{0})

	ev, err := newIntegrator(t, 1).Integrate(context.Background(), g, domain.SpeedProfile{12})
	require.NoError(t, err)

	assert.True(t, ev.Feasible)
	assert.Zero(t, ev.Ledger.FuelKg)
	assert.Zero(t, ev.Ledger.TimeS)
}

func TestIntegrateLedgerIsMonotonic(t *testing.T) {
	g := windingRoute(t)
	sol := NewSpeedProfileSolver(domain.DefaultVehicle(), SolverOptions{}).Solve(g)

	ev, err := newIntegrator(t, 3).Integrate(context.Background(), g, sol.Speeds)
	require.NoError(t, err)

	var ledger domain.FuelLedger
	for _, seg := range ev.Segments {
		prevFuel, prevTime := ledger.FuelKg, ledger.TimeS
		require.NoError(t, ledger.Add(seg.FuelKg, seg.Duration))
		assert.GreaterOrEqual(t, ledger.FuelKg, prevFuel)
		assert.GreaterOrEqual(t, ledger.TimeS, prevTime)
	}
	assert.Equal(t, ledger, ev.Ledger)
}

func TestIntegrateZeroLengthSegment(t *testing.T) {
	g := mustProfile(t, []float64{100, 0, 100}, repeat(0, 3), repeat(0, 4))

	ev, err := newIntegrator(t, 1).Integrate(context.Background(), g, domain.SpeedProfile{15, 15, 15, 15})
	require.NoError(t, err)

	assert.Zero(t, ev.Segments[1].Duration)
	assert.Zero(t, ev.Segments[1].FuelKg)
	assert.True(t, ev.Feasible)
}

func TestIntegrateZeroLengthSegmentWithSpeedJump(t *testing.T) {
	g := mustProfile(t, []float64{100, 0, 100}, repeat(0, 3), repeat(0, 4))

	ev, err := newIntegrator(t, 1).Integrate(context.Background(), g, domain.SpeedProfile{12, 12, 24, 24})
	require.NoError(t, err)

	seg := ev.Segments[1]
	assert.True(t, ev.Feasible)
	assert.False(t, seg.Infeasible)
	assert.Zero(t, seg.Acceleration)
	assert.Zero(t, seg.Duration)
	assert.Zero(t, seg.FuelKg)
	assert.True(t, seg.Point.Idle)
	assert.InDelta(t, 18.0, seg.AvgSpeed, 1e-12)
	assert.False(t, math.IsInf(ev.Ledger.FuelKg, 0))
}

func TestIntegrateDuplicateWaypointUnderGradeAdaptive(t *testing.T) {
	// 10% climb, a repeated fix at node 10, then flat road.
	w := straight(10, 100, 10)
	last := w[len(w)-1]
	w = append(w, last)
	for i := 1; i <= 10; i++ {
		w = append(w, domain.Waypoint{X: last.X + float64(i)*100, Z: last.Z})
	}
	g := mustGeometry(t, w)
	require.Zero(t, g.Segments[10].Length)

	speeds := GradeAdaptiveProfile(g, GradeAdaptiveOptions{})
	require.NotEqual(t, speeds[10], speeds[11])

	ev, err := newIntegrator(t, 2).Integrate(context.Background(), g, speeds)
	require.NoError(t, err)
	assert.True(t, ev.Feasible, "infeasible segments %v", ev.InfeasibleSegments)
	assert.Zero(t, ev.Segments[10].FuelKg)
}

func TestIntegrateOptimizedProfileAcrossZeroLengthSegment(t *testing.T) {
	lengths := append(append(repeat(100, 5), 0), repeat(100, 5)...)
	g := mustProfile(t, lengths, repeat(0, 11), repeat(0, 12))

	// A jump across the zero-length segment is unconstrained for the optimizer.
	speeds := domain.SpeedProfile(append(repeat(10, 6), repeat(30, 6)...))
	o := newOptimizer(t, OptimizerOptions{})
	assert.Zero(t, o.MaxViolation(g, speeds))

	ev, err := newIntegrator(t, 2).Integrate(context.Background(), g, speeds)
	require.NoError(t, err)
	assert.True(t, ev.Feasible)
	assert.Empty(t, ev.InfeasibleSegments)
}

func TestIntegrateWorkerCountDoesNotChangeResult(t *testing.T) {
	g := windingRoute(t)
	sol := NewSpeedProfileSolver(domain.DefaultVehicle(), SolverOptions{}).Solve(g)

	serial, err := newIntegrator(t, 1).Integrate(context.Background(), g, sol.Speeds)
	require.NoError(t, err)
	parallel, err := newIntegrator(t, 8).Integrate(context.Background(), g, sol.Speeds)
	require.NoError(t, err)

	assert.Equal(t, serial, parallel)
}

func TestIntegrateCountsClampEvents(t *testing.T) {
	g := mustGeometry(t, straight(5, 50, 0))

	ev, err := newIntegrator(t, 2).Integrate(context.Background(), g, ConstantSpeedProfile(g, 1))
	require.NoError(t, err)
	assert.Equal(t, 5, ev.ClampEvents)
}

func TestIntegrateRejectsBadInput(t *testing.T) {
	g := mustGeometry(t, straight(2, 50, 0))
	in := newIntegrator(t, 1)

	_, err := in.Integrate(context.Background(), g, domain.SpeedProfile{1, 2})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = in.Integrate(context.Background(), g, domain.SpeedProfile{1, -2, 3})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = in.Integrate(ctx, g, domain.SpeedProfile{1, 2, 3})
	assert.ErrorIs(t, err, context.Canceled)
}
