package services

import (
	"context"
	"errors"
	"fuel-route-service/internal/adapters/elevation"
	"fuel-route-service/internal/adapters/repositories"
	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/platform/metrics"
	"fuel-route-service/internal/ports"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, false, c.err
	}
	b, ok := c.data[key]
	return b, ok, nil
}

func (c *mapCache) Put(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.data[key] = value
	return nil
}

// eastward returns n+1 points 0.001° of longitude apart near Edinburgh.
func eastward(n int) []domain.GeoPoint {
	pts := make([]domain.GeoPoint, n+1)
	for i := range pts {
		pts[i] = domain.GeoPoint{Lon: -3.2 + 0.001*float64(i), Lat: 55.95, Elevation: 50}
	}
	return pts
}

type evaluatorFixture struct {
	evaluator *Evaluator
	repo      *repositories.MemoryRouteRepository
	cache     *mapCache
	metrics   *metrics.Collector
}

func newEvaluatorFixture(t *testing.T) evaluatorFixture {
	t.Helper()

	repo := repositories.NewMemoryRouteRepository(domain.Route{ID: "east", Name: "East", Points: eastward(20)})
	col, err := metrics.NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)
	cache := newMapCache()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return evaluatorFixture{
		evaluator: &Evaluator{
			Routes:    repo,
			Store:     repo,
			Cache:     cache,
			Elevation: elevation.NewFlatElevation(120),
			Metrics:   col,
			Workers:   2,
			now:       func() time.Time { return created },
		},
		repo:    repo,
		cache:   cache,
		metrics: col,
	}
}

func TestEvaluateStoredRoute(t *testing.T) {
	f := newEvaluatorFixture(t)

	res, err := f.evaluator.Evaluate(context.Background(), EvaluateRequest{
		Route:   RouteInput{RouteID: "east"},
		Vehicle: domain.DefaultVehicleConfig(),
	})
	require.NoError(t, err)

	assert.Equal(t, "east", res.RouteID)
	assert.NotEmpty(t, res.ID)
	assert.False(t, res.Cached)
	assert.True(t, res.Evaluation.Feasible)
	assert.Len(t, res.Solution.Speeds, 21)
	assert.Greater(t, res.Evaluation.Ledger.FuelKg, 0.0)
	assert.InDelta(t, res.Summary.DistanceM, 20*62.6, 20)

	recs, err := f.repo.ListEvaluations(context.Background(), "east", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, res.ID, recs[0].ID)
	assert.Equal(t, res.Evaluation.Ledger.FuelKg, recs[0].FuelKg)
	assert.True(t, recs[0].Feasible)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), recs[0].CreatedAt)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Evaluations.WithLabelValues(metrics.OutcomeFeasible)))
}

func TestEvaluateServesRepeatFromCache(t *testing.T) {
	f := newEvaluatorFixture(t)
	req := EvaluateRequest{Route: RouteInput{RouteID: "east"}, Vehicle: domain.DefaultVehicleConfig()}

	first, err := f.evaluator.Evaluate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, f.cache.data, 1)

	second, err := f.evaluator.Evaluate(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Evaluation.Ledger, second.Evaluation.Ledger)
	assert.Equal(t, first.Solution.Speeds, second.Solution.Speeds)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Evaluations.WithLabelValues(metrics.OutcomeCached)))

	recs, err := f.repo.ListEvaluations(context.Background(), "east", 10)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestEvaluateDifferentVehicleMissesCache(t *testing.T) {
	f := newEvaluatorFixture(t)
	heavy := domain.DefaultVehicleConfig()
	heavy.Params.Mass = 2500

	_, err := f.evaluator.Evaluate(context.Background(), EvaluateRequest{Route: RouteInput{RouteID: "east"}, Vehicle: domain.DefaultVehicleConfig()})
	require.NoError(t, err)
	res, err := f.evaluator.Evaluate(context.Background(), EvaluateRequest{Route: RouteInput{RouteID: "east"}, Vehicle: heavy})
	require.NoError(t, err)

	assert.False(t, res.Cached)
	assert.Len(t, f.cache.data, 2)
}

func TestEvaluateCacheFailureIsNotFatal(t *testing.T) {
	f := newEvaluatorFixture(t)
	f.cache.err = errors.New("connection refused")

	res, err := f.evaluator.Evaluate(context.Background(), EvaluateRequest{Route: RouteInput{RouteID: "east"}, Vehicle: domain.DefaultVehicleConfig()})
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CacheLookups.WithLabelValues("error")))
}

func TestEvaluateInfeasibleRouteIsNotCached(t *testing.T) {
	f := newEvaluatorFixture(t)

	res, err := f.evaluator.Evaluate(context.Background(), EvaluateRequest{
		Route: RouteInput{Profile: &ProfileTable{
			Lengths:   []float64{200, 200},
			Slopes:    []float64{0, 0.5},
			Curvature: []float64{0, 0, 0},
		}},
		Vehicle: domain.DefaultVehicleConfig(),
	})
	require.NoError(t, err)

	assert.Equal(t, "inline", res.RouteID)
	assert.False(t, res.Evaluation.Feasible)
	assert.Equal(t, []int{1}, res.Evaluation.InfeasibleSegments)
	assert.Empty(t, f.cache.data)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Evaluations.WithLabelValues(metrics.OutcomeInfeasible)))
}

func TestEvaluateComparesStrategies(t *testing.T) {
	f := newEvaluatorFixture(t)

	res, err := f.evaluator.Evaluate(context.Background(), EvaluateRequest{
		Route:             RouteInput{Waypoints: straight(10, 100, 2)},
		Vehicle:           domain.DefaultVehicleConfig(),
		CompareStrategies: true,
		ConstantSpeed:     22,
	})
	require.NoError(t, err)

	require.Len(t, res.Strategies, 3)
	assert.Equal(t, "constant", res.Strategies[0].Name)
	assert.Equal(t, "grade_adaptive", res.Strategies[1].Name)
	assert.Equal(t, "relaxed", res.Strategies[2].Name)
	assert.Equal(t, domain.SpeedProfile(repeat(22, 11)), res.Strategies[0].Evaluation.Speeds)
	assert.Equal(t, res.Evaluation.Ledger, res.Strategies[2].Evaluation.Ledger)
}

func TestEvaluateFillsElevation(t *testing.T) {
	f := newEvaluatorFixture(t)
	f.evaluator.Elevation = elevation.NewMockElevation(func(lon, _ float64) (float64, bool) {
		return (lon + 3.2) * 1e4, true
	})

	res, err := f.evaluator.Evaluate(context.Background(), EvaluateRequest{
		Route:   RouteInput{Points: eastward(10), FillElevation: true},
		Vehicle: domain.DefaultVehicleConfig(),
	})
	require.NoError(t, err)
	assert.InDelta(t, 100.0, res.Summary.MaxElevationM-res.Summary.MinElevationM, 1e-6)
	assert.Greater(t, res.Summary.MinGradePct, 0.0)
}

func TestFillElevationKeepsUnresolvedPoints(t *testing.T) {
	provider := elevation.NewMockElevation(func(lon, _ float64) (float64, bool) {
		return 999, lon > -3.1995
	})

	out, err := FillElevation(context.Background(), provider, eastward(2))
	require.NoError(t, err)
	assert.Equal(t, 50.0, out[0].Elevation)
	assert.Equal(t, 999.0, out[1].Elevation)
	assert.Equal(t, 999.0, out[2].Elevation)
}

func TestEvaluateRouteErrors(t *testing.T) {
	f := newEvaluatorFixture(t)
	vehicle := domain.DefaultVehicleConfig()

	_, err := f.evaluator.Evaluate(context.Background(), EvaluateRequest{Route: RouteInput{RouteID: "nowhere"}, Vehicle: vehicle})
	assert.ErrorIs(t, err, ports.ErrRouteNotFound)
	assert.False(t, IsClientError(err))

	_, err = f.evaluator.Evaluate(context.Background(), EvaluateRequest{
		Route:   RouteInput{RouteID: "east", Waypoints: straight(2, 10, 0)},
		Vehicle: vehicle,
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.True(t, IsClientError(err))

	_, err = f.evaluator.Evaluate(context.Background(), EvaluateRequest{Vehicle: vehicle})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.evaluator.Evaluate(context.Background(), EvaluateRequest{
		Route:   RouteInput{Waypoints: straight(1, 10, 0)[:1]},
		Vehicle: vehicle,
	})
	assert.ErrorIs(t, err, ErrTooFewWaypoints)
	assert.True(t, IsClientError(err))

	bad := domain.DefaultVehicleConfig()
	bad.Params.Mass = -1
	_, err = f.evaluator.Evaluate(context.Background(), EvaluateRequest{Route: RouteInput{RouteID: "east"}, Vehicle: bad})
	assert.ErrorIs(t, err, domain.ErrInvalidVehicle)
	assert.True(t, IsClientError(err))

	f.evaluator.Elevation = nil
	_, err = f.evaluator.Evaluate(context.Background(), EvaluateRequest{
		Route:   RouteInput{Points: eastward(3), FillElevation: true},
		Vehicle: vehicle,
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestEvaluateWithoutRepository(t *testing.T) {
	e := &Evaluator{}
	_, err := e.Evaluate(context.Background(), EvaluateRequest{Route: RouteInput{RouteID: "east"}, Vehicle: domain.DefaultVehicleConfig()})
	assert.ErrorIs(t, err, ports.ErrRouteNotFound)

	res, err := e.Evaluate(context.Background(), EvaluateRequest{
		Route:   RouteInput{Waypoints: straight(5, 50, 0)},
		Vehicle: domain.DefaultVehicleConfig(),
	})
	require.NoError(t, err)
	assert.True(t, res.Evaluation.Feasible)
}

func TestOptimizeStoredRoute(t *testing.T) {
	f := newEvaluatorFixture(t)

	res, err := f.evaluator.Optimize(context.Background(), OptimizeRequest{
		Route:   RouteInput{RouteID: "east"},
		Vehicle: domain.DefaultVehicleConfig(),
	})
	require.NoError(t, err)

	assert.Equal(t, "east", res.RouteID)
	assert.NotEmpty(t, res.ID)
	require.Len(t, res.Result.Speeds, 21)
	assert.Equal(t, res.Result.Speeds, res.Evaluation.Speeds)
	for _, v := range res.Result.Speeds {
		assert.GreaterOrEqual(t, v, 10.0)
		assert.LessOrEqual(t, v, 30.0)
	}
	assert.Equal(t, 1, testutil.CollectAndCount(f.metrics.OptimizerRuns))
}

func TestOptimizeRejectsInvalidBounds(t *testing.T) {
	f := newEvaluatorFixture(t)

	_, err := f.evaluator.Optimize(context.Background(), OptimizeRequest{
		Route:   RouteInput{RouteID: "east"},
		Vehicle: domain.DefaultVehicleConfig(),
		Options: OptimizerOptions{MinSpeed: 30, MaxSpeed: 10},
	})
	assert.ErrorIs(t, err, ErrInvalidBounds)
	assert.True(t, IsClientError(err))
}
