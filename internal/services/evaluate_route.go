package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/platform/metrics"
	"fuel-route-service/internal/platform/obs"
	"fuel-route-service/internal/ports"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("fuel-route-service/services")

// ProfileTable is a route whose segment lengths, slopes and node curvature were
// derived upstream.
type ProfileTable struct {
	Lengths   []float64
	Slopes    []float64
	Curvature []float64
}

// RouteInput names the route to evaluate. Exactly one of RouteID, Points,
// Waypoints or Profile must be set.
type RouteInput struct {
	RouteID   string
	Points    []domain.GeoPoint
	Waypoints []domain.Waypoint
	Profile   *ProfileTable

	// FillElevation replaces point elevations with values from the elevation provider.
	FillElevation bool
}

type EvaluateRequest struct {
	Route   RouteInput
	Vehicle domain.VehicleConfig
	Solver  SolverOptions

	// CompareStrategies also evaluates a constant-speed and a grade-adaptive profile.
	CompareStrategies bool
	ConstantSpeed     float64 // m/s, default 25
	GradeAdaptive     GradeAdaptiveOptions
}

type EvaluateResult struct {
	ID         string
	RouteID    string
	Solution   SpeedSolution
	Evaluation *Evaluation
	Summary    RouteSummary
	Strategies []StrategyResult
	Cached     bool
}

type OptimizeRequest struct {
	Route   RouteInput
	Vehicle domain.VehicleConfig
	Options OptimizerOptions
}

// OptimizeResult pairs the optimizer output with a full powertrain evaluation of
// the optimized profile.
type OptimizeResult struct {
	ID         string
	RouteID    string
	Result     OptimizationResult
	Evaluation *Evaluation
}

// Evaluator loads routes, runs the fuel pipeline and records the outcome.
// Routes is required when requests refer to stored routes; the other
// collaborators are optional.
type Evaluator struct {
	Routes    ports.RouteRepository
	Store     ports.EvaluationStore
	Cache     ports.EvaluationCache
	Elevation ports.ElevationProvider
	Metrics   *metrics.Collector
	Workers   int

	now func() time.Time
}

func (e *Evaluator) clock() time.Time {
	if e.now != nil {
		return e.now()
	}
	return time.Now()
}

// Evaluate solves the speed profile of a route and integrates its fuel use.
// An infeasible route is a successful evaluation with Feasible unset.
func (e *Evaluator) Evaluate(ctx context.Context, req EvaluateRequest) (_ *EvaluateResult, err error) {
	ctx, span := tracer.Start(ctx, "services.Evaluate")
	defer endSpan(span, &err)
	defer obs.Time(ctx, "services.Evaluate")(&err)

	start := time.Now()
	src, err := e.resolveRoute(ctx, req.Route)
	if err != nil {
		e.Metrics.ObserveEvaluation(metrics.OutcomeError, time.Since(start).Seconds(), 0, 0)
		return nil, fmt.Errorf("evaluate route: %w", err)
	}
	span.SetAttributes(attribute.String("route.id", src.routeID), attribute.Int("route.nodes", src.geometry.Nodes()))

	key, err := cacheKey("evaluate", src.material, req.Vehicle, req.Solver, req.CompareStrategies, req.ConstantSpeed, req.GradeAdaptive)
	if err != nil {
		return nil, fmt.Errorf("evaluate route: %w", err)
	}
	if cached, ok := e.cachedEvaluation(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		e.Metrics.ObserveEvaluation(metrics.OutcomeCached, 0, 0, 0)
		return cached, nil
	}

	res, err := e.evaluate(ctx, src, req)
	if err != nil {
		e.Metrics.ObserveEvaluation(metrics.OutcomeError, time.Since(start).Seconds(), 0, 0)
		return nil, fmt.Errorf("evaluate route: %w", err)
	}

	ev := res.Evaluation
	outcome := metrics.OutcomeFeasible
	if !ev.Feasible {
		outcome = metrics.OutcomeInfeasible
		log.Printf("req_id=%s op=services.Evaluate route=%s infeasible_segments=%d first=%d",
			obs.RequestID(ctx), src.routeID, len(ev.InfeasibleSegments), ev.InfeasibleSegments[0])
	}
	if ev.ClampEvents > 0 {
		log.Printf("req_id=%s op=services.Evaluate route=%s envelope_clamp_events=%d",
			obs.RequestID(ctx), src.routeID, ev.ClampEvents)
	}
	e.Metrics.ObserveEvaluation(outcome, time.Since(start).Seconds(), len(ev.InfeasibleSegments), ev.ClampEvents)
	span.SetAttributes(
		attribute.Bool("evaluation.feasible", ev.Feasible),
		attribute.Int("evaluation.clamp_events", ev.ClampEvents),
	)

	e.save(ctx, domain.EvaluationRecord{
		ID:          res.ID,
		RouteID:     src.routeID,
		FuelKg:      ev.Ledger.FuelKg,
		TimeS:       ev.Ledger.TimeS,
		DistanceM:   src.geometry.TotalDistance(),
		Feasible:    ev.Feasible,
		Infeasible:  len(ev.InfeasibleSegments),
		ClampEvents: ev.ClampEvents,
		CreatedAt:   e.clock(),
	})

	if ev.Feasible {
		e.putCache(ctx, key, res)
	}

	return res, nil
}

func (e *Evaluator) evaluate(ctx context.Context, src routeSource, req EvaluateRequest) (*EvaluateResult, error) {
	pt, err := NewPowertrain(req.Vehicle)
	if err != nil {
		return nil, err
	}

	g := src.geometry
	sol := NewSpeedProfileSolver(req.Vehicle.Params, req.Solver).Solve(g)
	integrator := NewFuelIntegrator(pt, e.Workers)

	ev, err := integrator.Integrate(ctx, g, sol.Speeds)
	if err != nil {
		return nil, err
	}

	res := &EvaluateResult{
		ID:         uuid.NewString(),
		RouteID:    src.routeID,
		Solution:   sol,
		Evaluation: ev,
		Summary:    SummarizeRoute(g, req.Vehicle.Params, sol.Speeds.Mean()),
	}

	if req.CompareStrategies {
		constant := req.ConstantSpeed
		if constant <= 0 {
			constant = 25
		}
		res.Strategies, err = CompareStrategies(ctx, integrator, g, []Strategy{
			{Name: "constant", Speeds: ConstantSpeedProfile(g, constant)},
			{Name: "grade_adaptive", Speeds: GradeAdaptiveProfile(g, req.GradeAdaptive)},
			{Name: "relaxed", Speeds: sol.Speeds},
		})
		if err != nil {
			return nil, err
		}
	}

	return res, nil
}

// Optimize runs the continuous optimizer and evaluates the result with the full
// powertrain model. A non-converged optimizer is not an error; callers must
// check Result.Converged.
func (e *Evaluator) Optimize(ctx context.Context, req OptimizeRequest) (_ *OptimizeResult, err error) {
	ctx, span := tracer.Start(ctx, "services.Optimize")
	defer endSpan(span, &err)
	defer obs.Time(ctx, "services.Optimize")(&err)

	start := time.Now()
	src, err := e.resolveRoute(ctx, req.Route)
	if err != nil {
		return nil, fmt.Errorf("optimize route: %w", err)
	}

	pt, err := NewPowertrain(req.Vehicle)
	if err != nil {
		return nil, fmt.Errorf("optimize route: %w", err)
	}
	opt, err := NewContinuousOptimizer(req.Vehicle.Params, req.Options)
	if err != nil {
		return nil, fmt.Errorf("optimize route: %w", err)
	}

	result, err := opt.Optimize(ctx, src.geometry)
	if err != nil {
		return nil, fmt.Errorf("optimize route: %w", err)
	}
	if nerr := result.Err(); nerr != nil {
		log.Printf("req_id=%s op=services.Optimize route=%s iterations=%d err=%v",
			obs.RequestID(ctx), src.routeID, result.Iterations, nerr)
	}
	e.Metrics.ObserveOptimization(result.Converged, result.Iterations, time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Bool("optimizer.converged", result.Converged),
		attribute.Int("optimizer.iterations", result.Iterations),
	)

	ev, err := NewFuelIntegrator(pt, e.Workers).Integrate(ctx, src.geometry, result.Speeds)
	if err != nil {
		return nil, fmt.Errorf("optimize route: %w", err)
	}

	return &OptimizeResult{
		ID:         uuid.NewString(),
		RouteID:    src.routeID,
		Result:     result,
		Evaluation: ev,
	}, nil
}

type routeSource struct {
	routeID  string
	geometry *Geometry
	material any // everything about the route that shapes the result, for cache keys
}

func (e *Evaluator) resolveRoute(ctx context.Context, in RouteInput) (routeSource, error) {
	set := 0
	for _, ok := range []bool{in.RouteID != "", len(in.Points) > 0, len(in.Waypoints) > 0, in.Profile != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return routeSource{}, fmt.Errorf("%d route sources given, want exactly one: %w", set, ErrInvalidRequest)
	}

	points := in.Points
	routeID := "inline"
	if in.RouteID != "" {
		if e.Routes == nil {
			return routeSource{}, fmt.Errorf("route %q: no route repository: %w", in.RouteID, ports.ErrRouteNotFound)
		}
		r, err := e.Routes.GetRoute(ctx, in.RouteID)
		if err != nil {
			return routeSource{}, err
		}
		points, routeID = r.Points, r.ID
	}

	switch {
	case len(points) > 0:
		if in.FillElevation {
			if e.Elevation == nil {
				return routeSource{}, fmt.Errorf("elevation requested but no provider configured: %w", ErrInvalidRequest)
			}
			var err error
			if points, err = FillElevation(ctx, e.Elevation, points); err != nil {
				return routeSource{}, err
			}
		}
		g, err := GeometryFromGeodetic(points)
		if err != nil {
			return routeSource{}, err
		}
		return routeSource{routeID: routeID, geometry: g, material: points}, nil

	case len(in.Waypoints) > 0:
		g, err := NewGeometry(in.Waypoints)
		if err != nil {
			return routeSource{}, err
		}
		return routeSource{routeID: routeID, geometry: g, material: in.Waypoints}, nil

	default:
		g, err := GeometryFromProfile(in.Profile.Lengths, in.Profile.Slopes, in.Profile.Curvature)
		if err != nil {
			return routeSource{}, err
		}
		return routeSource{routeID: routeID, geometry: g, material: in.Profile}, nil
	}
}

// FillElevation returns a copy of points with elevations from provider. Points
// the provider cannot resolve keep their original elevation.
func FillElevation(ctx context.Context, provider ports.ElevationProvider, points []domain.GeoPoint) ([]domain.GeoPoint, error) {
	samples, err := provider.Elevations(ctx, points)
	if err != nil {
		return nil, fmt.Errorf("fill elevation: %w", err)
	}
	if len(samples) != len(points) {
		return nil, fmt.Errorf("fill elevation: %d samples for %d points: %w", len(samples), len(points), ErrLengthMismatch)
	}

	out := make([]domain.GeoPoint, len(points))
	missing := 0
	for i, p := range points {
		if samples[i].OK {
			p.Elevation = samples[i].Meters
		} else {
			missing++
		}
		out[i] = p
	}
	if missing > 0 {
		log.Printf("req_id=%s op=services.FillElevation points=%d missing=%d", obs.RequestID(ctx), len(points), missing)
	}
	return out, nil
}

// cacheKey hashes the JSON encoding of parts.
func cacheKey(parts ...any) (string, error) {
	b, err := json.Marshal(parts)
	if err != nil {
		return "", fmt.Errorf("cache key: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func (e *Evaluator) cachedEvaluation(ctx context.Context, key string) (*EvaluateResult, bool) {
	if e.Cache == nil {
		return nil, false
	}

	b, ok, err := e.Cache.Get(ctx, key)
	switch {
	case err != nil:
		e.Metrics.CacheResult("error")
		log.Printf("req_id=%s op=services.cache.get err=%v", obs.RequestID(ctx), err)
		return nil, false
	case !ok:
		e.Metrics.CacheResult("miss")
		return nil, false
	}

	var res EvaluateResult
	if err := json.Unmarshal(b, &res); err != nil {
		e.Metrics.CacheResult("error")
		log.Printf("req_id=%s op=services.cache.decode err=%v", obs.RequestID(ctx), err)
		return nil, false
	}
	e.Metrics.CacheResult("hit")
	res.Cached = true
	return &res, true
}

// putCache stores res when it encodes; results carrying non-finite values
// (for example NaN strategy savings) are skipped.
func (e *Evaluator) putCache(ctx context.Context, key string, res *EvaluateResult) {
	if e.Cache == nil {
		return
	}
	b, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := e.Cache.Put(ctx, key, b); err != nil {
		log.Printf("req_id=%s op=services.cache.put err=%v", obs.RequestID(ctx), err)
	}
}

func (e *Evaluator) save(ctx context.Context, rec domain.EvaluationRecord) {
	if e.Store == nil {
		return
	}
	if err := e.Store.SaveEvaluation(ctx, rec); err != nil {
		log.Printf("req_id=%s op=services.save evaluation=%s err=%v", obs.RequestID(ctx), rec.ID, err)
	}
}

func endSpan(span trace.Span, errp *error) {
	if errp != nil && *errp != nil {
		span.RecordError(*errp)
		span.SetStatus(codes.Error, (*errp).Error())
	}
	span.End()
}

// IsClientError reports whether err was caused by the request rather than the service.
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrInvalidRequest,
		ErrTooFewWaypoints,
		ErrLengthMismatch,
		ErrInvalidEngineMap,
		ErrInvalidBounds,
		domain.ErrInvalidVehicle,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
