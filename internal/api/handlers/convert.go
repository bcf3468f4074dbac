package handlers

import (
	"fmt"
	"fuel-route-service/internal/api/dto"
	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/services"
)

// Request-supplied work is bounded so a single call cannot hold a core for long.
const (
	maxRouteNodes          = 20000
	maxSolverIterations    = 200
	maxOptimizerIterations = 500
	maxOuterIterations     = 50
)

func toRouteInput(req dto.RouteRequest) (services.RouteInput, error) {
	in := services.RouteInput{
		RouteID:       req.RouteID,
		FillElevation: req.FillElevation,
	}

	nodes := max(len(req.Points), len(req.Waypoints))
	if p := req.Profile; p != nil {
		nodes = max(nodes, len(p.Curvature), len(p.LengthsM)+1)
	}
	if nodes > maxRouteNodes {
		return in, fmt.Errorf("route has %d nodes, at most %d allowed: %w", nodes, maxRouteNodes, services.ErrInvalidRequest)
	}

	for i, row := range req.Points {
		if len(row) != 2 && len(row) != 3 {
			return in, fmt.Errorf("points[%d]: want [lon, lat] or [lon, lat, elevation], got %d values: %w",
				i, len(row), services.ErrInvalidRequest)
		}
		p := domain.GeoPoint{Lon: row[0], Lat: row[1]}
		if len(row) == 3 {
			p.Elevation = row[2]
		}
		in.Points = append(in.Points, p)
	}

	for _, w := range req.Waypoints {
		in.Waypoints = append(in.Waypoints, domain.Waypoint{X: w.X, Y: w.Y, Z: w.Z})
	}

	if req.Profile != nil {
		in.Profile = &services.ProfileTable{
			Lengths:   req.Profile.LengthsM,
			Slopes:    req.Profile.SlopesRad,
			Curvature: req.Profile.Curvature,
		}
	}

	return in, nil
}

func toSolverOptions(req dto.SolverRequest) services.SolverOptions {
	return services.SolverOptions{
		Iterate:       req.Iterate,
		MaxIterations: min(req.MaxIterations, maxSolverIterations),
		Tolerance:     req.Tolerance,
	}
}

func toOptimizerOptions(req dto.OptimizerRequest) services.OptimizerOptions {
	return services.OptimizerOptions{
		MinSpeed:        req.MinSpeed,
		MaxSpeed:        req.MaxSpeed,
		MaxAccel:        req.MaxAccel,
		InitialSpeed:    req.InitialSpeed,
		BSFC:            req.BSFC,
		MaxIterations:   min(req.MaxIterations, maxOptimizerIterations),
		OuterIterations: min(req.OuterIterations, maxOuterIterations),
		Tolerance:       req.Tolerance,
	}
}

// toVehicleConfig applies overrides to the default vehicle. Validation is left to
// the services so every entry point rejects the same configurations.
func toVehicleConfig(req *dto.VehicleRequest) domain.VehicleConfig {
	cfg := domain.DefaultVehicleConfig()
	if req == nil {
		return cfg
	}

	p := &cfg.Params
	for _, o := range []struct {
		src *float64
		dst *float64
	}{
		{req.MassKg, &p.Mass},
		{req.WheelRadiusM, &p.WheelRadius},
		{req.DragCoefficient, &p.DragCoefficient},
		{req.FrontalAreaM2, &p.FrontalArea},
		{req.RollingResistance, &p.RollingResistance},
		{req.FinalDrive, &p.FinalDrive},
		{req.DrivelineEfficiency, &p.DrivelineEfficiency},
		{req.GripCoefficient, &p.GripCoefficient},
		{req.MaxAccel, &p.MaxAcceleration},
		{req.MaxBraking, &p.MaxBraking},
		{req.SpeedCap, &p.SpeedCap},
		{req.StraightSpeedCap, &p.StraightSpeedCap},
		{req.IdleFuelRate, &p.IdleFuelRate},
		{req.WettedAreaM2, &p.WettedArea},
		{req.BodyLengthM, &p.BodyLength},
	} {
		if o.src != nil {
			*o.dst = *o.src
		}
	}
	if req.GearRatios != nil {
		p.GearRatios = append([]float64(nil), req.GearRatios...)
	}

	if e := req.Engine; e != nil {
		cfg.Engine = domain.EngineMap{
			RPM:           e.RPM,
			MaxTorque:     e.MaxTorqueNm,
			Interpolation: e.Interpolation,
		}
	}
	if c := req.Consumption; c != nil {
		cfg.Consumption = domain.ConsumptionMap{
			Kind:          c.Kind,
			Base:          c.Base,
			OptimalRPM:    c.OptimalRPM,
			RPMCoeff:      c.RPMCoeff,
			OptimalTorque: c.OptimalTorque,
			TorqueCoeff:   c.TorqueCoeff,
			GridRPM:       c.GridRPM,
			GridTorque:    c.GridTorque,
			Values:        c.Values,
		}
	}

	return cfg
}

func toEvaluateResponse(res *services.EvaluateResult, withSegments bool) dto.EvaluateResponse {
	ev := res.Evaluation
	s := res.Summary

	out := dto.EvaluateResponse{
		EvaluationID:       res.ID,
		RouteID:            res.RouteID,
		Cached:             res.Cached,
		Feasible:           ev.Feasible,
		FuelKg:             finite(ev.Ledger.FuelKg),
		TimeS:              ev.Ledger.TimeS,
		InfeasibleSegments: nonNil(ev.InfeasibleSegments),
		ClampEvents:        ev.ClampEvents,
		Speeds:             ev.Speeds,
		CorneringLimits:    res.Solution.Limits,
		SolverIterations:   res.Solution.Iterations,
		SolverConverged:    res.Solution.Converged,
		Summary: dto.SummaryResponse{
			DistanceM:       s.DistanceM,
			Segments:        s.Segments,
			MinElevationM:   s.MinElevationM,
			MaxElevationM:   s.MaxElevationM,
			MinGradePct:     s.MinGradePct,
			MaxGradePct:     s.MaxGradePct,
			MeanAbsGradePct: s.MeanAbsGradePct,
			MaxWheelTorque:  s.MaxWheelTorque,
			MeanWheelTorque: s.MeanWheelTorque,
			MaxPowerW:       s.MaxPowerW,
			MeanPowerW:      s.MeanPowerW,
			ReferenceSpeed:  s.ReferenceSpeed,
		},
	}

	for _, st := range res.Strategies {
		out.Strategies = append(out.Strategies, dto.StrategyResponse{
			Name:       st.Name,
			FuelKg:     finite(st.Evaluation.Ledger.FuelKg),
			TimeS:      st.Evaluation.Ledger.TimeS,
			Feasible:   st.Evaluation.Feasible,
			SavingsPct: finite(st.SavingsPct),
		})
	}

	if withSegments {
		out.Segments = make([]dto.SegmentResponse, 0, len(ev.Segments))
		limits := res.Solution.SegmentLimits
		for _, seg := range ev.Segments {
			var limit float64
			if seg.Index < len(limits) {
				limit = limits[seg.Index]
			}
			out.Segments = append(out.Segments, dto.SegmentResponse{
				Index:      seg.Index,
				LengthM:    seg.Length,
				AvgSpeed:   seg.AvgSpeed,
				DurationS:  seg.Duration,
				Accel:      seg.Acceleration,
				ForceN:     seg.Forces.Total,
				LimitMps:   limit,
				Gear:       seg.Point.Gear,
				RPM:        seg.Point.RPM,
				TorqueNm:   seg.Point.Torque,
				FuelKg:     finite(seg.FuelKg),
				Idle:       seg.Point.Idle,
				Clamped:    seg.Point.Clamped,
				Infeasible: seg.Infeasible,
			})
		}
	}

	return out
}

func toOptimizeResponse(res *services.OptimizeResult) dto.OptimizeResponse {
	r := res.Result
	ev := res.Evaluation
	return dto.OptimizeResponse{
		OptimizationID: res.ID,
		RouteID:        res.RouteID,
		Speeds:         r.Speeds,
		FuelKg:         r.FuelKg,
		TimeS:          r.TimeS,
		Converged:      r.Converged,
		Status:         r.Status,
		Iterations:     r.Iterations,
		MaxViolation:   r.MaxViolation,
		Powertrain: dto.PowertrainCheck{
			Feasible:           ev.Feasible,
			FuelKg:             finite(ev.Ledger.FuelKg),
			TimeS:              ev.Ledger.TimeS,
			InfeasibleSegments: nonNil(ev.InfeasibleSegments),
			ClampEvents:        ev.ClampEvents,
		},
	}
}

func nonNil(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}
