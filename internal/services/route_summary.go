package services

import (
	"fuel-route-service/internal/domain"
	"math"
)

// RouteSummary describes a route's terrain and the steady-state load it puts on a
// vehicle cruising at a reference speed.
type RouteSummary struct {
	DistanceM       float64
	Segments        int
	MinElevationM   float64
	MaxElevationM   float64
	MinGradePct     float64
	MaxGradePct     float64
	MeanAbsGradePct float64
	MaxWheelTorque  float64 // N·m
	MeanWheelTorque float64 // N·m
	MaxPowerW       float64
	MeanPowerW      float64
	ReferenceSpeed  float64 // m/s
}

// SummarizeRoute computes terrain statistics for g and the wheel torque and power
// needed to hold speed on each segment.
func SummarizeRoute(g *Geometry, p domain.VehicleParameters, speed float64) RouteSummary {
	s := RouteSummary{
		DistanceM:      g.TotalDistance(),
		Segments:       len(g.Segments),
		ReferenceSpeed: speed,
	}

	if len(g.Elevation) > 0 {
		s.MinElevationM, s.MaxElevationM = g.Elevation[0], g.Elevation[0]
		for _, z := range g.Elevation[1:] {
			s.MinElevationM = math.Min(s.MinElevationM, z)
			s.MaxElevationM = math.Max(s.MaxElevationM, z)
		}
	}

	if len(g.Segments) == 0 {
		return s
	}

	s.MinGradePct, s.MaxGradePct = math.Inf(1), math.Inf(-1)
	s.MaxWheelTorque, s.MaxPowerW = math.Inf(-1), math.Inf(-1)
	for _, seg := range g.Segments {
		grade := seg.GradePercent()
		s.MinGradePct = math.Min(s.MinGradePct, grade)
		s.MaxGradePct = math.Max(s.MaxGradePct, grade)
		s.MeanAbsGradePct += math.Abs(grade)

		force := ResistiveForce(p, speed, seg.Slope)
		torque := force * p.WheelRadius
		power := force * speed
		s.MaxWheelTorque = math.Max(s.MaxWheelTorque, torque)
		s.MeanWheelTorque += torque
		s.MaxPowerW = math.Max(s.MaxPowerW, power)
		s.MeanPowerW += power
	}

	n := float64(len(g.Segments))
	s.MeanAbsGradePct /= n
	s.MeanWheelTorque /= n
	s.MeanPowerW /= n
	return s
}
