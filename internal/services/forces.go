package services

import (
	"fuel-route-service/internal/domain"
	"math"
)

// Reynolds number band over which skin friction blends from laminar to turbulent.
const (
	laminarReynolds   = 1e5
	turbulentReynolds = 2e5
)

// ForceBreakdown lists the longitudinal forces on the vehicle, N.
// Total is positive when the wheels must deliver traction and negative when braking.
type ForceBreakdown struct {
	Inertial float64
	Drag     float64
	Skin     float64
	Rolling  float64
	Grade    float64
	Total    float64
}

// TractionForce returns the wheel force required to hold acceleration accel at
// speed on a road inclined at slope radians.
func TractionForce(p domain.VehicleParameters, accel, speed, slope float64) ForceBreakdown {
	f := ForceBreakdown{
		Inertial: p.Mass * accel,
		Drag:     0.5 * p.AirDensity * p.DragCoefficient * p.FrontalArea * speed * speed,
		Skin:     skinFriction(p, speed),
		Rolling:  p.RollingResistance * p.Mass * p.Gravity * math.Cos(slope),
		Grade:    p.Mass * p.Gravity * math.Sin(slope),
	}
	f.Total = f.Inertial + f.Drag + f.Skin + f.Rolling + f.Grade
	return f
}

// ResistiveForce is TractionForce at steady speed.
func ResistiveForce(p domain.VehicleParameters, speed, slope float64) float64 {
	return TractionForce(p, 0, speed, slope).Total
}

func skinFriction(p domain.VehicleParameters, speed float64) float64 {
	if p.WettedArea <= 0 || speed <= 0 {
		return 0
	}

	re := p.AirDensity * speed * p.BodyLength / p.AirViscosity

	var cf float64
	switch {
	case re >= turbulentReynolds:
		cf = 0.074 / math.Pow(re, 0.2)
	case re <= laminarReynolds:
		cf = 1.4 / math.Sqrt(re)
	default:
		lam := 1.4 / math.Sqrt(laminarReynolds)
		turb := 0.074 / math.Pow(turbulentReynolds, 0.2)
		cf = lam + (turb-lam)*(re-laminarReynolds)/(turbulentReynolds-laminarReynolds)
	}

	return 0.5 * p.AirDensity * cf * p.WettedArea * speed * speed
}
