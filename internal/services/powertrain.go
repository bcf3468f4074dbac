package services

import (
	"fmt"
	"fuel-route-service/internal/domain"
	"math"
)

// Relative band within which two gears are considered equally economical.
const gearTieTolerance = 1e-12

// OperatingPoint is the engine state chosen for one segment.
type OperatingPoint struct {
	Gear      int     // 1-based; 0 while idling
	Ratio     float64 // gear ratio, excluding final drive
	RPM       float64
	Torque    float64 // engine torque, N·m
	MaxTorque float64 // envelope torque at RPM, N·m
	FuelRate  float64 // kg/s
	Idle      bool    // braking or coasting; friction brakes absorb any surplus
	Clamped   bool    // envelope lookup was outside its RPM table
}

// Powertrain searches the gearbox for the most economical feasible operating point.
// It is a pure function of its configuration and safe for concurrent use.
type Powertrain struct {
	params   domain.VehicleParameters
	envelope *TorqueEnvelope
	fuel     *FuelRateModel
}

func NewPowertrain(cfg domain.VehicleConfig) (*Powertrain, error) {
	if err := cfg.Params.Validate(); err != nil {
		return nil, fmt.Errorf("new powertrain: %w", err)
	}

	envelope, err := NewTorqueEnvelope(cfg.Engine)
	if err != nil {
		return nil, fmt.Errorf("new powertrain: %w", err)
	}

	consumption, err := NewSpecificConsumption(cfg.Consumption)
	if err != nil {
		return nil, fmt.Errorf("new powertrain: %w", err)
	}

	return &Powertrain{
		params:   cfg.Params,
		envelope: envelope,
		fuel:     NewFuelRateModel(consumption, cfg.Params.IdleFuelRate),
	}, nil
}

// Params returns the vehicle parameters the powertrain was built with.
func (p *Powertrain) Params() domain.VehicleParameters { return p.params }

// FuelModel returns the fuel rate model used for every candidate gear.
func (p *Powertrain) FuelModel() *FuelRateModel { return p.fuel }

// EngineRPM converts road speed to engine speed in the given gear.
func (p *Powertrain) EngineRPM(speed, ratio float64) float64 {
	wheelRadPerSec := speed / p.params.WheelRadius
	return wheelRadPerSec * ratio * p.params.FinalDrive * 60 / (2 * math.Pi)
}

// SelectGear finds the operating point delivering force (N, at the wheels) at speed
// (m/s) with the lowest fuel rate. Negative force idles the engine. Exact or
// near ties go to the lowest gear index. ErrGearInfeasible is returned when the
// torque envelope rules out every gear.
func (p *Powertrain) SelectGear(force, speed float64) (OperatingPoint, error) {
	if force < 0 {
		return OperatingPoint{Idle: true, FuelRate: p.fuel.IdleRate()}, nil
	}

	wheelTorque := force * p.params.WheelRadius
	var (
		best  OperatingPoint
		found bool
	)

	for i, ratio := range p.params.GearRatios {
		rpm := p.EngineRPM(speed, ratio)
		required := wheelTorque / (ratio * p.params.FinalDrive * p.params.DrivelineEfficiency)
		available, clamped := p.envelope.MaxTorque(rpm)
		if required > available {
			continue
		}

		rate := p.fuel.Rate(rpm, required)
		if found && rate >= best.FuelRate*(1-gearTieTolerance) {
			continue
		}

		best = OperatingPoint{
			Gear:      i + 1,
			Ratio:     ratio,
			RPM:       rpm,
			Torque:    required,
			MaxTorque: available,
			FuelRate:  rate,
			Idle:      !(required*rpm > 0),
			Clamped:   clamped,
		}
		found = true
	}

	if !found {
		return OperatingPoint{}, fmt.Errorf(
			"select gear: force=%.1fN speed=%.2fm/s: %w",
			force, speed, ErrGearInfeasible,
		)
	}

	return best, nil
}
