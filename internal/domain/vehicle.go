package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidVehicle is returned when vehicle configuration fails validation.
var ErrInvalidVehicle = errors.New("invalid vehicle configuration")

// VehicleParameters describes the body, driveline and driving limits of a road vehicle.
// All values are SI units. It is immutable configuration shared by every component.
type VehicleParameters struct {
	Mass                float64   // kg
	WheelRadius         float64   // m
	DragCoefficient     float64   // Cd
	FrontalArea         float64   // m²
	RollingResistance   float64   // Crr
	FinalDrive          float64   // final-drive ratio
	DrivelineEfficiency float64   // (0, 1]
	GearRatios          []float64 // gear 1 first
	Gravity             float64   // m/s²
	AirDensity          float64   // kg/m³

	GripCoefficient  float64 // lateral tyre grip μ
	MaxAcceleration  float64 // m/s²
	MaxBraking       float64 // m/s², positive magnitude
	SpeedCap         float64 // m/s, initial cap for every node
	StraightSpeedCap float64 // m/s, cornering limit on effectively straight road

	IdleFuelRate float64 // kg/s

	// Optional skin friction term; disabled when WettedArea is zero.
	WettedArea   float64 // m²
	BodyLength   float64 // m
	AirViscosity float64 // kg/(m·s)
}

// Interpolation kinds for the torque envelope.
const (
	InterpolationLinear = "linear"
	InterpolationCubic  = "cubic"
)

// EngineMap is the full-load torque curve: MaxTorque[i] is available at RPM[i].
type EngineMap struct {
	RPM           []float64
	MaxTorque     []float64
	Interpolation string
}

// Specific consumption model kinds.
const (
	ConsumptionQuadratic = "quadratic"
	ConsumptionGrid      = "grid"
)

// ConsumptionMap parametrizes brake-specific fuel consumption (g/kWh) over (RPM, torque).
//
// The quadratic surrogate is
//
//	Base + RPMCoeff·(rpm − OptimalRPM)² + TorqueCoeff·(T − OptimalTorque)²
//
// The grid form holds Values[i][j] measured at GridRPM[i], GridTorque[j].
type ConsumptionMap struct {
	Kind string

	Base          float64
	OptimalRPM    float64
	RPMCoeff      float64
	OptimalTorque float64
	TorqueCoeff   float64

	GridRPM    []float64
	GridTorque []float64
	Values     [][]float64
}

// VehicleConfig bundles everything the powertrain and fuel pipeline need.
type VehicleConfig struct {
	Params      VehicleParameters
	Engine      EngineMap
	Consumption ConsumptionMap
}

// DefaultVehicle returns a mid-size petrol hatchback.
func DefaultVehicle() VehicleParameters {
	return VehicleParameters{
		Mass:                1500,
		WheelRadius:         0.33,
		DragCoefficient:     0.30,
		FrontalArea:         2.2,
		RollingResistance:   0.012,
		FinalDrive:          3.9,
		DrivelineEfficiency: 0.92,
		GearRatios:          []float64{3.8, 2.2, 1.5, 1.0, 0.8},
		Gravity:             9.81,
		AirDensity:          1.225,
		GripCoefficient:     0.9,
		MaxAcceleration:     2.0,
		MaxBraking:          4.0,
		SpeedCap:            25.0,
		StraightSpeedCap:    50.0,
		IdleFuelRate:        0.0001,
		AirViscosity:        1.8e-5,
	}
}

// DefaultEngineMap returns the full-load curve of a small turbocharged petrol engine.
func DefaultEngineMap() EngineMap {
	return EngineMap{
		RPM:           []float64{1000, 1500, 2000, 2500, 3000, 3500, 4000, 4500, 5000, 5500, 6000},
		MaxTorque:     []float64{130, 160, 160, 160, 155, 150, 140, 130, 120, 100, 80},
		Interpolation: InterpolationLinear,
	}
}

// DefaultConsumption returns a BSFC bowl centred on 2500 rpm and 100 N·m.
func DefaultConsumption() ConsumptionMap {
	return ConsumptionMap{
		Kind:          ConsumptionQuadratic,
		Base:          250,
		OptimalRPM:    2500,
		RPMCoeff:      0.02,
		OptimalTorque: 100,
		TorqueCoeff:   0.1,
	}
}

// DefaultVehicleConfig combines the default body, engine and consumption maps.
func DefaultVehicleConfig() VehicleConfig {
	return VehicleConfig{
		Params:      DefaultVehicle(),
		Engine:      DefaultEngineMap(),
		Consumption: DefaultConsumption(),
	}
}

// Validate reports the first parameter that cannot produce a physical result.
func (p VehicleParameters) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"mass", p.Mass},
		{"wheel radius", p.WheelRadius},
		{"final drive", p.FinalDrive},
		{"gravity", p.Gravity},
		{"max acceleration", p.MaxAcceleration},
		{"max braking", p.MaxBraking},
		{"speed cap", p.SpeedCap},
		{"straight speed cap", p.StraightSpeedCap},
	}
	for _, f := range positive {
		if !(f.v > 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidVehicle, f.name, f.v)
		}
	}

	nonNegative := []struct {
		name string
		v    float64
	}{
		{"drag coefficient", p.DragCoefficient},
		{"frontal area", p.FrontalArea},
		{"rolling resistance", p.RollingResistance},
		{"air density", p.AirDensity},
		{"grip coefficient", p.GripCoefficient},
		{"idle fuel rate", p.IdleFuelRate},
		{"wetted area", p.WettedArea},
	}
	for _, f := range nonNegative {
		if !(f.v >= 0) {
			return fmt.Errorf("%w: %s must not be negative, got %v", ErrInvalidVehicle, f.name, f.v)
		}
	}

	if !(p.DrivelineEfficiency > 0 && p.DrivelineEfficiency <= 1) {
		return fmt.Errorf("%w: driveline efficiency must be in (0, 1], got %v", ErrInvalidVehicle, p.DrivelineEfficiency)
	}

	if len(p.GearRatios) == 0 {
		return fmt.Errorf("%w: at least one gear ratio is required", ErrInvalidVehicle)
	}
	for i, g := range p.GearRatios {
		if !(g > 0) {
			return fmt.Errorf("%w: gear %d ratio must be positive, got %v", ErrInvalidVehicle, i+1, g)
		}
	}

	if p.WettedArea > 0 && (!(p.BodyLength > 0) || !(p.AirViscosity > 0)) {
		return fmt.Errorf("%w: skin friction needs positive body length and air viscosity", ErrInvalidVehicle)
	}

	return nil
}
