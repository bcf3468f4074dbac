package services

import "math"

// g/kWh to kg/J.
const bsfcToKgPerJoule = 1.0 / 3.6e9

// RPMToRadPerSec converts engine speed to angular velocity.
func RPMToRadPerSec(rpm float64) float64 { return rpm * 2 * math.Pi / 60 }

// FuelRateModel turns an engine operating point into a fuel mass flow in kg/s.
type FuelRateModel struct {
	consumption SpecificConsumption
	idleRate    float64
}

func NewFuelRateModel(consumption SpecificConsumption, idleRate float64) *FuelRateModel {
	return &FuelRateModel{consumption: consumption, idleRate: idleRate}
}

// Rate returns fuel mass flow at (rpm, torque). Operating points delivering no
// positive power draw the fixed idle rate.
func (m *FuelRateModel) Rate(rpm, torque float64) float64 {
	power := torque * RPMToRadPerSec(rpm)
	if !(power > 0) {
		return m.idleRate
	}
	bsfc := math.Max(0, m.consumption.BSFC(rpm, torque))
	return bsfc * power * bsfcToKgPerJoule
}

// IdleRate returns the idle fuel mass flow in kg/s.
func (m *FuelRateModel) IdleRate() float64 { return m.idleRate }
