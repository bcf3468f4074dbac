package domain

import (
	"fmt"
	"math"
)

// FuelLedger accumulates fuel mass and elapsed time segment by segment.
// Totals only grow; an infeasible segment contributes +Inf fuel.
type FuelLedger struct {
	FuelKg   float64
	TimeS    float64
	Segments int
}

// Add records one segment. Negative or NaN contributions are rejected.
func (l *FuelLedger) Add(fuelKg, durationS float64) error {
	if math.IsNaN(fuelKg) || fuelKg < 0 {
		return fmt.Errorf("fuel ledger: segment %d: invalid fuel mass %v", l.Segments, fuelKg)
	}
	if math.IsNaN(durationS) || durationS < 0 {
		return fmt.Errorf("fuel ledger: segment %d: invalid duration %v", l.Segments, durationS)
	}

	l.FuelKg += fuelKg
	l.TimeS += durationS
	l.Segments++
	return nil
}
