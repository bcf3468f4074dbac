package services

import (
	"fmt"
	"fuel-route-service/internal/domain"
	"math"
	"sort"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/interp"
)

// TorqueEnvelope is the full-load torque curve as a 1D interpolant over engine speed.
type TorqueEnvelope struct {
	minRPM float64
	maxRPM float64
	fit    interp.Predictor
}

// NewTorqueEnvelope fits the engine map. RPM values must be strictly increasing.
func NewTorqueEnvelope(m domain.EngineMap) (*TorqueEnvelope, error) {
	if len(m.RPM) < 2 || len(m.RPM) != len(m.MaxTorque) {
		return nil, fmt.Errorf(
			"torque envelope: %d rpm points, %d torque points: %w",
			len(m.RPM), len(m.MaxTorque), ErrInvalidEngineMap,
		)
	}
	for i, t := range m.MaxTorque {
		if t < 0 {
			return nil, fmt.Errorf("torque envelope: negative torque at point %d: %w", i, ErrInvalidEngineMap)
		}
	}

	var fit interp.FittablePredictor
	switch m.Interpolation {
	case "", domain.InterpolationLinear:
		fit = &interp.PiecewiseLinear{}
	case domain.InterpolationCubic:
		if len(m.RPM) < 3 {
			return nil, fmt.Errorf("torque envelope: cubic needs 3 points: %w", ErrInvalidEngineMap)
		}
		fit = &interp.NaturalCubic{}
	default:
		return nil, fmt.Errorf("torque envelope: unknown interpolation %q: %w", m.Interpolation, ErrInvalidEngineMap)
	}

	if err := fit.Fit(m.RPM, m.MaxTorque); err != nil {
		return nil, fmt.Errorf("torque envelope: fit: %v: %w", err, ErrInvalidEngineMap)
	}

	return &TorqueEnvelope{
		minRPM: m.RPM[0],
		maxRPM: m.RPM[len(m.RPM)-1],
		fit:    fit,
	}, nil
}

// MaxTorque returns the available torque at rpm. Requests outside the table are
// evaluated at the nearest boundary and reported as clamped.
func (e *TorqueEnvelope) MaxTorque(rpm float64) (torque float64, clamped bool) {
	r := lo.Clamp(rpm, e.minRPM, e.maxRPM)
	return math.Max(0, e.fit.Predict(r)), r != rpm
}

// Domain returns the RPM range covered by the table.
func (e *TorqueEnvelope) Domain() (float64, float64) { return e.minRPM, e.maxRPM }

// ConstantPowerEnvelope samples an electric-motor style curve: maxTorque up to
// baseRPM, then maxTorque·baseRPM/rpm (constant power) up to maxRPM.
func ConstantPowerEnvelope(maxTorque, baseRPM, minRPM, maxRPM float64, points int) domain.EngineMap {
	if points < 2 {
		points = 2
	}
	m := domain.EngineMap{
		RPM:           make([]float64, points),
		MaxTorque:     make([]float64, points),
		Interpolation: domain.InterpolationLinear,
	}
	step := (maxRPM - minRPM) / float64(points-1)
	for i := 0; i < points; i++ {
		rpm := minRPM + step*float64(i)
		m.RPM[i] = rpm
		if rpm <= baseRPM {
			m.MaxTorque[i] = maxTorque
		} else {
			m.MaxTorque[i] = maxTorque * baseRPM / rpm
		}
	}
	return m
}

// SpecificConsumption maps an engine operating point to brake-specific fuel consumption, g/kWh.
type SpecificConsumption interface {
	BSFC(rpm, torque float64) float64
}

// QuadraticBSFC is a bowl-shaped consumption surrogate around a single best point.
type QuadraticBSFC struct {
	Base          float64
	OptimalRPM    float64
	RPMCoeff      float64
	OptimalTorque float64
	TorqueCoeff   float64
}

func (q QuadraticBSFC) BSFC(rpm, torque float64) float64 {
	dr := rpm - q.OptimalRPM
	dt := torque - q.OptimalTorque
	return q.Base + q.RPMCoeff*dr*dr + q.TorqueCoeff*dt*dt
}

// GridBSFC interpolates a measured consumption table bilinearly, clamping to its edges.
type GridBSFC struct {
	rpm  []float64
	rows []interp.PiecewiseLinear // one torque interpolant per rpm row
}

func NewGridBSFC(rpm, torque []float64, values [][]float64) (*GridBSFC, error) {
	if len(rpm) < 2 || len(torque) < 2 || len(values) != len(rpm) {
		return nil, fmt.Errorf("grid bsfc: %dx%d axes, %d rows: %w", len(rpm), len(torque), len(values), ErrInvalidEngineMap)
	}
	for i := 1; i < len(rpm); i++ {
		if rpm[i] <= rpm[i-1] {
			return nil, fmt.Errorf("grid bsfc: rpm axis not strictly increasing at %d: %w", i, ErrInvalidEngineMap)
		}
	}

	rows := make([]interp.PiecewiseLinear, len(rpm))
	for i, row := range values {
		if len(row) != len(torque) {
			return nil, fmt.Errorf("grid bsfc: row %d has %d values, want %d: %w", i, len(row), len(torque), ErrInvalidEngineMap)
		}
		if err := rows[i].Fit(torque, row); err != nil {
			return nil, fmt.Errorf("grid bsfc: row %d: %v: %w", i, err, ErrInvalidEngineMap)
		}
	}

	return &GridBSFC{rpm: rpm, rows: rows}, nil
}

func (g *GridBSFC) BSFC(rpm, torque float64) float64 {
	n := len(g.rpm)
	r := lo.Clamp(rpm, g.rpm[0], g.rpm[n-1])

	hi := sort.SearchFloat64s(g.rpm, r)
	if hi == 0 {
		return g.rows[0].Predict(torque)
	}
	if hi >= n {
		hi = n - 1
	}
	below := hi - 1

	w := (r - g.rpm[below]) / (g.rpm[hi] - g.rpm[below])
	return (1-w)*g.rows[below].Predict(torque) + w*g.rows[hi].Predict(torque)
}

// NewSpecificConsumption builds the consumption model described by m.
func NewSpecificConsumption(m domain.ConsumptionMap) (SpecificConsumption, error) {
	switch m.Kind {
	case "", domain.ConsumptionQuadratic:
		if !(m.Base > 0) {
			return nil, fmt.Errorf("specific consumption: base must be positive: %w", ErrInvalidEngineMap)
		}
		return QuadraticBSFC{
			Base:          m.Base,
			OptimalRPM:    m.OptimalRPM,
			RPMCoeff:      m.RPMCoeff,
			OptimalTorque: m.OptimalTorque,
			TorqueCoeff:   m.TorqueCoeff,
		}, nil
	case domain.ConsumptionGrid:
		return NewGridBSFC(m.GridRPM, m.GridTorque, m.Values)
	default:
		return nil, fmt.Errorf("specific consumption: unknown kind %q: %w", m.Kind, ErrInvalidEngineMap)
	}
}
