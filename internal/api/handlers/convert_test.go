package handlers

import (
	"fuel-route-service/internal/api/dto"
	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/services"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestToVehicleConfigDefaults(t *testing.T) {
	assert.Equal(t, domain.DefaultVehicleConfig(), toVehicleConfig(nil))
	assert.Equal(t, domain.DefaultVehicleConfig(), toVehicleConfig(&dto.VehicleRequest{}))
}

func TestToVehicleConfigOverrides(t *testing.T) {
	cfg := toVehicleConfig(&dto.VehicleRequest{
		MassKg:     ptr(2200),
		GearRatios: []float64{4, 2, 1},
		Engine: &dto.EngineRequest{
			RPM:           []float64{800, 4000},
			MaxTorqueNm:   []float64{300, 250},
			Interpolation: domain.InterpolationLinear,
		},
		Consumption: &dto.ConsumptionRequest{Kind: domain.ConsumptionQuadratic, Base: 210},
	})

	assert.Equal(t, 2200.0, cfg.Params.Mass)
	assert.Equal(t, []float64{4, 2, 1}, cfg.Params.GearRatios)
	assert.Equal(t, domain.DefaultVehicle().WheelRadius, cfg.Params.WheelRadius)
	assert.Equal(t, []float64{300, 250}, cfg.Engine.MaxTorque)
	assert.Equal(t, 210.0, cfg.Consumption.Base)
}

func TestToRouteInput(t *testing.T) {
	in, err := toRouteInput(dto.RouteRequest{Points: [][]float64{{-3.2, 55.9}, {-3.1, 55.9, 120}}})
	require.NoError(t, err)
	assert.Equal(t, []domain.GeoPoint{{Lon: -3.2, Lat: 55.9}, {Lon: -3.1, Lat: 55.9, Elevation: 120}}, in.Points)

	_, err = toRouteInput(dto.RouteRequest{Points: [][]float64{{1, 2, 3, 4}}})
	assert.ErrorIs(t, err, services.ErrInvalidRequest)

	in, err = toRouteInput(dto.RouteRequest{Profile: &dto.ProfileRequest{LengthsM: []float64{10}, SlopesRad: []float64{0}, Curvature: []float64{0, 0}}})
	require.NoError(t, err)
	require.NotNil(t, in.Profile)
	assert.Equal(t, []float64{10}, in.Profile.Lengths)
}

func TestFinite(t *testing.T) {
	assert.Nil(t, finite(math.Inf(1)))
	assert.Nil(t, finite(math.NaN()))
	require.NotNil(t, finite(1.5))
	assert.Equal(t, 1.5, *finite(1.5))
}

func TestToRouteInputRejectsOversizedRoutes(t *testing.T) {
	_, err := toRouteInput(dto.RouteRequest{Waypoints: make([]dto.WaypointRequest, maxRouteNodes+1)})
	assert.ErrorIs(t, err, services.ErrInvalidRequest)

	_, err = toRouteInput(dto.RouteRequest{Points: make([][]float64, maxRouteNodes+1)})
	assert.ErrorIs(t, err, services.ErrInvalidRequest)

	_, err = toRouteInput(dto.RouteRequest{Profile: &dto.ProfileRequest{LengthsM: make([]float64, maxRouteNodes)}})
	assert.ErrorIs(t, err, services.ErrInvalidRequest)

	_, err = toRouteInput(dto.RouteRequest{Waypoints: make([]dto.WaypointRequest, maxRouteNodes)})
	assert.NoError(t, err)
}

func TestIterationLimitsAreCapped(t *testing.T) {
	solver := toSolverOptions(dto.SolverRequest{Iterate: true, MaxIterations: 1_000_000})
	assert.Equal(t, maxSolverIterations, solver.MaxIterations)
	assert.Equal(t, 7, toSolverOptions(dto.SolverRequest{MaxIterations: 7}).MaxIterations)

	opt := toOptimizerOptions(dto.OptimizerRequest{MaxIterations: 1_000_000, OuterIterations: 1_000_000, MinSpeed: 12})
	assert.Equal(t, maxOptimizerIterations, opt.MaxIterations)
	assert.Equal(t, maxOuterIterations, opt.OuterIterations)
	assert.Equal(t, 12.0, opt.MinSpeed)

	// Zero still means "use the default".
	assert.Zero(t, toOptimizerOptions(dto.OptimizerRequest{}).MaxIterations)
}
