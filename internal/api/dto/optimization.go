package dto

type OptimizerRequest struct {
	MinSpeed        float64 `json:"min_speed_mps"`
	MaxSpeed        float64 `json:"max_speed_mps"`
	MaxAccel        float64 `json:"max_accel_mps2"`
	InitialSpeed    float64 `json:"initial_speed_mps"`
	BSFC            float64 `json:"bsfc_g_per_kwh"`
	MaxIterations   int     `json:"max_iterations"`
	OuterIterations int     `json:"outer_iterations"`
	Tolerance       float64 `json:"tolerance"`
}

type OptimizeRequest struct {
	RouteRequest
	Vehicle   *VehicleRequest   `json:"vehicle"`
	Optimizer *OptimizerRequest `json:"optimizer"`
}

// PowertrainCheck is the full powertrain evaluation of the optimized speeds.
type PowertrainCheck struct {
	Feasible           bool     `json:"feasible"`
	FuelKg             *float64 `json:"fuel_kg"`
	TimeS              float64  `json:"time_s"`
	InfeasibleSegments []int    `json:"infeasible_segments"`
	ClampEvents        int      `json:"clamp_events"`
}

type OptimizeResponse struct {
	OptimizationID string          `json:"optimization_id"`
	RouteID        string          `json:"route_id"`
	Speeds         []float64       `json:"speeds_mps"`
	FuelKg         float64         `json:"fuel_kg"`
	TimeS          float64         `json:"time_s"`
	Converged      bool            `json:"converged"`
	Status         string          `json:"status"`
	Iterations     int             `json:"iterations"`
	MaxViolation   float64         `json:"max_violation_mps2"`
	Powertrain     PowertrainCheck `json:"powertrain"`
}
