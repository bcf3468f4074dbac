package dto

// RouteRequest selects the route to work on. Exactly one of route_id, points,
// waypoints or profile must be present.
type RouteRequest struct {
	RouteID string `json:"route_id"`
	// Points rows are [lon, lat] or [lon, lat, elevation_m].
	Points        [][]float64       `json:"points"`
	Waypoints     []WaypointRequest `json:"waypoints"`
	Profile       *ProfileRequest   `json:"profile"`
	FillElevation bool              `json:"fill_elevation"`
}

// WaypointRequest is a node in local metres: east, north, up.
type WaypointRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type ProfileRequest struct {
	LengthsM  []float64 `json:"lengths_m"`
	SlopesRad []float64 `json:"slopes_rad"`
	Curvature []float64 `json:"curvature"`
}

// VehicleRequest overrides fields of the default vehicle. Omitted fields keep
// their defaults.
type VehicleRequest struct {
	MassKg              *float64  `json:"mass_kg"`
	WheelRadiusM        *float64  `json:"wheel_radius_m"`
	DragCoefficient     *float64  `json:"drag_coefficient"`
	FrontalAreaM2       *float64  `json:"frontal_area_m2"`
	RollingResistance   *float64  `json:"rolling_resistance"`
	FinalDrive          *float64  `json:"final_drive"`
	DrivelineEfficiency *float64  `json:"driveline_efficiency"`
	GearRatios          []float64 `json:"gear_ratios"`
	GripCoefficient     *float64  `json:"grip_coefficient"`
	MaxAccel            *float64  `json:"max_accel_mps2"`
	MaxBraking          *float64  `json:"max_braking_mps2"`
	SpeedCap            *float64  `json:"speed_cap_mps"`
	StraightSpeedCap    *float64  `json:"straight_speed_cap_mps"`
	IdleFuelRate        *float64  `json:"idle_fuel_rate_kgps"`
	WettedAreaM2        *float64  `json:"wetted_area_m2"`
	BodyLengthM         *float64  `json:"body_length_m"`

	Engine      *EngineRequest      `json:"engine"`
	Consumption *ConsumptionRequest `json:"consumption"`
}

type EngineRequest struct {
	RPM           []float64 `json:"rpm"`
	MaxTorqueNm   []float64 `json:"max_torque_nm"`
	Interpolation string    `json:"interpolation"`
}

// ConsumptionRequest replaces the default BSFC model. Kind is "quadratic" or "grid".
type ConsumptionRequest struct {
	Kind string `json:"kind"`

	Base          float64 `json:"base_g_per_kwh"`
	OptimalRPM    float64 `json:"optimal_rpm"`
	RPMCoeff      float64 `json:"rpm_coeff"`
	OptimalTorque float64 `json:"optimal_torque_nm"`
	TorqueCoeff   float64 `json:"torque_coeff"`

	GridRPM    []float64   `json:"grid_rpm"`
	GridTorque []float64   `json:"grid_torque_nm"`
	Values     [][]float64 `json:"values_g_per_kwh"`
}

type SolverRequest struct {
	Iterate       bool    `json:"iterate"`
	MaxIterations int     `json:"max_iterations"`
	Tolerance     float64 `json:"tolerance"`
}

type StrategiesRequest struct {
	Compare       bool    `json:"compare"`
	ConstantSpeed float64 `json:"constant_speed_mps"`
	GradeBase     float64 `json:"grade_adaptive_base_mps"`
}

type EvaluateRequest struct {
	RouteRequest
	Vehicle    *VehicleRequest    `json:"vehicle"`
	Solver     *SolverRequest     `json:"solver"`
	Strategies *StrategiesRequest `json:"strategies"`
	// IncludeSegments adds per-segment detail to the response.
	IncludeSegments bool `json:"include_segments"`
}

// Non-finite quantities (the fuel of an infeasible route, undefined savings)
// are encoded as null.

type SegmentResponse struct {
	Index      int      `json:"index"`
	LengthM    float64  `json:"length_m"`
	AvgSpeed   float64  `json:"avg_speed_mps"`
	DurationS  float64  `json:"duration_s"`
	Accel      float64  `json:"accel_mps2"`
	ForceN     float64  `json:"traction_force_n"`
	LimitMps   float64  `json:"cornering_limit_mps"`
	Gear       int      `json:"gear"`
	RPM        float64  `json:"rpm"`
	TorqueNm   float64  `json:"torque_nm"`
	FuelKg     *float64 `json:"fuel_kg"`
	Idle       bool     `json:"idle"`
	Clamped    bool     `json:"clamped"`
	Infeasible bool     `json:"infeasible"`
}

type SummaryResponse struct {
	DistanceM       float64 `json:"distance_m"`
	Segments        int     `json:"segments"`
	MinElevationM   float64 `json:"min_elevation_m"`
	MaxElevationM   float64 `json:"max_elevation_m"`
	MinGradePct     float64 `json:"min_grade_pct"`
	MaxGradePct     float64 `json:"max_grade_pct"`
	MeanAbsGradePct float64 `json:"mean_abs_grade_pct"`
	MaxWheelTorque  float64 `json:"max_wheel_torque_nm"`
	MeanWheelTorque float64 `json:"mean_wheel_torque_nm"`
	MaxPowerW       float64 `json:"max_power_w"`
	MeanPowerW      float64 `json:"mean_power_w"`
	ReferenceSpeed  float64 `json:"reference_speed_mps"`
}

type StrategyResponse struct {
	Name       string   `json:"name"`
	FuelKg     *float64 `json:"fuel_kg"`
	TimeS      float64  `json:"time_s"`
	Feasible   bool     `json:"feasible"`
	SavingsPct *float64 `json:"savings_pct"`
}

type EvaluateResponse struct {
	EvaluationID       string             `json:"evaluation_id"`
	RouteID            string             `json:"route_id"`
	Cached             bool               `json:"cached"`
	Feasible           bool               `json:"feasible"`
	FuelKg             *float64           `json:"fuel_kg"`
	TimeS              float64            `json:"time_s"`
	InfeasibleSegments []int              `json:"infeasible_segments"`
	ClampEvents        int                `json:"clamp_events"`
	Speeds             []float64          `json:"speeds_mps"`
	CorneringLimits    []float64          `json:"cornering_limits_mps"`
	SolverIterations   int                `json:"solver_iterations"`
	SolverConverged    bool               `json:"solver_converged"`
	Summary            SummaryResponse    `json:"summary"`
	Strategies         []StrategyResponse `json:"strategies,omitempty"`
	Segments           []SegmentResponse  `json:"segments,omitempty"`
}
