package dto

import "time"

type RouteResponse struct {
	RouteID    string `json:"route_id"`
	Name       string `json:"name"`
	PointCount int    `json:"point_count"`
}

type ListRoutesResponse struct {
	Routes []RouteResponse `json:"routes"`
}

type EvaluationRecordResponse struct {
	EvaluationID string    `json:"evaluation_id"`
	RouteID      string    `json:"route_id"`
	FuelKg       *float64  `json:"fuel_kg"`
	TimeS        float64   `json:"time_s"`
	DistanceM    float64   `json:"distance_m"`
	Feasible     bool      `json:"feasible"`
	Infeasible   int       `json:"infeasible_segments"`
	ClampEvents  int       `json:"clamp_events"`
	CreatedAt    time.Time `json:"created_at"`
}

type ListEvaluationsResponse struct {
	Evaluations []EvaluationRecordResponse `json:"evaluations"`
}
