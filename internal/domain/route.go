package domain

import "time"

// Represents a stored route: an ordered list of geodetic points.
type Route struct {
	ID     string
	Name   string
	Points []GeoPoint
}

// Lightweight listing entry for a stored route.
type RouteInfo struct {
	ID         string
	Name       string
	PointCount int
}

// Represents the persisted outcome of one route evaluation.
// It is immutable reporting data; the full per-segment detail is not stored.
type EvaluationRecord struct {
	ID          string
	RouteID     string
	FuelKg      float64
	TimeS       float64
	DistanceM   float64
	Feasible    bool
	Infeasible  int
	ClampEvents int
	CreatedAt   time.Time
}
