package services

import "errors"

var (
	// ErrTooFewWaypoints is returned when a route has fewer than two nodes.
	ErrTooFewWaypoints = errors.New("route needs at least two waypoints")
	// ErrLengthMismatch is returned when per-node and per-segment columns disagree.
	ErrLengthMismatch = errors.New("route columns have mismatched lengths")
	// ErrGearInfeasible is returned when no gear can deliver the required engine torque.
	ErrGearInfeasible = errors.New("no gear satisfies the torque envelope")
	// ErrInvalidEngineMap is returned for unusable torque or consumption tables.
	ErrInvalidEngineMap = errors.New("invalid engine map")
	// ErrInvalidBounds is returned for empty or inverted optimizer speed bounds.
	ErrInvalidBounds = errors.New("invalid optimizer bounds")
	// ErrInvalidRequest is returned when an evaluation request names no route or several.
	ErrInvalidRequest = errors.New("invalid evaluation request")
	// ErrNonConvergent marks an optimizer result that stopped before satisfying its constraints.
	ErrNonConvergent = errors.New("optimizer did not converge")
)
