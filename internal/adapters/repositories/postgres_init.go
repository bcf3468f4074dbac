package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"fuel-route-service/internal/domain"
	"math"
	"os"
	"strings"
)

// Initialize the Postgres schema for routes and evaluation summaries.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createRoutesQuery := `
	CREATE TABLE IF NOT EXISTS routes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);
	`

	createRoutePointsQuery := `
	CREATE TABLE IF NOT EXISTS route_points (
		route_id TEXT NOT NULL REFERENCES routes(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		lon DOUBLE PRECISION NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		elevation_m DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (route_id, seq)
	);
	`

	createEvaluationsQuery := `
	CREATE TABLE IF NOT EXISTS evaluations (
		id UUID PRIMARY KEY,
		route_id TEXT NOT NULL,
		fuel_kg DOUBLE PRECISION NOT NULL,
		time_s DOUBLE PRECISION NOT NULL,
		distance_m DOUBLE PRECISION NOT NULL,
		feasible BOOLEAN NOT NULL,
		infeasible_segments INTEGER NOT NULL,
		clamp_events INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_evaluations_route_created
	ON evaluations(route_id, created_at DESC);
	`

	statements := []string{
		createRoutesQuery,
		createRoutePointsQuery,
		createEvaluationsQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// RouteSeed is one route in the seed file. Points are [lon, lat, elevation_m].
type RouteSeed struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Points [][3]float64 `json:"points"`
}

// ParseRouteSeeds decodes and validates seed JSON into routes.
func ParseRouteSeeds(data []byte) ([]domain.Route, error) {
	var seeds []RouteSeed
	if err := json.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("parse route seeds: parse json: %w", err)
	}

	seen := make(map[string]struct{}, len(seeds))
	routes := make([]domain.Route, 0, len(seeds))
	for i, s := range seeds {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			return nil, fmt.Errorf("parse route seeds: item at index %d: id cannot be empty", i+1)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("parse route seeds: duplicate id %q", id)
		}
		seen[id] = struct{}{}

		if len(s.Points) < 2 {
			return nil, fmt.Errorf("parse route seeds: route %q: need at least 2 points, got %d", id, len(s.Points))
		}

		points := make([]domain.GeoPoint, len(s.Points))
		for j, p := range s.Points {
			lon, lat, elev := p[0], p[1], p[2]
			if lon < -180 || lon > 180 || lat < -90 || lat > 90 || math.IsNaN(elev) {
				return nil, fmt.Errorf("parse route seeds: route %q point %d: invalid %v", id, j, p)
			}
			points[j] = domain.GeoPoint{Lon: lon, Lat: lat, Elevation: elev}
		}

		name := strings.TrimSpace(s.Name)
		if name == "" {
			name = id
		}
		routes = append(routes, domain.Route{ID: id, Name: name, Points: points})
	}

	return routes, nil
}

// Populate the database with routes from a JSON seed file. Existing routes
// with the same id are replaced.
func SeedFromJSON(ctx context.Context, db *sql.DB, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed routes: read %q: %w", jsonPath, err)
	}

	routes, err := ParseRouteSeeds(bytes)
	if err != nil {
		return fmt.Errorf("seed routes: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed routes: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range routes {
		if err := insertRoute(ctx, tx, r); err != nil {
			return fmt.Errorf("seed routes: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed routes: commit tx: %w", err)
	}

	return nil
}

func insertRoute(ctx context.Context, tx *sql.Tx, r domain.Route) error {
	upsertRoute := `
	INSERT INTO routes (id, name)
	VALUES ($1, $2)
	ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name;
	`
	if _, err := tx.ExecContext(ctx, upsertRoute, r.ID, r.Name); err != nil {
		return fmt.Errorf("insert route id=%q: %w", r.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM route_points WHERE route_id = $1;`, r.ID); err != nil {
		return fmt.Errorf("clear points route_id=%q: %w", r.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO route_points (route_id, seq, lon, lat, elevation_m)
	VALUES ($1, $2, $3, $4, $5);
	`)
	if err != nil {
		return fmt.Errorf("prepare point insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range r.Points {
		if _, err := stmt.ExecContext(ctx, r.ID, i, p.Lon, p.Lat, p.Elevation); err != nil {
			return fmt.Errorf("insert point route_id=%q seq=%d: %w", r.ID, i, err)
		}
	}

	return nil
}
