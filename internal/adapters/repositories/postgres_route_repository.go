package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/platform/obs"
	"fuel-route-service/internal/ports"
)

// Postgres-backed implementation of the RouteRepository and EvaluationStore ports.
type PostgresRouteRepository struct{ DB *sql.DB }

func NewPostgresRouteRepository(db *sql.DB) *PostgresRouteRepository {
	return &PostgresRouteRepository{DB: db}
}

// Return every stored route with its point count.
func (s *PostgresRouteRepository) ListRoutes(ctx context.Context) (_ []domain.RouteInfo, err error) {
	defer obs.Time(ctx, "routes.ListRoutes")(&err)

	if s.DB == nil {
		return nil, errors.New("postgres route repository: DB is nil")
	}

	query := `
	SELECT
		r.id,
		r.name,
		COUNT(p.seq)
	FROM routes r
	LEFT JOIN route_points p ON p.route_id = r.id
	GROUP BY r.id, r.name
	ORDER BY r.id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list routes: query routes table: %w", err)
	}
	defer rows.Close()

	routes := make([]domain.RouteInfo, 0, 16)
	for rows.Next() {
		var info domain.RouteInfo
		if err := rows.Scan(&info.ID, &info.Name, &info.PointCount); err != nil {
			return nil, fmt.Errorf("list routes: scan row: %w", err)
		}
		routes = append(routes, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list routes: row iteration: %w", err)
	}

	return routes, nil
}

// Return the route with the given id, or ports.ErrRouteNotFound.
func (s *PostgresRouteRepository) GetRoute(ctx context.Context, id string) (_ *domain.Route, err error) {
	defer obs.Time(ctx, "routes.GetRoute")(&err)

	if s.DB == nil {
		return nil, errors.New("postgres route repository: DB is nil")
	}

	route := &domain.Route{ID: id}
	err = s.DB.QueryRowContext(ctx, `SELECT name FROM routes WHERE id = $1;`, id).Scan(&route.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get route id=%q: %w", id, ports.ErrRouteNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get route id=%q: %w", id, err)
	}

	query := `
	SELECT lon, lat, elevation_m
	FROM route_points
	WHERE route_id = $1
	ORDER BY seq;
	`
	rows, err := s.DB.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("get route id=%q: query points: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.GeoPoint
		if err := rows.Scan(&p.Lon, &p.Lat, &p.Elevation); err != nil {
			return nil, fmt.Errorf("get route id=%q: scan point: %w", id, err)
		}
		route.Points = append(route.Points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get route id=%q: row iteration: %w", id, err)
	}

	return route, nil
}

// Store one evaluation summary.
func (s *PostgresRouteRepository) SaveEvaluation(ctx context.Context, rec domain.EvaluationRecord) (err error) {
	defer obs.Time(ctx, "evaluations.Save")(&err)

	if s.DB == nil {
		return errors.New("postgres route repository: DB is nil")
	}

	query := `
	INSERT INTO evaluations (
		id, route_id, fuel_kg, time_s, distance_m,
		feasible, infeasible_segments, clamp_events, created_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err = s.DB.ExecContext(ctx, query,
		rec.ID, rec.RouteID, rec.FuelKg, rec.TimeS, rec.DistanceM,
		rec.Feasible, rec.Infeasible, rec.ClampEvents, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save evaluation id=%s: %w", rec.ID, err)
	}
	return nil
}

// Return up to limit evaluations of routeID, newest first.
func (s *PostgresRouteRepository) ListEvaluations(ctx context.Context, routeID string, limit int) (_ []domain.EvaluationRecord, err error) {
	defer obs.Time(ctx, "evaluations.List")(&err)

	if s.DB == nil {
		return nil, errors.New("postgres route repository: DB is nil")
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
	SELECT id, route_id, fuel_kg, time_s, distance_m,
		feasible, infeasible_segments, clamp_events, created_at
	FROM evaluations
	WHERE route_id = $1
	ORDER BY created_at DESC
	LIMIT $2;
	`
	rows, err := s.DB.QueryContext(ctx, query, routeID, limit)
	if err != nil {
		return nil, fmt.Errorf("list evaluations route_id=%q: %w", routeID, err)
	}
	defer rows.Close()

	out := make([]domain.EvaluationRecord, 0, limit)
	for rows.Next() {
		var rec domain.EvaluationRecord
		if err := rows.Scan(
			&rec.ID, &rec.RouteID, &rec.FuelKg, &rec.TimeS, &rec.DistanceM,
			&rec.Feasible, &rec.Infeasible, &rec.ClampEvents, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("list evaluations: scan row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list evaluations: row iteration: %w", err)
	}

	return out, nil
}
