package repositories

import (
	"context"
	"fmt"
	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/ports"
	"sort"
	"sync"
)

// In-memory RouteRepository and EvaluationStore, used when no DATABASE_URL is
// configured and in tests. Safe for concurrent use.
type MemoryRouteRepository struct {
	mu          sync.RWMutex
	routes      map[string]domain.Route
	evaluations []domain.EvaluationRecord
}

func NewMemoryRouteRepository(routes ...domain.Route) *MemoryRouteRepository {
	m := &MemoryRouteRepository{routes: make(map[string]domain.Route, len(routes))}
	for _, r := range routes {
		m.routes[r.ID] = cloneRoute(r)
	}
	return m
}

func (m *MemoryRouteRepository) ListRoutes(ctx context.Context) ([]domain.RouteInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.RouteInfo, 0, len(m.routes))
	for _, r := range m.routes {
		out = append(out, domain.RouteInfo{ID: r.ID, Name: r.Name, PointCount: len(r.Points)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryRouteRepository) GetRoute(ctx context.Context, id string) (*domain.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.routes[id]
	if !ok {
		return nil, fmt.Errorf("get route id=%q: %w", id, ports.ErrRouteNotFound)
	}
	out := cloneRoute(r)
	return &out, nil
}

func (m *MemoryRouteRepository) SaveEvaluation(ctx context.Context, rec domain.EvaluationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evaluations = append(m.evaluations, rec)
	return nil
}

func (m *MemoryRouteRepository) ListEvaluations(ctx context.Context, routeID string, limit int) ([]domain.EvaluationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	out := make([]domain.EvaluationRecord, 0, limit)
	for i := len(m.evaluations) - 1; i >= 0 && len(out) < limit; i-- {
		if m.evaluations[i].RouteID == routeID {
			out = append(out, m.evaluations[i])
		}
	}
	return out, nil
}

func cloneRoute(r domain.Route) domain.Route {
	r.Points = append([]domain.GeoPoint(nil), r.Points...)
	return r
}
