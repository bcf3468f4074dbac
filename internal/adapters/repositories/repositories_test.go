package repositories

import (
	"context"
	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/ports"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRouteSeeds(t *testing.T) {
	data := []byte(`[
		{"id": "b-hill", "name": "Hill", "points": [[-3.19, 55.95, 60], [-3.18, 55.96, 75.5]]},
		{"id": "a-flat", "points": [[0, 51.5, 10], [0.01, 51.5, 10], [0.02, 51.5, 10]]}
	]`)

	routes, err := ParseRouteSeeds(data)
	require.NoError(t, err)
	require.Len(t, routes, 2)

	assert.Equal(t, "Hill", routes[0].Name)
	assert.Equal(t, domain.GeoPoint{Lon: -3.18, Lat: 55.96, Elevation: 75.5}, routes[0].Points[1])
	assert.Equal(t, "a-flat", routes[1].Name, "name defaults to id")
}

func TestParseRouteSeedsRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad json":     `{`,
		"empty id":     `[{"id": " ", "points": [[0,0,0],[1,1,1]]}]`,
		"one point":    `[{"id": "x", "points": [[0,0,0]]}]`,
		"bad latitude": `[{"id": "x", "points": [[0,95,0],[1,1,1]]}]`,
		"duplicate":    `[{"id": "x", "points": [[0,0,0],[1,1,1]]}, {"id": "x", "points": [[0,0,0],[1,1,1]]}]`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRouteSeeds([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestSeedFromJSONMissingFile(t *testing.T) {
	err := SeedFromJSON(context.Background(), nil, filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "seed routes: read")
}

func TestCommittedSeedFileParses(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "..", "data", "seeds", "routes.json"))
	require.NoError(t, err)

	routes, err := ParseRouteSeeds(data)
	require.NoError(t, err)
	assert.NotEmpty(t, routes)
}

func TestMemoryRouteRepository(t *testing.T) {
	ctx := context.Background()
	pts := []domain.GeoPoint{{Lon: 0, Lat: 0}, {Lon: 0.001, Lat: 0}}
	repo := NewMemoryRouteRepository(
		domain.Route{ID: "b", Name: "B", Points: pts},
		domain.Route{ID: "a", Name: "A", Points: pts[:1]},
	)

	list, err := repo.ListRoutes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.RouteInfo{{ID: "a", Name: "A", PointCount: 1}, {ID: "b", Name: "B", PointCount: 2}}, list)

	r, err := repo.GetRoute(ctx, "b")
	require.NoError(t, err)
	r.Points[0].Lon = 42
	again, _ := repo.GetRoute(ctx, "b")
	assert.Equal(t, 0.0, again.Points[0].Lon, "returned routes must not alias stored points")

	_, err = repo.GetRoute(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrRouteNotFound)
}

func TestMemoryEvaluationsNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRouteRepository()
	now := time.Now()
	for i, id := range []string{"1", "2", "3"} {
		require.NoError(t, repo.SaveEvaluation(ctx, domain.EvaluationRecord{
			ID: id, RouteID: "r", CreatedAt: now.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, repo.SaveEvaluation(ctx, domain.EvaluationRecord{ID: "x", RouteID: "other"}))

	got, err := repo.ListEvaluations(ctx, "r", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "3", got[0].ID)
	assert.Equal(t, "2", got[1].ID)
}
