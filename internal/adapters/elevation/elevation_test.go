package elevation

import (
	"context"
	"encoding/json"
	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/ports"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linePoints(n int) []domain.GeoPoint {
	pts := make([]domain.GeoPoint, n)
	for i := range pts {
		pts[i] = domain.GeoPoint{Lon: -3.19, Lat: 55.90 + float64(i)*1e-3}
	}
	return pts
}

// orsServer echoes each vertex back with height = lat*10.
func orsServer(t *testing.T, calls *atomic.Int32, fail func(call int32) int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		assert.Equal(t, "/elevation/line", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))

		if fail != nil {
			if code := fail(n); code != 0 {
				http.Error(w, "nope", code)
				return
			}
		}

		var req lineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		assert.LessOrEqual(t, len(req.Geometry), orsBatchSize)

		var resp lineResponse
		for _, c := range req.Geometry {
			resp.Geometry.Coordinates = append(resp.Geometry.Coordinates, []float64{c[0], c[1], c[1] * 10})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newTestORS(t *testing.T, url string) *ORSElevation {
	t.Helper()
	o, err := NewORSElevation("test-key", url, 1000, 1000)
	require.NoError(t, err)
	o.backoff = time.Millisecond
	return o
}

func TestORSElevationBatchesAndCaches(t *testing.T) {
	var calls atomic.Int32
	srv := orsServer(t, &calls, nil)
	defer srv.Close()

	o := newTestORS(t, srv.URL)
	pts := linePoints(150)

	got, err := o.Elevations(context.Background(), pts)
	require.NoError(t, err)
	require.Len(t, got, 150)
	assert.Equal(t, int32(2), calls.Load())
	for i, s := range got {
		assert.True(t, s.OK)
		assert.InDelta(t, pts[i].Lat*10, s.Meters, 1e-9)
	}

	_, err = o.Elevations(context.Background(), pts)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "second lookup should be served from cache")
}

func TestORSElevationSinglePoint(t *testing.T) {
	var calls atomic.Int32
	srv := orsServer(t, &calls, nil)
	defer srv.Close()

	got, err := newTestORS(t, srv.URL).Elevations(context.Background(), linePoints(1))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].OK)
}

func TestORSElevationRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := orsServer(t, &calls, func(n int32) int {
		if n == 1 {
			return http.StatusServiceUnavailable
		}
		return 0
	})
	defer srv.Close()

	got, err := newTestORS(t, srv.URL).Elevations(context.Background(), linePoints(3))
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 1.0, Coverage(got))
}

func TestORSElevationFailedBatchIsPartial(t *testing.T) {
	var calls atomic.Int32
	srv := orsServer(t, &calls, func(n int32) int {
		if n == 1 {
			return http.StatusBadRequest
		}
		return 0
	})
	defer srv.Close()

	got, err := newTestORS(t, srv.URL).Elevations(context.Background(), linePoints(120))
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "client errors are not retried")
	assert.False(t, got[0].OK)
	assert.True(t, got[119].OK)
	assert.InDelta(t, 20.0/120.0, Coverage(got), 1e-12)
}

func TestORSElevationCancelled(t *testing.T) {
	var calls atomic.Int32
	srv := orsServer(t, &calls, nil)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestORS(t, srv.URL).Elevations(ctx, linePoints(5))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewORSElevationRequiresKey(t *testing.T) {
	_, err := NewORSElevation(" ", "", 0, 0)
	assert.Error(t, err)
}

func TestOpenElevationLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/lookup", r.URL.Path)
		locs := strings.Split(r.URL.Query().Get("locations"), "|")

		var b strings.Builder
		b.WriteString(`{"results":[`)
		for i := range locs {
			if i > 0 {
				b.WriteString(",")
			}
			if i == 1 {
				b.WriteString(`{"elevation":null}`)
				continue
			}
			b.WriteString(`{"elevation":` + strconv.Itoa(100+i) + `}`)
		}
		b.WriteString(`]}`)
		_, _ = w.Write([]byte(b.String()))
	}))
	defer srv.Close()

	o := NewOpenElevation(srv.URL, 1000)
	got, err := o.Elevations(context.Background(), linePoints(3))
	require.NoError(t, err)
	assert.Equal(t, []ports.ElevationSample{
		{Meters: 100, OK: true},
		{},
		{Meters: 102, OK: true},
	}, got)
}

type countingProvider struct {
	ports.ElevationProvider
	calls int
}

func (c *countingProvider) Elevations(ctx context.Context, pts []domain.GeoPoint) ([]ports.ElevationSample, error) {
	c.calls++
	return c.ElevationProvider.Elevations(ctx, pts)
}

func TestFallbackElevation(t *testing.T) {
	pts := linePoints(10)
	sparse := NewMockElevation(func(lon, lat float64) (float64, bool) {
		return 1, lat < 55.9045
	})
	fallbackHeights := NewMockElevation(func(lon, lat float64) (float64, bool) {
		return 2, lat > 55.9005
	})

	t.Run("low coverage switches", func(t *testing.T) {
		secondary := &countingProvider{ElevationProvider: fallbackHeights}
		got, err := NewFallbackElevation(sparse, secondary).Elevations(context.Background(), pts)
		require.NoError(t, err)
		assert.Equal(t, 1, secondary.calls)
		assert.Equal(t, ports.ElevationSample{Meters: 1, OK: true}, got[0], "secondary gap keeps primary value")
		assert.Equal(t, ports.ElevationSample{Meters: 2, OK: true}, got[9])
	})

	t.Run("full coverage keeps primary", func(t *testing.T) {
		secondary := &countingProvider{ElevationProvider: fallbackHeights}
		got, err := NewFallbackElevation(NewFlatElevation(5), secondary).Elevations(context.Background(), pts)
		require.NoError(t, err)
		assert.Zero(t, secondary.calls)
		assert.Equal(t, 5.0, got[3].Meters)
	})
}
