package elevation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/platform/obs"
	"fuel-route-service/internal/ports"
	"log"
	"math"
	"net/http"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// ORS accepts at most this many points per elevation/line request.
const orsBatchSize = 100

type pointKey [2]float64

func keyOf(p domain.GeoPoint) pointKey {
	return pointKey{math.Round(p.Lon*1e6) / 1e6, math.Round(p.Lat*1e6) / 1e6}
}

type lineRequest struct {
	FormatIn  string      `json:"format_in"`
	FormatOut string      `json:"format_out"`
	Geometry  [][]float64 `json:"geometry"`
}

type lineResponse struct {
	Geometry struct {
		Coordinates [][]float64 `json:"coordinates"`
	} `json:"geometry"`
}

// ORSElevation implements ElevationProvider using the OpenRouteService
// elevation/line endpoint.
//
// Points are sent in batches, paced by a rate limiter, and resolved values are
// kept in an in-process LRU. A failed batch yields samples with OK=false rather
// than an error. The provider is safe for concurrent use.
type ORSElevation struct {
	requester
	baseURL string
	limiter *rate.Limiter
	cache   *lru.Cache[pointKey, float64]
}

// NewORSElevation builds the ORS adapter. rps bounds batch requests per second;
// cacheSize is the number of points remembered.
func NewORSElevation(apiKey, baseURL string, rps float64, cacheSize int) (*ORSElevation, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}
	if baseURL == "" {
		baseURL = "https://api.openrouteservice.org"
	}
	if rps <= 0 {
		rps = 5
	}
	if cacheSize <= 0 {
		cacheSize = 10000
	}

	cache, err := lru.New[pointKey, float64](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("new ors elevation: %w", err)
	}

	return &ORSElevation{
		requester: newRequester(apiKey),
		baseURL:   strings.TrimRight(baseURL, "/"),
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		cache:     cache,
	}, nil
}

func (o *ORSElevation) Elevations(ctx context.Context, points []domain.GeoPoint) (_ []ports.ElevationSample, err error) {
	defer obs.Time(ctx, "elevation.ors.Elevations")(&err)

	out := make([]ports.ElevationSample, len(points))
	missing := make([]int, 0, len(points))
	for i, p := range points {
		if z, ok := o.cache.Get(keyOf(p)); ok {
			out[i] = ports.ElevationSample{Meters: z, OK: true}
			continue
		}
		missing = append(missing, i)
	}

	for start := 0; start < len(missing); start += orsBatchSize {
		idx := missing[start:min(start+orsBatchSize, len(missing))]

		if err := o.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("ors elevation: %w", err)
		}

		batch := make([]domain.GeoPoint, len(idx))
		for j, i := range idx {
			batch[j] = points[i]
		}

		zs, err := o.fetchLine(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("ors elevation: %w", ctx.Err())
			}
			log.Printf("req_id=%s op=elevation.ors batch=%d points=%d err=%v",
				obs.RequestID(ctx), start/orsBatchSize+1, len(batch), err)
			continue
		}

		for j, i := range idx {
			out[i] = ports.ElevationSample{Meters: zs[j], OK: true}
			o.cache.Add(keyOf(points[i]), zs[j])
		}
	}

	return out, nil
}

// fetchLine returns one elevation per point in batch.
func (o *ORSElevation) fetchLine(ctx context.Context, batch []domain.GeoPoint) ([]float64, error) {
	geometry := make([][]float64, 0, max(len(batch), 2))
	for _, p := range batch {
		geometry = append(geometry, p.CoordsToList())
	}
	// A line needs two vertices.
	if len(geometry) == 1 {
		geometry = append(geometry, geometry[0])
	}

	payload, err := json.Marshal(lineRequest{FormatIn: "polyline", FormatOut: "geojson", Geometry: geometry})
	if err != nil {
		return nil, fmt.Errorf("marshal elevation request: %w", err)
	}

	endpoint := o.baseURL + "/elevation/line"
	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return nil, fmt.Errorf("elevation request failed: %w", err)
	}
	defer resp.Body.Close()

	var lr lineResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("decode elevation response: %w", err)
	}

	coords := lr.Geometry.Coordinates
	if len(coords) < len(batch) {
		return nil, fmt.Errorf("elevation response has %d points, want %d", len(coords), len(batch))
	}

	out := make([]float64, len(batch))
	for i := range batch {
		if len(coords[i]) < 3 {
			return nil, fmt.Errorf("elevation response point %d has no height", i)
		}
		out[i] = coords[i][2]
	}
	return out, nil
}
