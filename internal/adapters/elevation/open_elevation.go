package elevation

import (
	"context"
	"encoding/json"
	"fmt"
	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/platform/obs"
	"fuel-route-service/internal/ports"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"
)

const openElevationBatchSize = 100

type lookupResponse struct {
	Results []struct {
		Elevation *float64 `json:"elevation"`
	} `json:"results"`
}

// OpenElevation implements ElevationProvider against an Open-Elevation
// compatible /api/v1/lookup endpoint. No credentials are needed.
type OpenElevation struct {
	requester
	baseURL string
	limiter *rate.Limiter
}

func NewOpenElevation(baseURL string, rps float64) *OpenElevation {
	if baseURL == "" {
		baseURL = "https://api.open-elevation.com"
	}
	if rps <= 0 {
		rps = 2
	}
	return &OpenElevation{
		requester: newRequester(""),
		baseURL:   strings.TrimRight(baseURL, "/"),
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (o *OpenElevation) Elevations(ctx context.Context, points []domain.GeoPoint) (_ []ports.ElevationSample, err error) {
	defer obs.Time(ctx, "elevation.open.Elevations")(&err)

	out := make([]ports.ElevationSample, len(points))
	for start := 0; start < len(points); start += openElevationBatchSize {
		batch := points[start:min(start+openElevationBatchSize, len(points))]

		if err := o.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("open elevation: %w", err)
		}

		samples, err := o.lookup(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("open elevation: %w", ctx.Err())
			}
			log.Printf("req_id=%s op=elevation.open batch=%d points=%d err=%v",
				obs.RequestID(ctx), start/openElevationBatchSize+1, len(batch), err)
			continue
		}
		copy(out[start:], samples)
	}
	return out, nil
}

func (o *OpenElevation) lookup(ctx context.Context, batch []domain.GeoPoint) ([]ports.ElevationSample, error) {
	locs := make([]string, len(batch))
	for i, p := range batch {
		locs[i] = strconv.FormatFloat(p.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lon, 'f', 6, 64)
	}
	endpoint := o.baseURL + "/api/v1/lookup?locations=" + url.QueryEscape(strings.Join(locs, "|"))

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	var lr lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("decode lookup response: %w", err)
	}
	if len(lr.Results) != len(batch) {
		return nil, fmt.Errorf("lookup returned %d results, want %d", len(lr.Results), len(batch))
	}

	out := make([]ports.ElevationSample, len(batch))
	for i, r := range lr.Results {
		if r.Elevation != nil {
			out[i] = ports.ElevationSample{Meters: *r.Elevation, OK: true}
		}
	}
	return out, nil
}
