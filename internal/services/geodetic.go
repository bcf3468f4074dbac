package services

import (
	"fmt"
	"fuel-route-service/internal/domain"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// ProjectGeodetic converts lon/lat/elevation points to local east/north/up metres
// centred on the first point (azimuthal equidistant: haversine range and initial bearing).
func ProjectGeodetic(points []domain.GeoPoint) ([]domain.Waypoint, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("project geodetic: %d points: %w", len(points), ErrTooFewWaypoints)
	}

	origin := orb.Point{points[0].Lon, points[0].Lat}
	out := make([]domain.Waypoint, len(points))

	for i, p := range points {
		if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
			return nil, fmt.Errorf("project geodetic: point %d out of range (lon=%v lat=%v)", i, p.Lon, p.Lat)
		}

		pt := orb.Point{p.Lon, p.Lat}
		r := geo.DistanceHaversine(origin, pt)
		bearing := geo.Bearing(origin, pt) * math.Pi / 180

		out[i] = domain.Waypoint{
			X: r * math.Sin(bearing),
			Y: r * math.Cos(bearing),
			Z: p.Elevation,
		}
	}

	return out, nil
}

// GeometryFromGeodetic projects geodetic points and derives their Geometry.
func GeometryFromGeodetic(points []domain.GeoPoint) (*Geometry, error) {
	waypoints, err := ProjectGeodetic(points)
	if err != nil {
		return nil, err
	}
	return NewGeometry(waypoints)
}
