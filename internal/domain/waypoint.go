package domain

// Waypoint is a route node in local metric coordinates (east, north, up).
type Waypoint struct {
	X float64
	Y float64
	Z float64
}

// GeoPoint is a route node as delivered by mapping services (longitude, latitude, elevation).
type GeoPoint struct {
	Lon       float64
	Lat       float64
	Elevation float64
}

// Return coordinates as [lon, lat] for external API compatibility.
func (p GeoPoint) CoordsToList() []float64 { return []float64{p.Lon, p.Lat} }
