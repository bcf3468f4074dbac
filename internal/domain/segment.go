package domain

// Represents the route interval between two consecutive waypoints.
// Segments are derived once from the waypoint sequence and never mutated.
type Segment struct {
	Length     float64 // 3D length, m
	Horizontal float64 // horizontal run, m
	Rise       float64 // vertical rise, m (negative downhill)
	Slope      float64 // rad
	Curvature  float64 // 1/m, larger of the two endpoint curvatures
}

// GradePercent returns rise over run as a percentage; zero-run segments report 0.
func (s Segment) GradePercent() float64 {
	if s.Horizontal == 0 {
		return 0
	}
	return s.Rise / s.Horizontal * 100
}
