package domain

// SpeedProfile holds one speed (m/s) per route node.
type SpeedProfile []float64

// Clone returns an independent copy of the profile.
func (p SpeedProfile) Clone() SpeedProfile {
	if p == nil {
		return nil
	}
	out := make(SpeedProfile, len(p))
	copy(out, p)
	return out
}

// Segment returns the mean speed over segment i (nodes i and i+1).
func (p SpeedProfile) Segment(i int) float64 {
	return 0.5 * (p[i] + p[i+1])
}

// Mean returns the average node speed, or 0 for an empty profile.
func (p SpeedProfile) Mean() float64 {
	if len(p) == 0 {
		return 0
	}
	var sum float64
	for _, v := range p {
		sum += v
	}
	return sum / float64(len(p))
}
