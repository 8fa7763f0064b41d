package swing

import "time"

// Analytics is the per-swing measurement record. It is built incrementally
// by the detector while a swing is in progress and must be treated as
// immutable once it has been published on the event stream.
type Analytics struct {
	StartTime  time.Time `json:"startTime"`
	ImpactTime time.Time `json:"impactTime"`

	BackswingDuration time.Duration `json:"backswingDuration"`
	DownswingDuration time.Duration `json:"downswingDuration"`
	TotalDuration     time.Duration `json:"totalDuration"`

	PeakAccel    float64 `json:"peakAccel"`    // peak G during the downswing
	PeakRotation float64 `json:"peakRotation"` // peak rotation rate, rad/s

	ImpactDetected     bool    `json:"impactDetected"`
	ImpactDeceleration float64 `json:"impactDeceleration"`

	PeakHandSpeed float64 `json:"peakHandSpeed"` // mph, derived
	ClubheadSpeed float64 `json:"clubheadSpeed"` // mph, derived

	Path Path `json:"path"`
	Type Type `json:"type"`

	// Bounded tails of raw magnitudes retained for offline analysis.
	// Optional downstream; may be empty.
	AccelTail    []float64 `json:"accelTail,omitempty"`
	RotationTail []float64 `json:"rotationTail,omitempty"`
}

// TempoRatio is backswing duration over downswing duration, the canonical
// golf tempo metric. Returns 0 when the downswing duration is unknown.
func (a *Analytics) TempoRatio() float64 {
	if a.DownswingDuration <= 0 {
		return 0
	}
	return float64(a.BackswingDuration) / float64(a.DownswingDuration)
}
