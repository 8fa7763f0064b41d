// Package session maintains rolling statistics across completed swings
// within one practice session.
package session

import "math"

// recentWindow bounds how many swings feed the consistency score.
const recentWindow = 10

// Summary is the externally visible snapshot of session statistics.
type Summary struct {
	SwingCount  int     `json:"swingCount"`
	AvgTempo    float64 `json:"avgTempo"`
	Consistency float64 `json:"consistency"` // 0-100, higher is steadier
}

type swingMetrics struct {
	tempo float64
	peakG float64
}

// Aggregator folds finalized swing metrics into session totals. It performs
// no locking; it is owned by the detector and mutated only under the
// detector's lock.
type Aggregator struct {
	count    int
	tempoSum float64
	recent   []swingMetrics
}

func NewAggregator() *Aggregator {
	return &Aggregator{recent: make([]swingMetrics, 0, recentWindow)}
}

// Observe folds one finalized swing into the session accumulators.
func (a *Aggregator) Observe(tempoRatio, peakAccel float64) {
	a.count++
	a.tempoSum += tempoRatio

	a.recent = append(a.recent, swingMetrics{tempo: tempoRatio, peakG: peakAccel})
	if len(a.recent) > recentWindow {
		a.recent = a.recent[1:]
	}
}

// Reset clears all session accumulators.
func (a *Aggregator) Reset() {
	a.count = 0
	a.tempoSum = 0
	a.recent = a.recent[:0]
}

// Summary returns the current session statistics.
func (a *Aggregator) Summary() Summary {
	s := Summary{SwingCount: a.count, Consistency: a.consistency()}
	if a.count > 0 {
		s.AvgTempo = a.tempoSum / float64(a.count)
	}
	return s
}

// consistency scores the variability of recent swings on a 0-100 scale.
// The score is 100 minus the blended coefficient of variation of tempo
// ratio and peak G across the recent window, so it is non-increasing in
// metric variance and saturates at both bounds. Fewer than two swings
// score a full 100.
func (a *Aggregator) consistency() float64 {
	if len(a.recent) < 2 {
		return 100
	}

	tempos := make([]float64, len(a.recent))
	peaks := make([]float64, len(a.recent))
	for i, m := range a.recent {
		tempos[i] = m.tempo
		peaks[i] = m.peakG
	}

	cv := (variationCoefficient(tempos) + variationCoefficient(peaks)) / 2
	score := 100 * (1 - math.Min(1, cv))
	return math.Max(0, math.Min(100, score))
}

func variationCoefficient(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if mean == 0 {
		return 0
	}

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(values)))

	return math.Abs(std / mean)
}
