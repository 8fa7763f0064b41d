package session

import "testing"

func TestAggregator_AvgTempo(t *testing.T) {
	a := NewAggregator()
	a.Observe(3.0, 10)
	a.Observe(2.0, 10)
	a.Observe(4.0, 10)

	s := a.Summary()
	if s.SwingCount != 3 {
		t.Errorf("Expected 3 swings, got %d", s.SwingCount)
	}
	if s.AvgTempo != 3.0 {
		t.Errorf("Expected average tempo 3.0, got %f", s.AvgTempo)
	}
}

func TestAggregator_ConsistencyBounds(t *testing.T) {
	a := NewAggregator()

	if got := a.Summary().Consistency; got != 100 {
		t.Errorf("Empty session: expected consistency 100, got %f", got)
	}

	a.Observe(3.0, 9.5)
	if got := a.Summary().Consistency; got != 100 {
		t.Errorf("Single swing: expected consistency 100, got %f", got)
	}

	// Identical swings have zero variance.
	a.Observe(3.0, 9.5)
	a.Observe(3.0, 9.5)
	if got := a.Summary().Consistency; got != 100 {
		t.Errorf("Identical swings: expected consistency 100, got %f", got)
	}
}

func TestAggregator_ConsistencyDecreasesWithVariance(t *testing.T) {
	steady := NewAggregator()
	steady.Observe(3.0, 10)
	steady.Observe(3.1, 10.5)
	steady.Observe(2.9, 9.5)

	wild := NewAggregator()
	wild.Observe(1.0, 3)
	wild.Observe(5.0, 14)
	wild.Observe(2.0, 7)

	steadyScore := steady.Summary().Consistency
	wildScore := wild.Summary().Consistency

	if steadyScore <= wildScore {
		t.Errorf("Expected steady session (%f) to outscore wild session (%f)", steadyScore, wildScore)
	}
	if wildScore < 0 || wildScore > 100 {
		t.Errorf("Consistency out of bounds: %f", wildScore)
	}
}

func TestAggregator_Reset(t *testing.T) {
	a := NewAggregator()
	a.Observe(3.0, 10)
	a.Observe(2.5, 8)
	a.Reset()

	s := a.Summary()
	if s.SwingCount != 0 || s.AvgTempo != 0 {
		t.Errorf("Expected zeroed summary after reset, got %+v", s)
	}
	if s.Consistency != 100 {
		t.Errorf("Expected consistency 100 after reset, got %f", s.Consistency)
	}
}

func TestAggregator_RecentWindowBounded(t *testing.T) {
	a := NewAggregator()

	// Early outliers must age out of the consistency window.
	a.Observe(9.0, 30)
	for i := 0; i < recentWindow; i++ {
		a.Observe(3.0, 10)
	}

	if got := a.Summary().Consistency; got != 100 {
		t.Errorf("Outlier should have aged out, got consistency %f", got)
	}
	if got := a.Summary().SwingCount; got != recentWindow+1 {
		t.Errorf("Swing count must cover the whole session, got %d", got)
	}
}
