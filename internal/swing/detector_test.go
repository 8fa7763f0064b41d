package swing

import (
	"errors"
	"testing"
	"time"

	"github.com/swingworks/swingsense/internal/motion"
)

const sampleStep = 10 * time.Millisecond // 100 Hz

// feeder drives a detector with a synthetic 100 Hz sample stream.
type feeder struct {
	t   *testing.T
	d   *Detector
	now time.Time
}

func newFeeder(t *testing.T, d *Detector) *feeder {
	t.Helper()
	return &feeder{t: t, d: d, now: time.Unix(1000, 0)}
}

// feed pushes a single sample and advances the clock by one step.
func (f *feeder) feed(accel, rotation, rotationX float64) {
	f.t.Helper()
	err := f.d.Process(motion.Sample{
		Timestamp: f.now,
		Accel:     accel,
		Rotation:  rotation,
		RotationX: rotationX,
	})
	if err != nil {
		f.t.Fatalf("Process failed at %s: %v", f.now, err)
	}
	f.now = f.now.Add(sampleStep)
}

func (f *feeder) feedN(n int, accel, rotation float64) {
	f.t.Helper()
	for i := 0; i < n; i++ {
		f.feed(accel, rotation, 0)
	}
}

// drain collects everything currently on the event stream.
func drain(d *Detector) []Event {
	var events []Event
	for {
		select {
		case e := <-d.Events():
			events = append(events, e)
		default:
			return events
		}
	}
}

func phaseSequence(events []Event) []Phase {
	var phases []Phase
	for _, e := range events {
		if pc, ok := e.(PhaseChanged); ok {
			phases = append(phases, pc.To)
		}
	}
	return phases
}

func completedSwings(events []Event) []*Analytics {
	var swings []*Analytics
	for _, e := range events {
		if sc, ok := e.(SwingCompleted); ok {
			swings = append(swings, sc.Analytics)
		}
	}
	return swings
}

func newTestDetector(t *testing.T) *Detector {
	t.Helper()
	d, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create detector: %v", err)
	}
	return d
}

// feedFullSwing drives one complete swing with an impact signature:
// stillness, backswing, top, downswing ramp, spike-and-drop, settle.
func feedFullSwing(f *feeder) {
	f.feedN(60, 1.0, 0.1) // address stability, 0.6s
	f.feedN(60, 2.0, 2.5) // backswing, 0.6s
	f.feed(1.0, 0.3, 0)   // deceleration signature at the top
	f.feed(5.0, 2.0, 0)   // downswing trigger
	f.feedN(5, 5.0, 4.0)
	for _, accel := range []float64{6.5, 8.5, 10.0, 12.0, 7.0, 3.0} {
		f.feed(accel, 6.0, 0)
	}
	f.feed(1.0, 0.2, 0) // settle
}

func TestDetector_StaysIdleWithoutStability(t *testing.T) {
	d := newTestDetector(t)
	f := newFeeder(t, d)

	// Gentle motion: above the stability thresholds, below the backswing
	// thresholds. Nothing here should ever look like a swing.
	for i := 0; i < 300; i++ {
		f.feed(1.4, 1.2, 0)
	}

	events := drain(d)
	if len(events) != 0 {
		t.Fatalf("Expected no events, got %d (%v)", len(events), events)
	}
	if snap := d.Snapshot(); snap.Phase != PhaseIdle {
		t.Errorf("Expected phase idle, got %s", snap.Phase)
	}
}

func TestDetector_FullSwingPhaseSequence(t *testing.T) {
	d := newTestDetector(t)
	f := newFeeder(t, d)

	feedFullSwing(f)

	events := drain(d)
	swings := completedSwings(events)
	if len(swings) != 1 {
		t.Fatalf("Expected exactly one completed swing, got %d", len(swings))
	}

	want := []Phase{
		PhaseAddress,
		PhaseBackswing,
		PhaseTopOfSwing,
		PhaseDownswing,
		PhaseImpact,
		PhaseFollowThrough,
		PhaseFinished,
		PhaseIdle,
	}
	got := phaseSequence(events)
	if len(got) != len(want) {
		t.Fatalf("Expected phase sequence %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Phase %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	a := swings[0]
	if !a.ImpactDetected {
		t.Error("Expected impact to be detected")
	}
	if a.ImpactDeceleration != 9.0 {
		t.Errorf("Expected impact deceleration 9.0, got %f", a.ImpactDeceleration)
	}
	if a.PeakAccel != 12.0 {
		t.Errorf("Expected peak acceleration 12.0, got %f", a.PeakAccel)
	}
	if a.Type != TypeFullSwing {
		t.Errorf("Expected full swing, got %s", a.Type)
	}
	if a.Path != PathNeutral {
		t.Errorf("Expected neutral path, got %s", a.Path)
	}
	if a.TotalDuration != a.BackswingDuration+a.DownswingDuration {
		t.Errorf("Total duration %s != backswing %s + downswing %s",
			a.TotalDuration, a.BackswingDuration, a.DownswingDuration)
	}
	if len(a.AccelTail) == 0 || len(a.AccelTail) > RetainedTailSize {
		t.Errorf("Retained tail out of bounds: %d samples", len(a.AccelTail))
	}

	if snap := d.Snapshot(); snap.Phase != PhaseIdle || snap.LastSwing != a {
		t.Errorf("Expected idle snapshot with last swing set, got %+v", snap)
	}
}

func TestDetector_TempoRatioIdentity(t *testing.T) {
	d := newTestDetector(t)
	f := newFeeder(t, d)

	feedFullSwing(f)

	swings := completedSwings(drain(d))
	if len(swings) != 1 {
		t.Fatalf("Expected one swing, got %d", len(swings))
	}

	a := swings[0]
	want := float64(a.BackswingDuration) / float64(a.DownswingDuration)
	if got := a.TempoRatio(); got != want {
		t.Errorf("Tempo ratio %f does not match duration ratio %f", got, want)
	}
	if a.TempoRatio() <= 2.0 {
		t.Errorf("Synthetic swing should be brisk, tempo %f", a.TempoRatio())
	}
}

func TestDetector_BackswingTooLongCancels(t *testing.T) {
	d := newTestDetector(t)
	f := newFeeder(t, d)

	// Fast start straight into backswing, then hold it for 3 seconds with
	// no top-of-swing signature. The motion continues past the cancellation,
	// so the detector is free to re-arm a fresh backswing afterwards; what
	// must happen is the cancel transition itself, with nothing published.
	f.feedN(300, 2.5, 2.5)

	events := drain(d)
	if swings := completedSwings(events); len(swings) != 0 {
		t.Fatalf("Expected zero completed swings, got %d", len(swings))
	}

	var cancelled bool
	for _, e := range events {
		if pc, ok := e.(PhaseChanged); ok && pc.From == PhaseBackswing && pc.To == PhaseIdle {
			cancelled = true
		}
	}
	if !cancelled {
		t.Fatalf("Expected a backswing-to-idle cancellation, got %v", phaseSequence(events))
	}

	snap := d.Snapshot()
	if snap.Session.SwingCount != 0 {
		t.Errorf("Cancelled swing must not count, got %d", snap.Session.SwingCount)
	}
	if snap.LastSwing != nil {
		t.Error("Cancelled swing must not become the last record")
	}
}

func TestDetector_BackswingTooLongReturnsToIdle(t *testing.T) {
	d := newTestDetector(t)
	f := newFeeder(t, d)

	// Stop feeding exactly when the 2.5s bound trips: without further
	// motion the detector must rest in idle with nothing in progress.
	f.feedN(252, 2.5, 2.5)

	phases := phaseSequence(drain(d))
	if len(phases) == 0 || phases[len(phases)-1] != PhaseIdle {
		t.Fatalf("Expected cancellation back to idle, got %v", phases)
	}

	snap := d.Snapshot()
	if snap.Phase != PhaseIdle || snap.SwingInProgress {
		t.Errorf("Expected idle with no swing in progress, got %+v", snap)
	}
}

func TestDetector_TransitionTooSlowCancels(t *testing.T) {
	d := newTestDetector(t)
	f := newFeeder(t, d)

	f.feedN(60, 2.5, 2.5) // backswing via fast start
	f.feed(1.0, 0.3, 0)   // top
	f.feedN(110, 1.0, 0.3) // hang at the top for over a second

	events := drain(d)
	if swings := completedSwings(events); len(swings) != 0 {
		t.Fatalf("Expected zero completed swings, got %d", len(swings))
	}

	phases := phaseSequence(events)
	var sawTransition bool
	for _, p := range phases {
		if p == PhaseTransition {
			sawTransition = true
		}
	}
	if !sawTransition {
		t.Errorf("Expected transition phase in %v", phases)
	}
	if phases[len(phases)-1] != PhaseIdle {
		t.Errorf("Expected cancellation back to idle, got %v", phases)
	}
}

func TestDetector_MaxDownswingAdvancesWithoutImpact(t *testing.T) {
	d := newTestDetector(t)
	f := newFeeder(t, d)

	f.feedN(60, 2.5, 2.5) // backswing via fast start
	f.feed(1.0, 0.3, 0)   // top
	f.feedN(85, 5.0, 3.0) // downswing drags past the 0.8s bound, no impact spike
	f.feed(1.0, 0.2, 0)   // settle

	swings := completedSwings(drain(d))
	if len(swings) != 1 {
		t.Fatalf("Expected one completed swing, got %d", len(swings))
	}

	a := swings[0]
	if a.ImpactDetected {
		t.Error("Expected no impact flag on max-duration advance")
	}
	if a.DownswingDuration <= maxDownswing {
		t.Errorf("Expected recorded downswing beyond %s, got %s", maxDownswing, a.DownswingDuration)
	}
}

func TestDetector_NonMonotonicSampleRejected(t *testing.T) {
	d := newTestDetector(t)

	base := time.Unix(1000, 0)
	if err := d.Process(motion.Sample{Timestamp: base, Accel: 1.0}); err != nil {
		t.Fatalf("First sample failed: %v", err)
	}

	err := d.Process(motion.Sample{Timestamp: base.Add(-time.Millisecond), Accel: 9.0, Rotation: 9.0})
	if !errors.Is(err, ErrNonMonotonicSample) {
		t.Fatalf("Expected ErrNonMonotonicSample, got %v", err)
	}

	// The rejected sample must not have leaked into detector state.
	snap := d.Snapshot()
	if snap.Phase != PhaseIdle || snap.SwingInProgress {
		t.Errorf("Rejected sample corrupted state: %+v", snap)
	}
	if snap.LiveRotation != 0 {
		t.Errorf("Rejected sample updated live readouts: %+v", snap)
	}

	// Equal timestamps are fine.
	if err := d.Process(motion.Sample{Timestamp: base, Accel: 1.0}); err != nil {
		t.Errorf("Equal timestamp should be accepted: %v", err)
	}
}

func TestDetector_ResetSessionMidSwing(t *testing.T) {
	d := newTestDetector(t)
	f := newFeeder(t, d)

	feedFullSwing(f)      // one completed swing on the books
	f.feedN(30, 2.5, 2.5) // and a second one mid-backswing

	if snap := d.Snapshot(); !snap.SwingInProgress || snap.Session.SwingCount != 1 {
		t.Fatalf("Setup failed: %+v", snap)
	}

	d.ResetSession()

	snap := d.Snapshot()
	if snap.Phase != PhaseIdle {
		t.Errorf("Expected idle after session reset, got %s", snap.Phase)
	}
	if snap.SwingInProgress {
		t.Error("Expected no swing in progress after session reset")
	}
	if snap.Session.SwingCount != 0 || snap.Session.AvgTempo != 0 {
		t.Errorf("Expected zeroed session stats, got %+v", snap.Session)
	}
	if snap.LastSwing != nil {
		t.Error("Expected last swing cleared after session reset")
	}
}

func TestDetector_ForceComplete(t *testing.T) {
	d := newTestDetector(t)

	if a := d.ForceComplete(); a != nil {
		t.Fatalf("ForceComplete with no swing in progress should return nil, got %+v", a)
	}

	f := newFeeder(t, d)
	f.feedN(30, 2.5, 2.5) // mid-backswing
	drain(d)

	a := d.ForceComplete()
	if a == nil {
		t.Fatal("Expected a finalized record from ForceComplete")
	}
	if a.BackswingDuration <= 0 {
		t.Errorf("Expected measured backswing duration, got %s", a.BackswingDuration)
	}
	if a.ImpactDetected {
		t.Error("Forced completion must not claim an impact")
	}

	if swings := completedSwings(drain(d)); len(swings) != 1 || swings[0] != a {
		t.Error("ForceComplete must publish the record on the event stream")
	}
	if snap := d.Snapshot(); snap.Phase != PhaseIdle || snap.Session.SwingCount != 1 {
		t.Errorf("Expected idle with one counted swing, got %+v", snap)
	}
}

func TestDetector_LiveReadouts(t *testing.T) {
	d := newTestDetector(t)
	f := newFeeder(t, d)

	f.feed(2.0, 1.7, 0)

	snap := d.Snapshot()
	if snap.LiveHandSpeed != 2.0*handSpeedFactor {
		t.Errorf("Expected live hand speed %f, got %f", 2.0*handSpeedFactor, snap.LiveHandSpeed)
	}
	if snap.LiveRotation != 1.7 {
		t.Errorf("Expected live rotation 1.7, got %f", snap.LiveRotation)
	}
}

func TestDetector_SensitivityScalesThresholds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sensitivity = 1.5
	d, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create detector: %v", err)
	}
	f := newFeeder(t, d)

	// Over the default backswing thresholds but under the scaled ones
	// (2.25 G, 3.0 rad/s): a conservative detector must not trigger.
	f.feedN(50, 2.0, 2.5)

	if snap := d.Snapshot(); snap.SwingInProgress {
		t.Error("Scaled thresholds should have suppressed the fast start")
	}
}

func TestDetector_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"sensitivity too low", func(c *Config) { c.Sensitivity = 0.4 }},
		{"sensitivity too high", func(c *Config) { c.Sensitivity = 1.6 }},
		{"zero buffer", func(c *Config) { c.BufferCapacity = 0 }},
		{"tail beyond buffer", func(c *Config) { c.TailSize = c.BufferCapacity + 1 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mod(&cfg)
			if _, err := New(cfg); err == nil {
				t.Error("Expected config validation error")
			}
		})
	}
}
