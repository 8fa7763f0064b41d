// Package swing implements the real-time golf swing classification engine:
// a deterministic phase state machine driven one motion sample at a time,
// plus the analytics builder and classifier that turn a completed pass
// through the lifecycle into an immutable swing record.
package swing

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/swingworks/swingsense/internal/motion"
	"github.com/swingworks/swingsense/internal/session"
)

// ErrNonMonotonicSample is returned by Process when a sample is older than
// the previously processed one. The detector state is left untouched.
var ErrNonMonotonicSample = errors.New("sample timestamp is not monotonic")

const defaultEventBuffer = 64

// Option configures a Detector.
type Option func(*Detector)

// WithLogger sets the logger used for cancellation diagnostics and dropped
// event warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		d.logger = logger.With(slog.String("component", "swing-detector"))
	}
}

// WithEventBuffer sets the capacity of the event stream channel.
func WithEventBuffer(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.eventBuffer = n
		}
	}
}

// Snapshot is a consistent read-only view of the detector published state.
type Snapshot struct {
	Phase           Phase           `json:"phase"`
	SwingInProgress bool            `json:"swingInProgress"`
	LiveHandSpeed   float64         `json:"liveHandSpeed"` // mph, from the newest sample only
	LiveRotation    float64         `json:"liveRotation"`  // rad/s, from the newest sample only
	LastSwing       *Analytics      `json:"lastSwing,omitempty"`
	Session         session.Summary `json:"session"`
}

// timers are the per-swing phase entry timestamps. Cleared on every reset.
type timers struct {
	stillSince     time.Time
	addressStart   time.Time
	backswingStart time.Time
	topTime        time.Time
	downswingStart time.Time
	impactTime     time.Time
}

// Detector is the swing phase state machine. Processing is synchronous and
// single-threaded: each Process call evaluates exactly one transition rule
// for the current phase. All state is guarded by a mutex so a background
// sensor goroutine (the single writer) and UI/telemetry readers can share
// one instance.
//
// All timeouts are evaluated lazily when a sample arrives. If the sample
// stream stalls, no timeout fires and the detector stays parked in its
// current phase; resolving stalls is the caller's concern.
type Detector struct {
	mu sync.Mutex

	cfg    Config
	th     thresholds
	logger *slog.Logger

	buffer *motion.Buffer
	stats  *session.Aggregator

	phase   Phase
	timers  timers
	current *Analytics // in-progress record, nil outside a swing
	last    *Analytics // most recent finalized record

	lastSample    motion.Sample
	haveSample    bool
	liveHandSpeed float64
	liveRotation  float64

	eventBuffer   int
	events        chan Event
	droppedEvents uint64
}

// New creates a detector with the given configuration.
func New(cfg Config, opts ...Option) (*Detector, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid detector config: %w", err)
	}

	d := &Detector{
		cfg:         cfg,
		th:          scaledThresholds(cfg.Sensitivity),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		stats:       session.NewAggregator(),
		eventBuffer: defaultEventBuffer,
	}
	for _, opt := range opts {
		opt(d)
	}

	buf, err := motion.NewBuffer(cfg.BufferCapacity)
	if err != nil {
		return nil, err
	}
	d.buffer = buf
	d.events = make(chan Event, d.eventBuffer)

	return d, nil
}

// Events returns the detector's event stream. Events are published with a
// non-blocking send: a consumer that falls behind loses events rather than
// stalling sample processing.
func (d *Detector) Events() <-chan Event {
	return d.events
}

// Process feeds one motion sample through the state machine. Samples must
// arrive in non-decreasing timestamp order; an out-of-order sample is
// rejected with ErrNonMonotonicSample and changes nothing.
func (d *Detector) Process(s motion.Sample) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.haveSample && s.Timestamp.Before(d.lastSample.Timestamp) {
		return fmt.Errorf("%w: %s arrived after %s",
			ErrNonMonotonicSample, s.Timestamp.Format(time.RFC3339Nano), d.lastSample.Timestamp.Format(time.RFC3339Nano))
	}

	d.lastSample = s
	d.haveSample = true
	d.liveHandSpeed = s.Accel * handSpeedFactor
	d.liveRotation = s.Rotation
	d.buffer.Push(s)

	switch d.phase {
	case PhaseIdle:
		d.processIdle(s)
	case PhaseAddress:
		d.processAddress(s)
	case PhaseBackswing:
		d.processBackswing(s)
	case PhaseTopOfSwing, PhaseTransition:
		d.processTransition(s)
	case PhaseDownswing:
		d.processDownswing(s)
	case PhaseFollowThrough:
		d.processFollowThrough(s)
	case PhaseImpact, PhaseFinished:
		// Bookkeeping phases; never observed across calls.
	}

	return nil
}

func (d *Detector) processIdle(s motion.Sample) {
	// Fast start: both signals over the backswing thresholds at once means
	// the player skipped a detectable address position.
	if s.Accel > d.th.backswingAccel && s.Rotation > d.th.backswingRotation {
		d.startSwing(s.Timestamp)
		return
	}

	if s.Accel < d.th.stabilityAccel && s.Rotation < d.th.stabilityRotation {
		if d.timers.stillSince.IsZero() {
			d.timers.stillSince = s.Timestamp
			return
		}
		if s.Timestamp.Sub(d.timers.stillSince) >= stabilityHold {
			d.timers.addressStart = s.Timestamp
			d.setPhase(PhaseAddress, s.Timestamp)
		}
		return
	}

	d.timers.stillSince = time.Time{}
}

func (d *Detector) processAddress(s motion.Sample) {
	if s.Accel > d.th.backswingAccel && s.Rotation > d.th.backswingRotation {
		d.startSwing(s.Timestamp)
		return
	}

	if s.Timestamp.Sub(d.timers.addressStart) > addressTimeout {
		// Player stood over the ball and never took the club back. Not a
		// cancellation worth flagging, just a return to watching.
		d.logger.Debug("address timed out, returning to idle")
		d.resetLocked(s.Timestamp)
	}
}

// startSwing opens a new analytics record and enters Backswing.
func (d *Detector) startSwing(ts time.Time) {
	d.current = &Analytics{StartTime: ts, Path: PathUnknown, Type: TypeUnknown}
	d.timers.backswingStart = ts
	d.setPhase(PhaseBackswing, ts)
}

func (d *Detector) processBackswing(s motion.Sample) {
	elapsed := s.Timestamp.Sub(d.timers.backswingStart)

	if elapsed > maxBackswing {
		d.cancel("backswing too long", s.Timestamp)
		return
	}
	if elapsed < minBackswing {
		return
	}

	// Deceleration signature at the top: rotation dies down while the hands
	// hang under the transition acceleration.
	if s.Rotation < d.th.topRotation && s.Accel < d.th.topAccelMax {
		d.current.BackswingDuration = elapsed
		d.timers.topTime = s.Timestamp
		d.setPhase(PhaseTopOfSwing, s.Timestamp)
	}
}

func (d *Detector) processTransition(s motion.Sample) {
	sinceTop := s.Timestamp.Sub(d.timers.topTime)

	if s.Accel > d.th.downswingAccel {
		d.timers.downswingStart = s.Timestamp
		d.setPhase(PhaseDownswing, s.Timestamp)
		return
	}

	if sinceTop > maxTransition {
		d.cancel("transition too slow", s.Timestamp)
		return
	}

	if d.phase == PhaseTopOfSwing && sinceTop >= topTransitionHold {
		d.setPhase(PhaseTransition, s.Timestamp)
	}
}

func (d *Detector) processDownswing(s motion.Sample) {
	if s.Accel > d.current.PeakAccel {
		d.current.PeakAccel = s.Accel
	}
	if s.Rotation > d.current.PeakRotation {
		d.current.PeakRotation = s.Rotation
	}

	elapsed := s.Timestamp.Sub(d.timers.downswingStart)
	if elapsed < minDownswing {
		return
	}

	if decel, ok := d.detectImpact(); ok {
		d.current.ImpactDetected = true
		d.current.ImpactDeceleration = decel
		d.advanceToImpact(s.Timestamp, elapsed)
		return
	}

	// Past the plausible downswing window with no impact signature: advance
	// anyway so the swing still completes, just without the impact flag.
	if elapsed > maxDownswing {
		d.advanceToImpact(s.Timestamp, elapsed)
	}
}

// detectImpact looks for the sharp spike-then-drop signature of club-ball
// contact in the last few buffered acceleration samples.
func (d *Detector) detectImpact() (deceleration float64, ok bool) {
	window := d.buffer.LastAccel(impactWindow)
	if len(window) < impactWindow {
		return 0, false
	}

	peak := window[0]
	for _, v := range window[1:] {
		if v > peak {
			peak = v
		}
	}
	current := window[len(window)-1]
	deceleration = peak - current

	return deceleration, peak > d.th.impactAccel && deceleration > d.th.impactDeceleration
}

// advanceToImpact records the downswing duration and walks through the
// bookkeeping Impact phase straight into FollowThrough.
func (d *Detector) advanceToImpact(ts time.Time, downswing time.Duration) {
	d.current.DownswingDuration = downswing
	d.current.ImpactTime = ts
	d.timers.impactTime = ts

	d.setPhase(PhaseImpact, ts)
	d.setPhase(PhaseFollowThrough, ts)
}

func (d *Detector) processFollowThrough(s motion.Sample) {
	settled := s.Accel < d.th.settleAccel
	expired := s.Timestamp.Sub(d.timers.impactTime) >= followThroughLimit

	if settled || expired {
		d.setPhase(PhaseFinished, s.Timestamp)
		d.finalizeLocked(s.Timestamp)
	}
}

// finalizeLocked freezes the in-progress record, publishes it, folds it into
// the session stats and resets the machine to Idle.
func (d *Detector) finalizeLocked(ts time.Time) {
	a := d.current
	d.current = nil

	a.TotalDuration = a.BackswingDuration + a.DownswingDuration
	a.PeakHandSpeed = a.PeakAccel * handSpeedFactor
	a.ClubheadSpeed = a.PeakHandSpeed * clubheadFactor
	a.Path = classifyPath(d.buffer)
	a.Type = classifyType(a.PeakAccel, a.TempoRatio())
	a.AccelTail = d.buffer.LastAccel(d.cfg.TailSize)
	a.RotationTail = d.buffer.LastRotation(d.cfg.TailSize)

	d.last = a
	d.stats.Observe(a.TempoRatio(), a.PeakAccel)
	d.publish(SwingCompleted{Time: ts, Analytics: a})

	d.resetLocked(ts)
}

// cancel abandons the in-progress swing without publishing a record. This is
// the designed outcome for false starts and aborted motion, not an error.
func (d *Detector) cancel(reason string, ts time.Time) {
	d.logger.Info("swing cancelled",
		slog.String("reason", reason),
		slog.String("phase", d.phase.String()))
	d.resetLocked(ts)
}

// resetLocked clears buffers, timers and the in-progress record and returns
// the machine to Idle.
func (d *Detector) resetLocked(ts time.Time) {
	d.current = nil
	d.timers = timers{}
	d.buffer.Clear()
	d.setPhase(PhaseIdle, ts)
}

// Reset returns the detector to Idle, dropping any in-progress swing. Safe
// to call in any phase.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetLocked(d.lastSample.Timestamp)
	d.haveSample = false
}

// ResetSession clears the session statistics and performs a full detector
// reset, even mid-swing.
func (d *Detector) ResetSession() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.Reset()
	d.last = nil
	d.resetLocked(d.lastSample.Timestamp)
	d.haveSample = false
}

// ForceComplete finalizes the in-progress swing from whatever has been
// accumulated so far and returns the record, or nil when no swing is in
// progress. The record is also published on the event stream.
func (d *Detector) ForceComplete() *Analytics {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current == nil {
		return nil
	}

	ts := d.lastSample.Timestamp
	switch d.phase {
	case PhaseBackswing:
		d.current.BackswingDuration = ts.Sub(d.timers.backswingStart)
	case PhaseDownswing:
		d.current.DownswingDuration = ts.Sub(d.timers.downswingStart)
	}

	d.setPhase(PhaseFinished, ts)
	d.finalizeLocked(ts)
	return d.last
}

// Snapshot returns a consistent view of the published detector state.
func (d *Detector) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	return Snapshot{
		Phase:           d.phase,
		SwingInProgress: d.current != nil,
		LiveHandSpeed:   d.liveHandSpeed,
		LiveRotation:    d.liveRotation,
		LastSwing:       d.last,
		Session:         d.stats.Summary(),
	}
}

// DroppedEvents reports how many events were lost to a slow consumer.
func (d *Detector) DroppedEvents() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.droppedEvents
}

func (d *Detector) setPhase(p Phase, ts time.Time) {
	if p == d.phase {
		return
	}
	from := d.phase
	d.phase = p
	d.publish(PhaseChanged{Time: ts, From: from, To: p})
}

func (d *Detector) publish(e Event) {
	select {
	case d.events <- e:
	default:
		d.droppedEvents++
		d.logger.Warn("event dropped, consumer too slow",
			slog.Uint64("dropped", d.droppedEvents))
	}
}
