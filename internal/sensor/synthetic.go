package sensor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/swingworks/swingsense/internal/motion"
)

// SyntheticConfig configures the simulated wrist sensor.
type SyntheticConfig struct {
	// RateHz is the sample rate. Defaults to 100.
	RateHz int `yaml:"rateHz"`

	// RestSeconds is the still period between generated swings.
	// Defaults to 2.
	RestSeconds float64 `yaml:"restSeconds"`

	// ChannelBuffer sizes the delivery channel. Defaults to 256.
	ChannelBuffer int `yaml:"channelBuffer"`

	// Seed makes the jitter reproducible when non-zero.
	Seed int64 `yaml:"seed"`
}

// syntheticStage is one segment of the generated swing profile: a constant
// magnitude held for a duration, with jitter applied on top.
type syntheticStage struct {
	duration time.Duration
	accel    float64
	rotation float64
	gyroX    float64
}

// swingProfile walks a plausible full swing: stillness at address, the
// takeaway, deceleration at the top, the downswing spike with an impact
// signature, and the follow-through settle.
var swingProfile = []syntheticStage{
	{900 * time.Millisecond, 1.0, 0.2, 0},
	{600 * time.Millisecond, 2.2, 2.8, 0.5},
	{150 * time.Millisecond, 1.2, 0.4, 0},
	{120 * time.Millisecond, 5.5, 4.0, 4.0},
	{30 * time.Millisecond, 11.0, 6.0, 4.0},
	{30 * time.Millisecond, 3.0, 2.0, 1.0},
	{500 * time.Millisecond, 1.0, 0.3, 0},
}

// Synthetic generates repeating swing profiles with jitter. Used for demos
// and load checks without hardware.
type Synthetic struct {
	cfg    SyntheticConfig
	logger *slog.Logger
	rng    *rand.Rand

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started atomic.Bool
	dropped atomic.Uint64
}

func NewSynthetic(cfg SyntheticConfig, logger *slog.Logger) *Synthetic {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.RateHz <= 0 {
		cfg.RateHz = 100
	}
	if cfg.RestSeconds <= 0 {
		cfg.RestSeconds = 2
	}
	if cfg.ChannelBuffer <= 0 {
		cfg.ChannelBuffer = 256
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Synthetic{
		cfg:    cfg,
		logger: logger.With(slog.String("device", "synthetic")),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

func (s *Synthetic) Device() string { return "synthetic" }
func (s *Synthetic) ID() string     { return fmt.Sprintf("synthetic-%dhz", s.cfg.RateHz) }

func (s *Synthetic) Start(ctx context.Context) (<-chan motion.RawSample, error) {
	if !s.started.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("synthetic source already started")
	}

	ctx, s.cancel = context.WithCancel(ctx)
	out := make(chan motion.RawSample, s.cfg.ChannelBuffer)

	s.wg.Add(1)
	go s.run(ctx, out)

	return out, nil
}

func (s *Synthetic) Stop() error {
	if !s.started.Load() {
		return nil
	}
	s.cancel()
	s.wg.Wait()
	return nil
}

// Dropped reports samples discarded because the consumer fell behind.
func (s *Synthetic) Dropped() uint64 { return s.dropped.Load() }

func (s *Synthetic) run(ctx context.Context, out chan<- motion.RawSample) {
	defer s.wg.Done()
	defer close(out)

	interval := time.Second / time.Duration(s.cfg.RateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	rest := syntheticStage{
		duration: time.Duration(s.cfg.RestSeconds * float64(time.Second)),
		accel:    1.0,
		rotation: 0.1,
	}

	stage := 0
	var stageElapsed time.Duration
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("synthetic source stopped", slog.Uint64("dropped", s.dropped.Load()))
			return
		case now := <-ticker.C:
			cur := rest
			if stage < len(swingProfile) {
				cur = swingProfile[stage]
			}

			sample := s.sample(now, cur)
			select {
			case out <- sample:
			default:
				s.dropped.Add(1)
			}

			stageElapsed += interval
			if stageElapsed >= cur.duration {
				stageElapsed = 0
				stage++
				if stage > len(swingProfile) {
					stage = 0
				}
			}
		}
	}
}

func (s *Synthetic) sample(ts time.Time, stage syntheticStage) motion.RawSample {
	jitter := func(scale float64) float64 { return (s.rng.Float64() - 0.5) * scale }

	// Put the whole magnitude on one axis; the detector only consumes the
	// reduced magnitudes plus the x rotation component.
	return motion.RawSample{
		Timestamp: ts,
		AccelX:    stage.accel + jitter(0.05),
		AccelY:    jitter(0.02),
		AccelZ:    jitter(0.02),
		GyroX:     stage.gyroX + jitter(0.1),
		GyroY:     stage.rotation + jitter(0.1),
		GyroZ:     jitter(0.05),
	}
}
