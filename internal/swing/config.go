package swing

import (
	"fmt"
	"time"

	"github.com/swingworks/swingsense/internal/motion"
)

// Sensitivity bounds. A single multiplier scales every detection threshold
// uniformly; lower is more permissive, higher more conservative.
const (
	MinSensitivity     = 0.5
	MaxSensitivity     = 1.5
	DefaultSensitivity = 1.0
)

// RetainedTailSize is how many trailing acceleration/rotation samples are
// copied into each finalized record for offline analysis.
const RetainedTailSize = 200

// Base detection thresholds, before sensitivity scaling. Acceleration values
// are accelerometer-derived G, rotation values gyroscope-derived rad/s.
const (
	baseStabilityAccel    = 1.3 // resting magnitude sits near 1 G
	baseStabilityRotation = 1.0

	baseBackswingAccel    = 1.5
	baseBackswingRotation = 2.0

	baseTopRotation = 0.8
	baseTopAccelMax = 2.0

	baseDownswingAccel = 4.0

	baseImpactAccel        = 8.0
	baseImpactDeceleration = 6.0

	baseSettleAccel = 1.5
)

// Timing bounds. Deliberately not scaled by sensitivity: a backswing that
// takes four seconds is not a swing at any sensitivity.
const (
	stabilityHold      = 500 * time.Millisecond
	addressTimeout     = 3 * time.Second
	minBackswing       = 300 * time.Millisecond
	maxBackswing       = 2500 * time.Millisecond
	topTransitionHold  = 150 * time.Millisecond
	maxTransition      = time.Second
	minDownswing       = 100 * time.Millisecond
	maxDownswing       = 800 * time.Millisecond
	followThroughLimit = time.Second
)

// Derived-speed factors. Approximations, not fitted per user.
const (
	handSpeedFactor = 2.2 // peak G to hand speed, mph
	clubheadFactor  = 1.4 // hand speed to estimated clubhead speed
)

// Impact detection window and classifier parameters.
const (
	impactWindow     = 5
	pathMinSamples   = 50
	pathWindow       = 30
	pathBiasRotation = 3.0
)

// Config holds the tunable surface of the detector. The zero value is not
// usable; use DefaultConfig or fill every field.
type Config struct {
	// Sensitivity scales every detection threshold. Valid range is
	// MinSensitivity to MaxSensitivity.
	Sensitivity float64

	// BufferCapacity bounds the sliding sample window.
	BufferCapacity int

	// TailSize bounds the raw samples retained in each finalized record.
	TailSize int
}

func DefaultConfig() Config {
	return Config{
		Sensitivity:    DefaultSensitivity,
		BufferCapacity: motion.DefaultCapacity,
		TailSize:       RetainedTailSize,
	}
}

func (c Config) validate() error {
	if c.Sensitivity < MinSensitivity || c.Sensitivity > MaxSensitivity {
		return fmt.Errorf("sensitivity %.2f out of range [%.1f, %.1f]", c.Sensitivity, MinSensitivity, MaxSensitivity)
	}
	if c.BufferCapacity <= 0 {
		return fmt.Errorf("invalid buffer capacity: %d", c.BufferCapacity)
	}
	if c.TailSize < 0 || c.TailSize > c.BufferCapacity {
		return fmt.Errorf("invalid tail size %d for buffer capacity %d", c.TailSize, c.BufferCapacity)
	}
	return nil
}

// thresholds are the effective detection levels after sensitivity scaling.
type thresholds struct {
	stabilityAccel    float64
	stabilityRotation float64

	backswingAccel    float64
	backswingRotation float64

	topRotation float64
	topAccelMax float64

	downswingAccel float64

	impactAccel        float64
	impactDeceleration float64

	settleAccel float64
}

func scaledThresholds(sensitivity float64) thresholds {
	return thresholds{
		stabilityAccel:     baseStabilityAccel * sensitivity,
		stabilityRotation:  baseStabilityRotation * sensitivity,
		backswingAccel:     baseBackswingAccel * sensitivity,
		backswingRotation:  baseBackswingRotation * sensitivity,
		topRotation:        baseTopRotation * sensitivity,
		topAccelMax:        baseTopAccelMax * sensitivity,
		downswingAccel:     baseDownswingAccel * sensitivity,
		impactAccel:        baseImpactAccel * sensitivity,
		impactDeceleration: baseImpactDeceleration * sensitivity,
		settleAccel:        baseSettleAccel * sensitivity,
	}
}
