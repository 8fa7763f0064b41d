// Package sensor defines the wrist sensor source abstraction and the
// replay and synthetic drivers used when no physical device is attached.
package sensor

import (
	"context"

	"github.com/swingworks/swingsense/internal/motion"
)

// Source delivers raw wrist motion samples over a channel. A source is
// started once; the returned channel is closed when the stream ends or the
// context is cancelled. Samples are delivered in non-decreasing timestamp
// order.
type Source interface {
	// Start begins sample delivery. The returned channel belongs to the
	// source and is closed by it.
	Start(ctx context.Context) (<-chan motion.RawSample, error)

	// Stop terminates delivery and releases driver resources. Safe to call
	// after the channel has closed.
	Stop() error

	// Device returns the driver type, e.g. "replay", "synthetic", "ble".
	Device() string

	// ID returns a human-readable identifier for this particular source.
	ID() string
}
