// Package motion defines the wrist sensor sample model and the bounded
// sliding-window buffer the swing detector extracts short-horizon features
// from.
package motion

import (
	"fmt"
	"time"
)

// DefaultCapacity covers roughly three seconds of history at 100 Hz.
const DefaultCapacity = 300

// Buffer is a fixed-capacity FIFO store of recent samples, kept as parallel
// ring sequences of total acceleration, total rotation, per-axis rotation
// and timestamps. Push is O(1) with no reallocation after construction; once
// the capacity is reached the oldest entry is evicted.
//
// Buffer performs no locking; it is owned by the detector and mutated only
// under the detector's lock.
type Buffer struct {
	capacity int

	accel     []float64
	rotation  []float64
	rotationX []float64
	rotationY []float64
	rotationZ []float64
	times     []time.Time

	head int // next write index
	size int
}

// NewBuffer creates a buffer holding up to capacity samples.
func NewBuffer(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("invalid buffer capacity: %d", capacity)
	}
	return &Buffer{
		capacity:  capacity,
		accel:     make([]float64, capacity),
		rotation:  make([]float64, capacity),
		rotationX: make([]float64, capacity),
		rotationY: make([]float64, capacity),
		rotationZ: make([]float64, capacity),
		times:     make([]time.Time, capacity),
	}, nil
}

// Push appends a sample, evicting the oldest entry if the buffer is full.
func (b *Buffer) Push(s Sample) {
	b.accel[b.head] = s.Accel
	b.rotation[b.head] = s.Rotation
	b.rotationX[b.head] = s.RotationX
	b.rotationY[b.head] = s.RotationY
	b.rotationZ[b.head] = s.RotationZ
	b.times[b.head] = s.Timestamp

	b.head = (b.head + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
}

// Len returns the number of buffered samples.
func (b *Buffer) Len() int { return b.size }

// Cap returns the configured capacity.
func (b *Buffer) Cap() int { return b.capacity }

// Clear empties all sequences. Used on every detector reset.
func (b *Buffer) Clear() {
	b.head = 0
	b.size = 0
}

// LastAccel returns up to n most recent acceleration magnitudes in
// chronological order (oldest first).
func (b *Buffer) LastAccel(n int) []float64 { return b.lastN(b.accel, n) }

// LastRotation returns up to n most recent rotation magnitudes in
// chronological order.
func (b *Buffer) LastRotation(n int) []float64 { return b.lastN(b.rotation, n) }

// LastRotationX returns up to n most recent x-axis rotation components in
// chronological order. Used for swing path averaging.
func (b *Buffer) LastRotationX(n int) []float64 { return b.lastN(b.rotationX, n) }

func (b *Buffer) lastN(seq []float64, n int) []float64 {
	if n > b.size {
		n = b.size
	}
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	start := b.head - n
	for i := 0; i < n; i++ {
		out[i] = seq[((start+i)%b.capacity+b.capacity)%b.capacity]
	}
	return out
}
