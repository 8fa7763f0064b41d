package motion

import (
	"testing"
	"time"
)

func TestBuffer_CapacityInvariant(t *testing.T) {
	const capacity = 16

	b, err := NewBuffer(capacity)
	if err != nil {
		t.Fatalf("Failed to create buffer: %v", err)
	}

	base := time.Now()
	for i := 0; i < capacity*3; i++ {
		b.Push(Sample{
			Timestamp: base.Add(time.Duration(i) * 10 * time.Millisecond),
			Accel:     float64(i),
			Rotation:  float64(i) / 2,
		})

		if b.Len() > capacity {
			t.Fatalf("Push %d: buffer size %d exceeds capacity %d", i, b.Len(), capacity)
		}
	}

	if b.Len() != capacity {
		t.Errorf("Expected buffer size %d after overfill, got %d", capacity, b.Len())
	}
}

func TestBuffer_LastNOrdering(t *testing.T) {
	b, err := NewBuffer(8)
	if err != nil {
		t.Fatalf("Failed to create buffer: %v", err)
	}

	// Push 12 samples into a capacity-8 buffer so the ring wraps.
	for i := 0; i < 12; i++ {
		b.Push(Sample{Accel: float64(i), RotationX: float64(-i)})
	}

	last5 := b.LastAccel(5)
	if len(last5) != 5 {
		t.Fatalf("Expected 5 samples, got %d", len(last5))
	}
	for i, want := range []float64{7, 8, 9, 10, 11} {
		if last5[i] != want {
			t.Errorf("LastAccel[%d]: expected %.0f, got %.0f", i, want, last5[i])
		}
	}

	lastX := b.LastRotationX(2)
	if len(lastX) != 2 || lastX[0] != -10 || lastX[1] != -11 {
		t.Errorf("LastRotationX(2): expected [-10 -11], got %v", lastX)
	}
}

func TestBuffer_LastNBeyondSize(t *testing.T) {
	b, err := NewBuffer(8)
	if err != nil {
		t.Fatalf("Failed to create buffer: %v", err)
	}

	b.Push(Sample{Accel: 1})
	b.Push(Sample{Accel: 2})

	got := b.LastAccel(5)
	if len(got) != 2 {
		t.Fatalf("Expected 2 samples, got %d", len(got))
	}
	if got[0] != 1 || got[1] != 2 {
		t.Errorf("Expected [1 2], got %v", got)
	}

	if b.LastAccel(0) != nil {
		t.Error("LastAccel(0) should return nil")
	}
}

func TestBuffer_Clear(t *testing.T) {
	b, err := NewBuffer(4)
	if err != nil {
		t.Fatalf("Failed to create buffer: %v", err)
	}

	for i := 0; i < 6; i++ {
		b.Push(Sample{Accel: float64(i)})
	}
	b.Clear()

	if b.Len() != 0 {
		t.Errorf("Expected empty buffer after Clear, got size %d", b.Len())
	}
	if b.LastAccel(3) != nil {
		t.Error("LastAccel on cleared buffer should return nil")
	}

	b.Push(Sample{Accel: 42})
	got := b.LastAccel(1)
	if len(got) != 1 || got[0] != 42 {
		t.Errorf("Expected [42] after Clear+Push, got %v", got)
	}
}

func TestBuffer_InvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		if _, err := NewBuffer(capacity); err == nil {
			t.Errorf("Expected error for capacity %d", capacity)
		}
	}
}

func TestRawSample_Reduce(t *testing.T) {
	r := RawSample{AccelX: 3, AccelY: 4, GyroX: 0, GyroY: 5, GyroZ: 12}
	s := r.Reduce()

	if s.Accel != 5 {
		t.Errorf("Expected acceleration magnitude 5, got %f", s.Accel)
	}
	if s.Rotation != 13 {
		t.Errorf("Expected rotation magnitude 13, got %f", s.Rotation)
	}
	if s.RotationY != 5 || s.RotationZ != 12 {
		t.Errorf("Per-axis rotation not preserved: %+v", s)
	}
}
