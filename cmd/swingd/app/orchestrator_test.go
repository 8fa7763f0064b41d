package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swingworks/swingsense/internal/motion"
	"github.com/swingworks/swingsense/internal/storage"
	"github.com/swingworks/swingsense/internal/swing"
)

// scriptedSource hands the sample channel to the test, which feeds it
// directly.
type scriptedSource struct {
	out chan motion.RawSample
}

func (s *scriptedSource) Start(context.Context) (<-chan motion.RawSample, error) {
	return s.out, nil
}

func (s *scriptedSource) Stop() error { return nil }

func (s *scriptedSource) Device() string { return "scripted" }

func (s *scriptedSource) ID() string { return "test" }

// A swing still in its backswing when the daemon shuts down must be force
// completed and persisted, even though the run context is already cancelled.
func TestOrchestrator_ShutdownPersistsInterruptedSwing(t *testing.T) {
	detector, err := swing.New(swing.DefaultConfig())
	require.NoError(t, err)

	store := storage.New(filepath.Join(t.TempDir(), "session.sqlite"))
	t.Cleanup(func() { _ = store.Close() })

	src := &scriptedSource{out: make(chan motion.RawSample)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	o := NewOrchestrator(src, detector, store, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	base := time.Unix(1000, 0)
	seq := 0
	feed := func(n int, accel, gyro float64) {
		for i := 0; i < n; i++ {
			src.out <- motion.RawSample{
				Timestamp: base.Add(time.Duration(seq) * 10 * time.Millisecond),
				AccelX:    accel,
				GyroX:     gyro,
			}
			seq++
		}
	}
	feed(60, 1.0, 0.1) // address stability
	feed(60, 2.0, 2.5) // into the backswing

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Orchestrator did not shut down")
	}

	assert.EqualValues(t, 1, o.SwingsStored(), "Interrupted swing was not stored")

	swings, err := store.Swings(context.Background(), o.sessionID)
	require.NoError(t, err)
	require.Len(t, swings, 1)
	assert.Positive(t, swings[0].BackswingMs)
}
