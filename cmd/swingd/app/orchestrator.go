package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/swingworks/swingsense/internal/sensor"
	"github.com/swingworks/swingsense/internal/storage"
	"github.com/swingworks/swingsense/internal/swing"
)

const (
	maxBatchSize   = 100
	stallWarnAfter = 5 * time.Second
)

// WithMaxBatchSize sets the maximum batch size of tail samples to store
// within a single database transaction.
func WithMaxBatchSize(size int) func(*Orchestrator) {
	return func(o *Orchestrator) {
		if size > 0 {
			o.maxBatchSize = size
		}
	}
}

// WithPracticeMode starts the orchestrator in practice mode: swings are
// detected and published but not persisted.
func WithPracticeMode(enabled bool) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.practice.Store(enabled)
	}
}

// WithSessionConfig attaches a configuration blob to the session row, for
// later inspection of what settings produced the recorded swings.
func WithSessionConfig(config any) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.sessionConfig = config
	}
}

// Orchestrator owns the single processing goroutine: it pulls samples from
// the sensor source, drives them through the detector and persists completed
// swings. Because both sample processing and event handling happen on one
// goroutine, swings are stored in completion order.
type Orchestrator struct {
	source   sensor.Source
	detector *swing.Detector
	store    *storage.Store
	logger   *slog.Logger

	sessionConfig any
	sessionID     int64
	maxBatchSize  int
	practice      atomic.Bool
	swingsStored  atomic.Uint64
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(source sensor.Source, detector *swing.Detector, store *storage.Store, logger *slog.Logger, options ...func(*Orchestrator)) *Orchestrator {
	o := Orchestrator{
		source:       source,
		detector:     detector,
		store:        store,
		logger:       logger,
		maxBatchSize: maxBatchSize,
	}

	for _, option := range options {
		option(&o)
	}

	return &o
}

// SetPracticeMode toggles persistence of completed swings at runtime.
func (o *Orchestrator) SetPracticeMode(enabled bool) {
	o.practice.Store(enabled)
}

// PracticeMode reports whether swings are currently being discarded.
func (o *Orchestrator) PracticeMode() bool {
	return o.practice.Load()
}

// SwingsStored reports how many swings have been persisted this session.
func (o *Orchestrator) SwingsStored() uint64 {
	return o.swingsStored.Load()
}

// Run begins sample collection and blocks until the context is cancelled or
// the source closes its channel.
func (o *Orchestrator) Run(ctx context.Context) error {
	sessionID, err := o.store.CreateSession(ctx, o.source.Device(), o.source.ID(), o.sessionConfig)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	o.sessionID = sessionID

	samples, err := o.source.Start(ctx)
	if err != nil {
		return fmt.Errorf("starting sensor source: %w", err)
	}
	defer o.source.Stop()

	o.logger.Info("session started",
		slog.Int64("session", sessionID),
		slog.String("device", o.source.Device()),
		slog.String("id", o.source.ID()))

	events := o.detector.Events()
	stall := time.NewTimer(stallWarnAfter)
	defer stall.Stop()

	for {
		select {
		case <-ctx.Done():
			o.finish()
			return nil

		case s, ok := <-samples:
			if !ok {
				o.finish()
				return nil
			}
			if err := o.detector.Process(s.Reduce()); err != nil {
				o.logger.Warn("sample rejected", slog.String("error", err.Error()))
			}
			if !stall.Stop() {
				<-stall.C
			}
			stall.Reset(stallWarnAfter)

		case e := <-events:
			o.handleEvent(ctx, e)

		case <-stall.C:
			// Timeouts inside the detector only fire when samples arrive, so
			// a stalled stream parks it in its current phase. Surface that.
			o.logger.Warn("sample stream stalled",
				slog.String("phase", o.detector.Snapshot().Phase.String()))
			stall.Reset(stallWarnAfter)
		}
	}
}

// finish completes a swing interrupted by shutdown and drains any pending
// events so already-completed swings are not lost. The caller's context is
// usually cancelled by the time finish runs, so persistence gets its own
// short deadline.
func (o *Orchestrator) finish() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for {
		select {
		case e := <-o.detector.Events():
			o.handleEvent(ctx, e)
			continue
		default:
		}
		break
	}

	if record := o.detector.ForceComplete(); record != nil {
		o.logger.Info("completing interrupted swing")
		o.persistSwing(ctx, record)
	}

	summary := o.detector.Snapshot().Session
	o.logger.Info("session finished",
		slog.Int64("session", o.sessionID),
		slog.Int("swings", summary.SwingCount),
		slog.Uint64("stored", o.swingsStored.Load()),
		slog.Uint64("droppedEvents", o.detector.DroppedEvents()))
}

func (o *Orchestrator) handleEvent(ctx context.Context, e swing.Event) {
	switch ev := e.(type) {
	case swing.PhaseChanged:
		o.logger.Debug("phase changed",
			slog.String("from", ev.From.String()),
			slog.String("to", ev.To.String()))

	case swing.SwingCompleted:
		a := ev.Analytics
		o.logger.Info("swing completed",
			slog.String("type", string(a.Type)),
			slog.String("path", string(a.Path)),
			slog.Float64("tempo", a.TempoRatio()),
			slog.Float64("peakAccel", a.PeakAccel),
			slog.Bool("impact", a.ImpactDetected))

		if o.practice.Load() {
			return
		}
		o.persistSwing(ctx, a)
	}
}

func (o *Orchestrator) persistSwing(ctx context.Context, a *swing.Analytics) {
	swingID, err := o.store.StoreSwing(ctx, o.sessionID, a)
	if err != nil {
		o.logger.Error(fmt.Sprintf("storing swing: %s", err.Error()))
		return
	}

	for start := 0; start < len(a.AccelTail); start += o.maxBatchSize {
		end := min(start+o.maxBatchSize, len(a.AccelTail))
		if err := o.store.StoreSwingTail(ctx, swingID, start, a.AccelTail[start:end], a.RotationTail[start:end]); err != nil {
			o.logger.Error(fmt.Sprintf("storing swing tail: %s", err.Error()))
			return
		}
	}

	o.swingsStored.Add(1)
}
