package sensor

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/swingworks/swingsense/internal/motion"
)

// replayColumns is the expected CSV layout:
// timestamp_ms,accel_x,accel_y,accel_z,gyro_x,gyro_y,gyro_z
const replayColumns = 7

// ReplayConfig configures a recorded-session replay source.
type ReplayConfig struct {
	// Path to the CSV recording.
	Path string `yaml:"path"`

	// Realtime paces delivery by the recorded timestamps instead of
	// replaying as fast as the consumer reads.
	Realtime bool `yaml:"realtime"`

	// ChannelBuffer sizes the delivery channel. Defaults to 256.
	ChannelBuffer int `yaml:"channelBuffer"`
}

// Replay streams samples from a CSV recording, for regression runs and
// demos without a physical sensor.
type Replay struct {
	cfg    ReplayConfig
	logger *slog.Logger

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started atomic.Bool
}

func NewReplay(cfg ReplayConfig, logger *slog.Logger) *Replay {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.ChannelBuffer <= 0 {
		cfg.ChannelBuffer = 256
	}
	return &Replay{
		cfg:    cfg,
		logger: logger.With(slog.String("device", "replay")),
	}
}

func (r *Replay) Device() string { return "replay" }
func (r *Replay) ID() string     { return r.cfg.Path }

func (r *Replay) Start(ctx context.Context) (<-chan motion.RawSample, error) {
	if !r.started.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("replay source already started")
	}

	f, err := os.Open(r.cfg.Path)
	if err != nil {
		r.started.Store(false)
		return nil, fmt.Errorf("opening recording: %w", err)
	}

	ctx, r.cancel = context.WithCancel(ctx)
	out := make(chan motion.RawSample, r.cfg.ChannelBuffer)

	r.wg.Add(1)
	go r.run(ctx, f, out)

	return out, nil
}

func (r *Replay) Stop() error {
	if !r.started.Load() {
		return nil
	}
	r.cancel()
	r.wg.Wait()
	return nil
}

func (r *Replay) run(ctx context.Context, f *os.File, out chan<- motion.RawSample) {
	defer r.wg.Done()
	defer close(out)
	defer f.Close()

	base := time.Now()
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = replayColumns

	var line, skipped int
	var prevOffset time.Duration
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			r.logger.Warn("skipping malformed record", slog.Int("line", line), slog.String("error", err.Error()))
			skipped++
			continue
		}
		if line == 1 && record[0] == "timestamp_ms" {
			continue // header row
		}

		sample, err := parseReplayRecord(record, base)
		if err != nil {
			r.logger.Warn("skipping malformed record", slog.Int("line", line), slog.String("error", err.Error()))
			skipped++
			continue
		}

		if r.cfg.Realtime {
			offset := sample.Timestamp.Sub(base)
			if wait := offset - prevOffset; wait > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(wait):
				}
			}
			prevOffset = offset
		}

		select {
		case <-ctx.Done():
			return
		case out <- sample:
		}
	}

	r.logger.Info("replay finished", slog.Int("samples", line), slog.Int("skipped", skipped))
}

func parseReplayRecord(record []string, base time.Time) (motion.RawSample, error) {
	ms, err := strconv.ParseInt(record[0], 10, 64)
	if err != nil {
		return motion.RawSample{}, fmt.Errorf("parsing timestamp: %w", err)
	}

	values := make([]float64, replayColumns-1)
	for i, field := range record[1:] {
		if values[i], err = strconv.ParseFloat(field, 64); err != nil {
			return motion.RawSample{}, fmt.Errorf("parsing column %d: %w", i+1, err)
		}
	}

	return motion.RawSample{
		Timestamp: base.Add(time.Duration(ms) * time.Millisecond),
		AccelX:    values[0],
		AccelY:    values[1],
		AccelZ:    values[2],
		GyroX:     values[3],
		GyroY:     values[4],
		GyroZ:     values[5],
	}, nil
}
