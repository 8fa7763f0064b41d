package app

import (
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/swingworks/swingsense/internal/session"
	"github.com/swingworks/swingsense/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.New(config.DBPath)
	defer store.Close()

	sess, err := store.Session(ctx, config.SessionID)
	if err != nil {
		return fmt.Errorf("reading session: %w", err)
	}

	var opts []storage.SwingOption
	var filters []any
	if config.MinTempo != nil {
		opts = append(opts, storage.WithMinTempo(*config.MinTempo))
		filters = append(filters, slog.Float64("minTempo", *config.MinTempo))
	}
	if config.MaxTempo != nil {
		opts = append(opts, storage.WithMaxTempo(*config.MaxTempo))
		filters = append(filters, slog.Float64("maxTempo", *config.MaxTempo))
	}
	if config.SwingType != "" {
		opts = append(opts, storage.WithSwingType(config.SwingType))
		filters = append(filters, slog.String("type", config.SwingType))
	}
	if config.Limit > 0 {
		opts = append(opts, storage.WithLimit(config.Limit))
		filters = append(filters, slog.Uint64("limit", config.Limit))
	}

	logger.Debug("query configuration", filters...)

	swings, err := store.Swings(ctx, config.SessionID, opts...)
	if err != nil {
		return fmt.Errorf("reading swings: %w", err)
	}

	printReport(os.Stdout, sess, swings)

	if config.OutputFile == "" || len(swings) == 0 {
		return nil
	}

	return renderChart(config, sess, swings, logger)
}

func printReport(w io.Writer, sess *storage.SessionData, swings []storage.SwingData) {
	fmt.Fprintf(w, "Session %d on %s (%s)\n", sess.ID, sess.DeviceType, sess.DeviceID)
	fmt.Fprintf(w, "Started %s\n\n", humanize.Time(sess.StartTime))

	if len(swings) == 0 {
		fmt.Fprintln(w, "No swings matched.")
		return
	}

	stats := session.NewAggregator()
	var peakSpeed float64
	for i, sw := range swings {
		impact := "no impact"
		if sw.ImpactDetected {
			impact = fmt.Sprintf("impact %.1fG", sw.ImpactDeceleration)
		}
		fmt.Fprintf(w, "%3d. %-14s %-12s tempo %.2f:1  %4dms/%3dms  %.1fG peak  %.0f mph clubhead  (%s)\n",
			i+1, sw.SwingType, sw.SwingPath, sw.TempoRatio,
			sw.BackswingMs, sw.DownswingMs, sw.PeakAccel, sw.ClubheadSpeed, impact)

		stats.Observe(sw.TempoRatio, sw.PeakAccel)
		if sw.ClubheadSpeed > peakSpeed {
			peakSpeed = sw.ClubheadSpeed
		}
	}

	summary := stats.Summary()
	fmt.Fprintf(w, "\n%s swings, avg tempo %.2f:1, consistency %.0f/100, best clubhead speed %.0f mph\n",
		humanize.Comma(int64(summary.SwingCount)), summary.AvgTempo, summary.Consistency, peakSpeed)
}

func renderChart(config *Config, sess *storage.SessionData, swings []storage.SwingData, logger *slog.Logger) error {
	img := NewTempoChart(swings).Render()

	if config.FontPath != "" {
		annotator, err := NewAnnotator(config.FontPath)
		if err != nil {
			return fmt.Errorf("creating annotator: %w", err)
		}
		if err = annotator.Annotate(img, sess, swings); err != nil {
			return fmt.Errorf("annotating chart: %w", err)
		}
	} else {
		logger.Debug("no font provided, skipping annotations")
	}

	logger.Debug("rendering chart",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.Int("swings", len(swings)),
		))

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer out.Close()

	switch config.Format {
	case ImagePNG:
		err = png.Encode(out, img)

	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nChart written to %s at %s\n", config.OutputFile, time.Now().Format(time.Kitchen))
	return nil
}
