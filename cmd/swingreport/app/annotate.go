package app

import (
	"fmt"
	"image"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"golang.org/x/image/font"

	"github.com/swingworks/swingsense/internal/storage"
)

const (
	dpi     float64 = 72
	size    float64 = 14
	spacing float64 = 1.1
)

type Annotator struct {
	context *freetype.Context
}

// NewAnnotator loads a TTF font from fontPath and prepares a drawing
// context for chart labels.
func NewAnnotator(fontPath string) (*Annotator, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("reading font: %w", err)
	}

	parsedFont, err := freetype.ParseFont(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	context := freetype.NewContext()
	context.SetDPI(dpi)
	context.SetFont(parsedFont)
	context.SetFontSize(size)
	context.SetSrc(image.White)
	context.SetHinting(font.HintingFull)

	return &Annotator{context: context}, nil
}

func (a *Annotator) Annotate(img *image.RGBA, session *storage.SessionData, swings []storage.SwingData) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	ops := []struct {
		msg string
		fn  func(*image.RGBA, *storage.SessionData, []storage.SwingData) error
	}{
		{"drawing tempo scale", a.drawTempoScale},
		{"drawing swing labels", a.drawSwingLabels},
		{"drawing info", a.drawInfo},
	}
	for _, op := range ops {
		if err := op.fn(img, session, swings); err != nil {
			return fmt.Errorf("%s: %w", op.msg, err)
		}
	}

	return nil
}

func (a *Annotator) drawTempoScale(img *image.RGBA, _ *storage.SessionData, swings []storage.SwingData) error {
	chart := NewTempoChart(swings)

	for tempo := 1.0; tempo < tempoCeiling; tempo++ {
		y := chart.tempoY(tempo)

		// tick mark left of the plot area
		for x := chartMargin - 8; x < chartMargin; x++ {
			img.Set(x, y, image.White)
		}

		pt := freetype.Pt(8, y+5)
		if _, err := a.context.DrawString(fmt.Sprintf("%.0f:1", tempo), pt); err != nil {
			return err
		}
	}

	return nil
}

func (a *Annotator) drawSwingLabels(_ *image.RGBA, _ *storage.SessionData, swings []storage.SwingData) error {
	chart := NewTempoChart(swings)

	// Label every swing while they fit, then every fifth.
	step := 1
	if len(swings) > 20 {
		step = 5
	}

	for i := 0; i < len(swings); i += step {
		pt := freetype.Pt(chart.barX(i), chartHeight-chartMargin+18)
		if _, err := a.context.DrawString(fmt.Sprintf("%d", i+1), pt); err != nil {
			return err
		}
	}

	return nil
}

func (a *Annotator) drawInfo(img *image.RGBA, session *storage.SessionData, swings []storage.SwingData) error {
	var tempoSum, peakSpeed float64
	for _, sw := range swings {
		tempoSum += sw.TempoRatio
		if sw.ClubheadSpeed > peakSpeed {
			peakSpeed = sw.ClubheadSpeed
		}
	}

	strings := []string{
		fmt.Sprintf("Session %d (%s), started %s", session.ID, session.DeviceType, session.StartTime.Local().Format(time.DateTime)),
		fmt.Sprintf("%s swings, avg tempo %.2f:1", humanize.Comma(int64(len(swings))), tempoSum/float64(len(swings))),
		fmt.Sprintf("Best clubhead speed: %.0f mph", peakSpeed),
	}

	imgSize := img.Bounds().Size()
	pt := freetype.Pt(chartMargin, imgSize.Y-chartMargin+36)
	for _, s := range strings {
		if _, err := a.context.DrawString(s, pt); err != nil {
			return err
		}
		pt.Y += a.context.PointToFixed(size * spacing)
	}

	return nil
}
