package app

import (
	"image"
	"image/color"

	"github.com/swingworks/swingsense/internal/storage"
)

const (
	chartHeight  = 400
	chartMargin  = 60
	barWidth     = 18
	barGap       = 6
	minChartSpan = 640

	// Tempo bars are scaled against this ceiling; anything above renders at
	// full height.
	tempoCeiling = 5.0
)

var (
	chartBackground = color.RGBA{24, 26, 32, 255}
	tempoGoodColor  = color.RGBA{86, 186, 124, 255}
	tempoOffColor   = color.RGBA{214, 148, 62, 255}
	speedLineColor  = color.RGBA{120, 170, 255, 255}
	gridColor       = color.RGBA{56, 60, 70, 255}
)

// TempoChart renders per-swing tempo bars with a clubhead speed polyline on
// top. Bars within the classic 2.5-3.5 tempo window are drawn green,
// everything else amber.
type TempoChart struct {
	swings []storage.SwingData
	width  int
	height int
}

func NewTempoChart(swings []storage.SwingData) *TempoChart {
	width := chartMargin*2 + len(swings)*(barWidth+barGap)
	if width < minChartSpan {
		width = minChartSpan
	}
	return &TempoChart{
		swings: swings,
		width:  width,
		height: chartHeight,
	}
}

func (c *TempoChart) Render() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	c.fill(img)
	c.drawGrid(img)
	c.drawTempoBars(img)
	c.drawSpeedLine(img)
	return img
}

func (c *TempoChart) fill(img *image.RGBA) {
	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			img.Set(x, y, chartBackground)
		}
	}
}

// drawGrid draws one horizontal guideline per whole tempo unit.
func (c *TempoChart) drawGrid(img *image.RGBA) {
	for tempo := 1.0; tempo < tempoCeiling; tempo++ {
		y := c.tempoY(tempo)
		for x := chartMargin; x < c.width-chartMargin; x++ {
			img.Set(x, y, gridColor)
		}
	}
}

func (c *TempoChart) drawTempoBars(img *image.RGBA) {
	for i, sw := range c.swings {
		x0 := c.barX(i)
		top := c.tempoY(sw.TempoRatio)

		barColor := tempoOffColor
		if sw.TempoRatio >= 2.5 && sw.TempoRatio <= 3.5 {
			barColor = tempoGoodColor
		}

		for x := x0; x < x0+barWidth; x++ {
			for y := top; y < c.height-chartMargin; y++ {
				img.Set(x, y, barColor)
			}
		}
	}
}

// drawSpeedLine connects per-swing clubhead speeds, normalized to the
// fastest swing in the set.
func (c *TempoChart) drawSpeedLine(img *image.RGBA) {
	if len(c.swings) < 2 {
		return
	}

	var maxSpeed float64
	for _, sw := range c.swings {
		if sw.ClubheadSpeed > maxSpeed {
			maxSpeed = sw.ClubheadSpeed
		}
	}
	if maxSpeed <= 0 {
		return
	}

	prevX, prevY := -1, -1
	for i, sw := range c.swings {
		x := c.barX(i) + barWidth/2
		y := c.speedY(sw.ClubheadSpeed / maxSpeed)
		if prevX >= 0 {
			drawLine(img, prevX, prevY, x, y, speedLineColor)
		}
		prevX, prevY = x, y
	}
}

func (c *TempoChart) barX(i int) int {
	return chartMargin + i*(barWidth+barGap)
}

func (c *TempoChart) tempoY(tempo float64) int {
	if tempo > tempoCeiling {
		tempo = tempoCeiling
	}
	if tempo < 0 {
		tempo = 0
	}
	span := float64(c.height - 2*chartMargin)
	return c.height - chartMargin - int(tempo/tempoCeiling*span)
}

func (c *TempoChart) speedY(normalized float64) int {
	span := float64(c.height - 2*chartMargin)
	return c.height - chartMargin - int(normalized*span)
}

// drawLine is a basic Bresenham segment.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		img.Set(x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
