// Package waveform plots an intensity summary as a bar chart.
package waveform

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/user/framescope/pkg/intensity"
	"github.com/user/framescope/pkg/ports"
)

// Theme holds plot colors.
type Theme struct {
	Background color.Color
	Bar        color.Color
	Grid       color.Color
	Text       color.Color
}

// DefaultTheme returns the default dark theme.
func DefaultTheme() Theme {
	return Theme{
		Background: color.RGBA{R: 0x1a, G: 0x1a, B: 0x2e, A: 0xff},
		Bar:        color.RGBA{R: 0x4a, G: 0xde, B: 0x80, A: 0xff},
		Grid:       color.RGBA{R: 0x33, G: 0x33, B: 0x55, A: 0xff},
		Text:       color.White,
	}
}

// Options configures the plot.
type Options struct {
	Width    int
	Height   int
	Padding  int
	FontPath string
	FontSize float64
	// LabelEvery places a time label every n seconds. Zero picks a spacing.
	LabelEvery float64
	Theme      Theme
}

// DefaultOptions returns default plot options.
func DefaultOptions() Options {
	return Options{
		Width:    1024,
		Height:   256,
		Padding:  24,
		FontSize: 12,
		Theme:    DefaultTheme(),
	}
}

// Plotter draws summaries onto renderer canvases.
type Plotter struct {
	renderer ports.Renderer
	opts     Options
}

// New creates a Plotter.
func New(renderer ports.Renderer, opts Options) *Plotter {
	if opts.Width <= 0 {
		opts.Width = DefaultOptions().Width
	}
	if opts.Height <= 0 {
		opts.Height = DefaultOptions().Height
	}
	if opts.Padding < 0 {
		opts.Padding = 0
	}
	if opts.FontSize <= 0 {
		opts.FontSize = DefaultOptions().FontSize
	}
	return &Plotter{renderer: renderer, opts: opts}
}

// Plot renders sum. Bar height is the window RMS relative to the loudest window.
// sampleRate converts sample positions to seconds for the axis labels.
func (p *Plotter) Plot(sum intensity.Summary, step int64, sampleRate int) (image.Image, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	o := p.opts
	canvas := p.renderer.CreateCanvas(o.Width, o.Height, o.Theme.Background)

	left, top := o.Padding, o.Padding
	plotW := o.Width - 2*o.Padding
	plotH := o.Height - 2*o.Padding - int(o.FontSize) - 4
	if plotW <= 0 || plotH <= 0 {
		return nil, fmt.Errorf("plot area %dx%d too small", plotW, plotH)
	}
	baseline := top + plotH

	canvas.DrawLine(left, baseline, left+plotW, baseline, o.Theme.Grid, 1)

	if len(sum.Values) > 0 {
		p.drawBars(canvas, sum.Values, left, baseline, plotW, plotH)
		p.drawLabels(canvas, sum, step, sampleRate, left, baseline, plotW)
	}

	return canvas.ToImage(), nil
}

func (p *Plotter) drawBars(canvas ports.Canvas, values []float32, left, baseline, plotW, plotH int) {
	peak := 0.0
	rms := make([]float64, len(values))
	for i, v := range values {
		rms[i] = math.Sqrt(float64(v))
		peak = math.Max(peak, rms[i])
	}
	if peak == 0 {
		return
	}

	barW := float64(plotW) / float64(len(values))
	for i, r := range rms {
		h := int(math.Round(r / peak * float64(plotH)))
		if h == 0 {
			continue
		}
		x0 := left + int(float64(i)*barW)
		x1 := left + int(float64(i+1)*barW)
		w := x1 - x0
		if w > 2 {
			w-- // one pixel gap between bars
		}
		if w < 1 {
			w = 1
		}
		canvas.DrawRect(x0, baseline-h, w, h, p.opts.Theme.Bar)
	}
}

func (p *Plotter) drawLabels(canvas ports.Canvas, sum intensity.Summary, step int64, sampleRate, left, baseline, plotW int) {
	o := p.opts
	start := float64(sum.Start) / float64(sampleRate)
	span := float64(int64(len(sum.Values))*step) / float64(sampleRate)
	if span <= 0 {
		return
	}

	every := o.LabelEvery
	if every <= 0 {
		every = labelSpacing(span)
	}

	style := ports.TextStyle{
		FontSize: o.FontSize,
		FontPath: o.FontPath,
		Color:    o.Theme.Text,
		Align:    ports.AlignCenter,
	}
	y := baseline + 2 + int(o.FontSize/2) + 2

	first := math.Ceil(start/every) * every
	for t := first; t <= start+span+1e-9; t += every {
		x := left + int(math.Round((t-start)/span*float64(plotW)))
		canvas.DrawLine(x, baseline, x, baseline+3, o.Theme.Grid, 1)
		canvas.DrawText(formatSeconds(t), x, y, style)
	}
}

// labelSpacing picks a 1-2-5 step giving roughly eight labels.
func labelSpacing(span float64) float64 {
	raw := span / 8
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	for _, m := range []float64{1, 2, 5, 10} {
		if raw <= m*mag {
			return m * mag
		}
	}
	return 10 * mag
}

func formatSeconds(t float64) string {
	if t >= 60 {
		m := int(t) / 60
		return fmt.Sprintf("%d:%04.1f", m, t-float64(m*60))
	}
	return fmt.Sprintf("%.1fs", t)
}
