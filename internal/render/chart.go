// Package render draws one bar chart per student as a PNG.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/JonMunkholm/scorecharts/internal/core"
)

// ErrInvalidRecord is returned for records that cannot be charted.
var ErrInvalidRecord = errors.New("record has no subjects to chart")

// Y axis spans 0-105 so 100% bars keep headroom for the average line.
const (
	yMin = 0.0
	yMax = 105.0
)

var (
	barColor     = drawing.ColorFromHex("7792E3").WithAlpha(204)
	averageColor = drawing.ColorFromHex("004080")
)

// Options controls how charts are drawn.
type Options struct {
	ShowAverageLine bool
	ShowAverageBar  bool
	TitlePrefix     string

	// Pixel size of the PNG.
	Width  int
	Height int
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		ShowAverageLine: true,
		TitlePrefix:     "Test Scores for",
		Width:           1000,
		Height:          600,
	}
}

// Chart is a rendered PNG for one student. The bytes are private so a chart
// can be shared between exporters without copying or mutation.
type Chart struct {
	Student string
	Row     int

	png []byte
}

// NewChart wraps already-encoded PNG bytes. The slice is copied.
func NewChart(student string, row int, png []byte) Chart {
	return Chart{Student: student, Row: row, png: bytes.Clone(png)}
}

// PNG returns a copy of the encoded image.
func (c Chart) PNG() []byte { return bytes.Clone(c.png) }

// Reader returns a fresh reader over the encoded image.
func (c Chart) Reader() io.Reader { return bytes.NewReader(c.png) }

// Size returns the encoded size in bytes.
func (c Chart) Size() int { return len(c.png) }

// Title builds the chart heading for a student.
func Title(prefix, name string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return name
	}
	return prefix + " " + name
}

// Renderer draws student charts. It is safe for concurrent use.
type Renderer struct {
	opts Options
}

// New returns a Renderer. Zero sizes fall back to the defaults.
func New(opts Options) *Renderer {
	def := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	return &Renderer{opts: opts}
}

// Render draws rec. The record is only read.
func (r *Renderer) Render(rec core.StudentRecord) (Chart, error) {
	bc, err := r.barChart(rec)
	if err != nil {
		return Chart{}, err
	}

	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return Chart{}, fmt.Errorf("render chart for %q: %w", rec.Name, err)
	}
	return NewChart(rec.Name, rec.Row, buf.Bytes()), nil
}

func (r *Renderer) barChart(rec core.StudentRecord) (chart.BarChart, error) {
	if len(rec.Subjects) == 0 || len(rec.Subjects) != len(rec.Scores) {
		return chart.BarChart{}, fmt.Errorf("%w: %d subjects, %d scores", ErrInvalidRecord, len(rec.Subjects), len(rec.Scores))
	}

	bars := make([]chart.Value, 0, len(rec.Scores)+1)
	for i, score := range rec.Scores {
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%s (%s)", rec.Subjects[i], core.ScoreLabel(score)),
			Value: clamp(score),
			Style: chart.Style{FillColor: barColor, StrokeColor: barColor, StrokeWidth: 1},
		})
	}
	if r.opts.ShowAverageBar {
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("Average (%s)", core.ScoreLabel(rec.Average)),
			Value: clamp(rec.Average),
			Style: chart.Style{FillColor: averageColor, StrokeColor: averageColor, StrokeWidth: 1},
		})
	}

	bc := chart.BarChart{
		Title:      Title(r.opts.TitlePrefix, rec.Name),
		TitleStyle: chart.Style{FontSize: 14},
		Width:      r.opts.Width,
		Height:     r.opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		BarWidth:   barWidth(r.opts.Width, len(bars)),
		Bars:       bars,
		YAxis: chart.YAxis{
			Name:           "Percentage (%)",
			Range:          &chart.ContinuousRange{Min: yMin, Max: yMax},
			Ticks:          percentTicks(),
			ValueFormatter: func(v interface{}) string { return fmt.Sprintf("%.0f", v) },
		},
	}
	if r.opts.ShowAverageLine {
		bc.Elements = []chart.Renderable{averageLine(rec.Average)}
	}
	return bc, nil
}

// averageLine draws a dashed horizontal rule at avg with a label.
func averageLine(avg float64) chart.Renderable {
	return func(r chart.Renderer, canvas chart.Box, defaults chart.Style) {
		y := valueToY(avg, canvas)

		r.SetStrokeColor(averageColor)
		r.SetStrokeWidth(2)
		r.SetStrokeDashArray([]float64{6, 4})
		r.MoveTo(canvas.Left, y)
		r.LineTo(canvas.Right, y)
		r.Stroke()
		r.SetStrokeDashArray(nil)

		label := "Average: " + core.ScoreLabel(avg)
		if defaults.Font != nil {
			r.SetFont(defaults.Font)
		}
		r.SetFontSize(10)
		r.SetFontColor(averageColor)
		tb := r.MeasureText(label)
		r.Text(label, canvas.Right-tb.Width()-4, y-4)
	}
}

// valueToY maps a percentage onto the canvas' vertical pixel space.
func valueToY(v float64, canvas chart.Box) int {
	frac := (clamp(v) - yMin) / (yMax - yMin)
	return canvas.Bottom - int(math.Round(frac*float64(canvas.Height())))
}

func percentTicks() []chart.Tick {
	ticks := make([]chart.Tick, 0, 6)
	for v := 0.0; v <= 100; v += 20 {
		ticks = append(ticks, chart.Tick{Value: v, Label: fmt.Sprintf("%.0f", v)})
	}
	return append(ticks, chart.Tick{Value: yMax, Label: ""})
}

func barWidth(width, bars int) int {
	w := width / (2 * (bars + 1))
	return max(8, min(w, 120))
}

// clamp keeps scores inside the axis so out-of-range data still draws.
func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < yMin:
		return yMin
	case v > yMax:
		return yMax
	default:
		return v
	}
}
