// Package chart renders epidemic time series to PNG and SVG with gonum/plot.
package chart

import (
	"bufio"
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var (
	ErrNoData        = errors.New("chart: nothing to draw")
	ErrUnknownFormat = errors.New("chart: unknown output format")
)

type Series struct {
	Label  string
	Color  string
	Values []float64
}

// LineChart draws named series against time. Zero YMax or XMax leave the
// axis to autoscale from zero.
type LineChart struct {
	Title  string
	XLabel string
	YLabel string
	YMax   float64
	XMax   float64
	Width  float64 // inches
	Height float64 // inches

	plot *plot.Plot
}

func NewLineChart(title, xLabel, yLabel string) *LineChart {
	return &LineChart{Title: title, XLabel: xLabel, YLabel: yLabel, Width: 12, Height: 5}
}

func (c *LineChart) base() *plot.Plot {
	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = c.XLabel
	p.Y.Label.Text = c.YLabel
	stylePlot(p)

	p.X.Min, p.Y.Min = 0, 0
	if c.XMax > 0 {
		p.X.Max = c.XMax
	}
	if c.YMax > 0 {
		p.Y.Max = c.YMax
	}
	p.Add(plotter.NewGrid())
	return p
}

func (c *LineChart) Render(times []float64, series []Series) error {
	if len(times) == 0 || len(series) == 0 {
		return ErrNoData
	}

	p := c.base()
	for _, s := range series {
		if len(s.Values) != len(times) {
			return fmt.Errorf("chart: series %q has %d values for %d times", s.Label, len(s.Values), len(times))
		}
		line, err := plotter.NewLine(xys(times, s.Values))
		if err != nil {
			return fmt.Errorf("chart: series %q: %w", s.Label, err)
		}
		line.LineStyle.Width = vg.Points(2)
		line.LineStyle.Color = parseColor(s.Color, 0x80)
		p.Add(line)
		p.Legend.Add(s.Label, line)
	}
	p.Legend.Top = true
	c.plot = p
	return nil
}

// RenderTraces draws every row of traces as a thin translucent line, with
// the optional mean on top.
func (c *LineChart) RenderTraces(times []float64, traces *mat.Dense, hex string, mean []float64) error {
	rows, cols := traces.Dims()
	if rows == 0 || cols != len(times) {
		return ErrNoData
	}

	p := c.base()
	thin := parseColor(hex, 0x30)
	for r := 0; r < rows; r++ {
		line, err := plotter.NewLine(xys(times, mat.Row(nil, r, traces)))
		if err != nil {
			return err
		}
		line.LineStyle.Width = vg.Points(0.4)
		line.LineStyle.Color = thin
		p.Add(line)
	}

	if mean != nil {
		line, err := plotter.NewLine(xys(times, mean))
		if err != nil {
			return err
		}
		line.LineStyle.Width = vg.Points(2.5)
		line.LineStyle.Color = color.Black
		p.Add(line)
		p.Legend.Add("mean", line)
		p.Legend.Top = true
	}
	c.plot = p
	return nil
}

// Save writes the rendered chart, picking the format from the extension.
func (c *LineChart) Save(path string) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format != "png" && format != "svg" {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := c.WriteTo(bw, format); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteTo encodes the chart as png (300 DPI) or svg.
func (c *LineChart) WriteTo(w io.Writer, format string) error {
	if c.plot == nil {
		return ErrNoData
	}
	width := vg.Length(c.Width) * vg.Inch
	height := vg.Length(c.Height) * vg.Inch

	switch format {
	case "png":
		canvas := vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseDPI(300))
		c.plot.Draw(draw.New(canvas))
		_, err := vgimg.PngCanvas{Canvas: canvas}.WriteTo(w)
		return err
	case "svg":
		wt, err := c.plot.WriterTo(width, height, "svg")
		if err != nil {
			return err
		}
		_, err = wt.WriteTo(w)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func xys(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return pts
}

// parseColor reads #rrggbb; anything else falls back to a dark blue.
func parseColor(hex string, alpha uint8) color.NRGBA {
	fallback := color.NRGBA{R: 0x02, G: 0x14, B: 0x6b, A: alpha}
	if len(hex) != 7 || hex[0] != '#' {
		return fallback
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return fallback
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: alpha}
}

func limitedTicker(maxLabels int, labelFmt string) plot.Ticker {
	if maxLabels < 2 {
		maxLabels = 2
	}
	return plot.TickerFunc(func(min, max float64) []plot.Tick {
		if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
			return nil
		}
		if min == max {
			return []plot.Tick{{Value: min, Label: fmt.Sprintf(labelFmt, min)}}
		}
		step := (max - min) / float64(maxLabels-1)
		ticks := make([]plot.Tick, 0, maxLabels)
		for i := 0; i < maxLabels; i++ {
			v := min + float64(i)*step
			ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf(labelFmt, v)})
		}
		return ticks
	})
}

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(18)
	p.Title.Padding = vg.Points(10)

	p.X.Label.TextStyle.Font.Size = vg.Points(14)
	p.Y.Label.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Padding = vg.Points(8)
	p.Y.Label.Padding = vg.Points(8)

	p.X.Padding = vg.Points(10)
	p.Y.Padding = vg.Points(10)
	p.X.Tick.Label.Font.Size = vg.Points(11)
	p.Y.Tick.Label.Font.Size = vg.Points(11)

	p.X.Tick.Marker = limitedTicker(11, "%.0f")
	p.Y.Tick.Marker = limitedTicker(6, "%.2g")
}
