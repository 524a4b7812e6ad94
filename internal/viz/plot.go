package viz

import (
	"errors"
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/episim/internal/chart"
)

var ErrNoSeries = errors.New("viz: no series to plot")

// PlotOptions size and bound a terminal chart. Zero Width keeps one column
// per sample; zero YMax autoscales.
type PlotOptions struct {
	Width   int
	Height  int
	YMax    float64
	Caption string
}

func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Width: 80, Height: 15}
}

// PlotSeries draws all series on one asciigraph chart with a legend,
// coloured by the current theme.
func PlotSeries(series []chart.Series, opts PlotOptions) (string, error) {
	data := make([][]float64, 0, len(series))
	legends := make([]string, 0, len(series))
	colors := make([]asciigraph.AnsiColor, 0, len(series))
	for i, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		data = append(data, sanitize(s.Values))
		legends = append(legends, s.Label)
		colors = append(colors, CurrentTheme.line(i))
	}
	if len(data) == 0 {
		return "", ErrNoSeries
	}

	options := []asciigraph.Option{
		asciigraph.Height(opts.Height),
		asciigraph.LowerBound(0),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(legends...),
	}
	if opts.Width > 0 {
		options = append(options, asciigraph.Width(opts.Width))
	}
	if opts.YMax > 0 {
		options = append(options, asciigraph.UpperBound(opts.YMax))
	}
	if opts.Caption != "" {
		options = append(options, asciigraph.Caption(opts.Caption))
	}
	return asciigraph.PlotMany(data, options...), nil
}

// PlotSpectrum draws a single power spectrum without the zero bound.
func PlotSpectrum(power []float64, caption string) (string, error) {
	if len(power) == 0 {
		return "", ErrNoSeries
	}
	return asciigraph.Plot(sanitize(power),
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	), nil
}

// TimeAxis describes the sampled interval below a chart.
func TimeAxis(times []float64, unit string) string {
	if len(times) == 0 {
		return ""
	}
	return Subtle.Render(fmt.Sprintf("t = %.4g .. %.4g %s (%d samples)", times[0], times[len(times)-1], unit, len(times)))
}

func sanitize(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		out[i] = v
	}
	return out
}
