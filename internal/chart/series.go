package chart

import (
	"fmt"
	"strings"

	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/dynamo"
)

// Palette colours compartments that a plot config does not style.
var Palette = []string{"#02146b", "#ffb428", "#b4e830", "#e21e7b", "#888888", "#12eaea", "#6a3d9a", "#b15928"}

// FromPlot resolves the series of a plot config against a result. Each
// series names an indicator, a compartment, or a '+' joined sum of
// compartments. With no series configured every compartment is drawn.
// Times are multiplied by TimeScale and, with Normalize, compartment values
// are divided by population.
func FromPlot(pc config.PlotConfig, result *dynamo.Result, indicators map[string][]float64, population float64) ([]float64, []Series, error) {
	scale := pc.TimeScale
	if scale == 0 {
		scale = 1
	}
	times := make([]float64, len(result.Times))
	for i, t := range result.Times {
		times[i] = t * scale
	}

	specs := pc.Series
	if len(specs) == 0 {
		for i, name := range result.Compartments {
			specs = append(specs, config.SeriesConfig{Label: name, Color: Palette[i%len(Palette)], Of: name})
		}
	}

	out := make([]Series, 0, len(specs))
	for _, spec := range specs {
		if values, ok := indicators[spec.Of]; ok {
			out = append(out, Series{Label: spec.Label, Color: spec.Color, Values: values})
			continue
		}

		values := make([]float64, len(result.States))
		for _, name := range strings.Split(spec.Of, "+") {
			idx := result.Index(strings.TrimSpace(name))
			if idx < 0 {
				return nil, nil, fmt.Errorf("chart: series %q: no compartment or indicator %q", spec.Label, name)
			}
			for k, x := range result.States {
				values[k] += x[idx]
			}
		}
		if pc.Normalize && population > 0 {
			for k := range values {
				values[k] /= population
			}
		}
		out = append(out, Series{Label: spec.Label, Color: spec.Color, Values: values})
	}
	return times, out, nil
}
