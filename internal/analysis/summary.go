package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/san-kum/episim/internal/dynamo"
	"github.com/san-kum/episim/internal/models"
	"gonum.org/v1/gonum/floats"
)

var ErrEmptyResult = errors.New("analysis: result holds no samples")

type Peak struct {
	Value float64
	Time  float64
}

type Summary struct {
	Peaks      map[string]Peak
	FinalState map[string]float64
	R0         float64
	AttackRate float64
}

// Fractions returns a copy of result with every state divided by n.
func Fractions(result *dynamo.Result, n float64) *dynamo.Result {
	out := &dynamo.Result{
		States:       make([]dynamo.State, len(result.States)),
		Times:        append([]float64(nil), result.Times...),
		Compartments: result.Compartments,
		Metrics:      result.Metrics,
	}
	for k, x := range result.States {
		if n > 0 {
			out.States[k] = x.Scale(1 / n)
		} else {
			out.States[k] = x.Clone()
		}
	}
	return out
}

// Series returns the trajectory of the named compartment.
func Series(result *dynamo.Result, name string) ([]float64, error) {
	idx := result.Index(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownCompartment, name)
	}
	return result.Series(idx), nil
}

// Indicators evaluates the derived quantities of an Indicating system at
// every sample. Systems without indicators yield nil.
func Indicators(sys dynamo.System, result *dynamo.Result) map[string][]float64 {
	ind, ok := sys.(models.Indicating)
	if !ok {
		return nil
	}
	out := make(map[string][]float64)
	for k, x := range result.States {
		for name, v := range ind.Indicators(x, result.Times[k]) {
			if _, ok := out[name]; !ok {
				out[name] = make([]float64, len(result.States))
			}
			out[name][k] = v
		}
	}
	return out
}

// FindPeak returns the maximum of series and the first time it is reached.
func FindPeak(series, times []float64) Peak {
	if len(series) == 0 {
		return Peak{}
	}
	i := floats.MaxIdx(series)
	return Peak{Value: series[i], Time: times[i]}
}

// FinalSize is the share of n held by the named compartments at the end.
func FinalSize(result *dynamo.Result, compartments []string, n float64) (float64, error) {
	final := result.Final()
	if final == nil {
		return 0, ErrEmptyResult
	}
	total := 0.0
	for _, name := range compartments {
		idx := result.Index(name)
		if idx < 0 {
			return 0, fmt.Errorf("%w: %q", models.ErrUnknownCompartment, name)
		}
		total += final[idx]
	}
	if n <= 0 {
		return 0, nil
	}
	return total / n, nil
}

// Summarize collects the headline numbers of a run. The attack rate is the
// share of the initially susceptible who left the susceptible compartments.
func Summarize(sys dynamo.System, result *dynamo.Result) (*Summary, error) {
	final := result.Final()
	if final == nil {
		return nil, ErrEmptyResult
	}

	s := &Summary{
		Peaks:      make(map[string]Peak, len(result.Compartments)),
		FinalState: make(map[string]float64, len(result.Compartments)),
	}
	for i, name := range result.Compartments {
		s.Peaks[name] = FindPeak(result.Series(i), result.Times)
		s.FinalState[name] = final[i]
	}
	if r, ok := sys.(models.Reproducing); ok {
		s.R0 = r.BasicReproduction()
	}

	s0, s1 := 0.0, 0.0
	for i, name := range result.Compartments {
		if strings.HasPrefix(name, "S") {
			s0 += result.States[0][i]
			s1 += final[i]
		}
	}
	if _, closed := sys.(dynamo.Conserved); closed && s0 > 0 {
		s.AttackRate = (s0 - s1) / s0
	}
	return s, nil
}
