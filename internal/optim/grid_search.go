// Package optim searches parameter grids for the settings that minimise an
// outcome of a run, such as the peak prevalence under an intervention.
package optim

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"

	"github.com/san-kum/episim/internal/experiment"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrNoObjective = errors.New("optim: run does not report the objective")
	ErrEmptyGrid   = errors.New("optim: empty grid")
)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Linspace returns n evenly spaced values over [min, max].
func Linspace(min, max float64, n int) []float64 {
	if n < 2 {
		return []float64{min}
	}
	return floats.Span(make([]float64, n), min, max)
}

// Objective reads the named quantity off an outcome: any recorded metric,
// or one of r0 and attack_rate from the summary.
func Objective(out *experiment.Outcome, name string) (float64, error) {
	if v, ok := out.Result.Metrics[name]; ok {
		return v, nil
	}
	if out.Summary != nil {
		switch name {
		case "r0":
			return out.Summary.R0, nil
		case "attack_rate":
			return out.Summary.AttackRate, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrNoObjective, name)
}

// Search runs every grid point and returns the parameters with the lowest
// objective. A failing run aborts the search.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (map[string]float64, float64, error) {
	if len(g.paramNames) == 0 || len(g.paramNames) != len(g.ranges) {
		return nil, 0, ErrEmptyGrid
	}
	for _, r := range g.ranges {
		if len(r) == 0 {
			return nil, 0, ErrEmptyGrid
		}
	}

	best := math.Inf(1)
	var bestParams map[string]float64

	err := g.searchRecursive(ctx, 0, make(map[string]float64), buildExperiment, metricName, &best, &bestParams)
	if err != nil {
		return nil, 0, err
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	metricName string,
	best *float64,
	bestParams *map[string]float64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		exp, err := buildExperiment(current)
		if err != nil {
			return err
		}

		out, err := exp.Run(ctx)
		if err != nil {
			return fmt.Errorf("grid point %v: %w", current, err)
		}

		val, err := Objective(out, metricName)
		if err != nil {
			return err
		}
		if val < *best {
			*best = val
			*bestParams = maps.Clone(current)
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := maps.Clone(current)
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, buildExperiment, metricName, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}

// Size is the number of runs a search makes.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}
