package automation

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/dynamo"
	"github.com/san-kum/episim/internal/stochastic"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Range bounds a uniformly sampled parameter.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// UncertaintyConfig draws every ranged parameter uniformly for each trial
// and reruns the base config.
type UncertaintyConfig struct {
	Base        *config.Config
	Ranges      map[string]Range
	Trials      int
	Seed        uint64
	Compartment string
}

type TrialResult struct {
	Trial  int
	Params map[string]float64
	Measure
}

// Band summarises one quantity over all trials.
type Band struct {
	Mean float64
	Std  float64
	Q05  float64
	Q50  float64
	Q95  float64
}

type UncertaintyStats struct {
	PeakValue  Band
	PeakTime   Band
	AttackRate Band
}

// RunUncertainty runs the trials in parallel. Trial k draws from its own
// stream of the seed, so results do not depend on scheduling.
func (r *Runner) RunUncertainty(ctx context.Context, uc *UncertaintyConfig) ([]TrialResult, error) {
	if uc.Trials < 1 {
		return nil, ErrEmptyBatch
	}
	for name, rg := range uc.Ranges {
		if rg.Max < rg.Min {
			return nil, fmt.Errorf("range %s: max %g below min %g", name, rg.Max, rg.Min)
		}
	}
	names := slices.Sorted(maps.Keys(uc.Ranges))

	results := make([]TrialResult, uc.Trials)
	errs := make([]error, uc.Trials)
	dynamo.ParallelFor(uc.Trials, 2, func(start, end int) {
		for k := start; k < end; k++ {
			src := stochastic.NewSource(uc.Seed, uint64(k))
			cfg := uc.Base.Clone()
			if cfg.Params == nil {
				cfg.Params = make(map[string]float64)
			}
			drawn := make(map[string]float64, len(names))
			for _, name := range names {
				rg := uc.Ranges[name]
				v := rg.Min
				if rg.Max > rg.Min {
					u := distuv.Uniform{Min: rg.Min, Max: rg.Max, Src: src}
					v = u.Rand()
				}
				cfg.Params[name] = v
				drawn[name] = v
			}

			out, err := r.run(ctx, cfg)
			if err != nil {
				errs[k] = fmt.Errorf("trial %d: %w", k, err)
				continue
			}
			m, err := measure(out, uc.Compartment)
			if err != nil {
				errs[k] = err
				continue
			}
			results[k] = TrialResult{Trial: k, Params: drawn, Measure: m}
		}
	})
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	r.Logger.Info("uncertainty complete", "trials", uc.Trials, "params", names)
	return results, nil
}

// Summarise reduces trial results to mean, spread and quantile bands.
func Summarise(results []TrialResult) UncertaintyStats {
	pick := func(f func(TrialResult) float64) Band {
		xs := make([]float64, len(results))
		for i, r := range results {
			xs[i] = f(r)
		}
		return band(xs)
	}
	return UncertaintyStats{
		PeakValue:  pick(func(r TrialResult) float64 { return r.Peak.Value }),
		PeakTime:   pick(func(r TrialResult) float64 { return r.Peak.Time }),
		AttackRate: pick(func(r TrialResult) float64 { return r.AttackRate }),
	}
}

func band(xs []float64) Band {
	if len(xs) == 0 {
		return Band{}
	}
	sort.Float64s(xs)
	b := Band{
		Q05: stat.Quantile(0.05, stat.Empirical, xs, nil),
		Q50: stat.Quantile(0.5, stat.Empirical, xs, nil),
		Q95: stat.Quantile(0.95, stat.Empirical, xs, nil),
	}
	if len(xs) == 1 {
		b.Mean = xs[0]
		return b
	}
	b.Mean, b.Std = stat.MeanStdDev(xs, nil)
	return b
}
