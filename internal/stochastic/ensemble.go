package stochastic

import (
	"context"
	"fmt"
	"sort"

	"github.com/san-kum/episim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

type Ensemble struct {
	Process    Process
	Replicates int
	Seed       uint64
}

type EnsembleResult struct {
	Compartments []string
	Times        []float64
	Runs         []*dynamo.Result
}

// Run executes the replicates in parallel. Replicate k draws from
// NewSource(Seed, k).
func (e Ensemble) Run(ctx context.Context, steps int, dt float64) (*EnsembleResult, error) {
	if e.Replicates < 1 {
		return nil, fmt.Errorf("%w: replicates must be positive, got %d", dynamo.ErrInvalidConfig, e.Replicates)
	}
	if err := e.Process.Validate(); err != nil {
		return nil, err
	}

	runs := make([]*dynamo.Result, e.Replicates)
	errs := make([]error, e.Replicates)
	dynamo.ParallelFor(e.Replicates, 4, func(start, end int) {
		for k := start; k < end; k++ {
			runs[k], errs[k] = Run(ctx, e.Process, NewSource(e.Seed, uint64(k)), steps, dt)
		}
	})

	for k, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("replicate %d: %w", k, err)
		}
	}

	return &EnsembleResult{
		Compartments: e.Process.Compartments(),
		Times:        runs[0].Times,
		Runs:         runs,
	}, nil
}

// Traces returns compartment idx of every replicate as a replicate x time
// matrix.
func (r *EnsembleResult) Traces(idx int) *mat.Dense {
	cols := len(r.Times)
	data := make([]float64, 0, len(r.Runs)*cols)
	for _, run := range r.Runs {
		data = append(data, run.Series(idx)...)
	}
	return mat.NewDense(len(r.Runs), cols, data)
}

func (r *EnsembleResult) Mean(idx int) []float64 {
	traces := r.Traces(idx)
	_, cols := traces.Dims()
	out := make([]float64, cols)
	for j := range out {
		out[j] = stat.Mean(mat.Col(nil, j, traces), nil)
	}
	return out
}

// Quantile returns the empirical q-quantile across replicates at each time.
func (r *EnsembleResult) Quantile(idx int, q float64) []float64 {
	traces := r.Traces(idx)
	_, cols := traces.Dims()
	out := make([]float64, cols)
	for j := range out {
		col := mat.Col(nil, j, traces)
		sort.Float64s(col)
		out[j] = stat.Quantile(q, stat.Empirical, col, nil)
	}
	return out
}

// Extinction is the fraction of replicates whose final value is zero.
func (r *EnsembleResult) Extinction(idx int) float64 {
	extinct := 0
	for _, run := range r.Runs {
		if run.Final()[idx] == 0 {
			extinct++
		}
	}
	return float64(extinct) / float64(len(r.Runs))
}

func (r *EnsembleResult) FinalStats(idx int) (mean, std float64) {
	finals := make([]float64, len(r.Runs))
	for k, run := range r.Runs {
		finals[k] = run.Final()[idx]
	}
	if len(finals) == 1 {
		return finals[0], 0
	}
	return stat.MeanStdDev(finals, nil)
}
