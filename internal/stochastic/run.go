package stochastic

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/san-kum/episim/internal/dynamo"
)

// Run draws one trajectory of steps transitions, sampled at t = k*dt.
func Run(ctx context.Context, proc Process, src rand.Source, steps int, dt float64) (*dynamo.Result, error) {
	if steps < 1 {
		return nil, fmt.Errorf("%w: steps must be positive, got %d", dynamo.ErrInvalidConfig, steps)
	}
	if dt <= 0 {
		return nil, fmt.Errorf("%w: dt must be positive, got %f", dynamo.ErrInvalidConfig, dt)
	}
	if err := proc.Validate(); err != nil {
		return nil, err
	}

	x := proc.Initial()
	result := &dynamo.Result{
		States:       make([]dynamo.State, 0, steps+1),
		Times:        make([]float64, 0, steps+1),
		Compartments: proc.Compartments(),
		Metrics:      make(map[string]float64),
		Errors:       make([]error, 0),
	}
	record(result, x, 0)

	for k := 1; k <= steps; k++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		t := float64(k-1) * dt
		next := proc.Step(src, x, t, dt)
		for _, v := range next {
			if v < 0 {
				err := &dynamo.SimulationError{Step: k, Time: t, State: toState(next), Wrapped: dynamo.ErrInvalidState}
				result.Errors = append(result.Errors, err)
				return result, err
			}
		}
		x = next
		record(result, x, float64(k)*dt)
		result.StepsTaken++
	}
	return result, nil
}

func record(result *dynamo.Result, x []int64, t float64) {
	result.States = append(result.States, toState(x))
	result.Times = append(result.Times, t)
}

func toState(x []int64) dynamo.State {
	s := make(dynamo.State, len(x))
	for i, v := range x {
		s[i] = float64(v)
	}
	return s
}
