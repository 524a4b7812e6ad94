package models

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/episim/internal/dynamo"
)

var ErrUnknownCompartment = errors.New("models: unknown compartment")

type Model interface {
	dynamo.System
	dynamo.Configurable
	DefaultState() dynamo.State
	InitialState(overrides map[string]float64) (dynamo.State, error)
	SetInterventions(s Schedule)
	Interventions() Schedule
}

// Indicating models expose derived quantities such as prevalence.
type Indicating interface {
	Indicators(x dynamo.State, t float64) map[string]float64
}

// Reproducing models know their basic reproduction number.
type Reproducing interface {
	BasicReproduction() float64
}

func params(fields map[string]*float64) map[string]float64 {
	out := make(map[string]float64, len(fields))
	for name, p := range fields {
		out[name] = *p
	}
	return out
}

func assign(fields map[string]*float64, name string, v float64) error {
	p, ok := fields[name]
	if !ok {
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s=%g", dynamo.ErrParameterBounds, name, v)
	}
	*p = v
	return nil
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

// seed builds an initial state from base and overrides. When balance is a
// valid index and that compartment is not overridden, it receives whatever
// the other compartments leave of total.
func seed(names []string, base dynamo.State, overrides map[string]float64, balance int, total float64) (dynamo.State, error) {
	x := base.Clone()
	for name, v := range overrides {
		idx := indexOf(names, name)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCompartment, name)
		}
		if v < 0 {
			return nil, fmt.Errorf("%w: %s=%g", dynamo.ErrParameterBounds, name, v)
		}
		x[idx] = v
	}

	if balance < 0 {
		return x, nil
	}
	if _, ok := overrides[names[balance]]; ok {
		return x, nil
	}

	rest := 0.0
	for i, v := range x {
		if i != balance {
			rest += v
		}
	}
	if rest > total {
		return nil, fmt.Errorf("%w: seeded compartments (%g) exceed population %g", dynamo.ErrParameterBounds, rest, total)
	}
	x[balance] = total - rest
	return x, nil
}

func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}
