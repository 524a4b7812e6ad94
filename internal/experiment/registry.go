package experiment

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/san-kum/episim/internal/dynamo"
	"github.com/san-kum/episim/internal/integrators"
	"github.com/san-kum/episim/internal/metrics"
	"github.com/san-kum/episim/internal/models"
	"github.com/san-kum/episim/internal/stochastic"
)

var (
	ErrUnknownModel      = errors.New("unknown model")
	ErrUnknownIntegrator = errors.New("unknown integrator")
)

type Registry struct {
	models      map[string]func() models.Model
	processes   map[string]func() stochastic.Process
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		models:      make(map[string]func() models.Model),
		processes:   make(map[string]func() stochastic.Process),
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.models["sir"] = func() models.Model { return models.NewSIR() }
	r.models["seir"] = func() models.Model { return models.NewSEIR() }
	r.models["ebola"] = func() models.Model { return models.NewEbola() }
	r.models["hiv"] = func() models.Model { return models.NewHIV() }
	r.models["hiv_heterogeneous"] = func() models.Model { return models.NewHIVHeterogeneous() }
	r.models["gonorrhea"] = func() models.Model { return models.NewGonorrhea() }
	r.models["pop_growth"] = func() models.Model { return models.NewPopGrowth() }

	r.processes["pop_growth"] = func() stochastic.Process { return stochastic.NewPopGrowth() }
	r.processes["pop_growth_death"] = func() stochastic.Process { return stochastic.NewPopGrowthDeath() }
	r.processes["sir"] = func() stochastic.Process { return stochastic.NewSIR() }

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }

	return r
}

func (r *Registry) GetModel(name string) (models.Model, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	return fn(), nil
}

func (r *Registry) GetProcess(name string) (stochastic.Process, error) {
	fn, ok := r.processes[name]
	if !ok {
		return nil, fmt.Errorf("%w: stochastic %s", ErrUnknownModel, name)
	}
	return fn(), nil
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIntegrator, name)
	}
	return fn(), nil
}

func (r *Registry) ListModels() []string      { return slices.Sorted(maps.Keys(r.models)) }
func (r *Registry) ListProcesses() []string   { return slices.Sorted(maps.Keys(r.processes)) }
func (r *Registry) ListIntegrators() []string { return slices.Sorted(maps.Keys(r.integrators)) }

// DefaultMetrics returns the metrics recorded for every run of m. Infectious
// compartments are those whose names start with I or A.
func (r *Registry) DefaultMetrics(m models.Model) []dynamo.Metric {
	population := m.GetParams()["population"]
	infectious := make([]int, 0)
	for i, name := range m.Compartments() {
		if name[0] == 'I' || name[0] == 'A' {
			infectious = append(infectious, i)
		}
	}

	ms := []dynamo.Metric{
		metrics.NewPositivity(1e-6),
		metrics.NewPopulationDrift(m),
	}
	if len(infectious) > 0 {
		ms = append(ms,
			metrics.NewPeakPrevalence(population, infectious...),
			metrics.NewPeakTime(infectious...),
			metrics.NewBurden(infectious...),
			metrics.NewFinalFraction("final_infectious", population, infectious...),
		)
	}
	return ms
}
