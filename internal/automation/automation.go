// Package automation runs batches of experiments: scripted scenarios,
// parameter sweeps and parameter uncertainty sampling.
package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"

	"github.com/san-kum/episim/internal/analysis"
	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/dynamo"
	"github.com/san-kum/episim/internal/experiment"
	"github.com/san-kum/episim/internal/logging"
	"gopkg.in/yaml.v3"
)

var ErrEmptyBatch = errors.New("automation: nothing to run")

// Scenario defines a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset, or from the default config, and
// overrides whatever the step sets.
type ScenarioStep struct {
	Preset        string                      `yaml:"preset"`
	Model         string                      `yaml:"model"`
	Kind          string                      `yaml:"kind"`
	Integrator    string                      `yaml:"integrator"`
	Duration      float64                     `yaml:"duration"`
	Dt            float64                     `yaml:"dt"`
	Points        int                         `yaml:"points"`
	Seed          int64                       `yaml:"seed"`
	Replicates    int                         `yaml:"replicates"`
	Params        map[string]float64          `yaml:"params"`
	Init          map[string]float64          `yaml:"init"`
	Interventions []config.InterventionConfig `yaml:"interventions"`
	SaveAs        string                      `yaml:"save_as"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return &scenario, nil
}

// Resolve builds the run config of the step.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q", s.Preset)
		}
	}

	if s.Model != "" {
		cfg.Model = s.Model
	}
	if s.Kind != "" {
		cfg.Kind = s.Kind
	}
	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
	}
	if s.Duration > 0 {
		cfg.Duration = s.Duration
	}
	if s.Dt > 0 {
		cfg.Dt = s.Dt
	}
	if s.Points > 0 {
		cfg.Points = s.Points
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	if s.Replicates > 0 {
		cfg.Replicates = s.Replicates
	}
	if len(s.Params) > 0 {
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64)
		}
		maps.Copy(cfg.Params, s.Params)
	}
	if len(s.Init) > 0 {
		cfg.Init = maps.Clone(s.Init)
	}
	if len(s.Interventions) > 0 {
		cfg.Interventions = s.Interventions
	}
	if s.SaveAs != "" {
		cfg.Name = s.SaveAs
	}
	return cfg, cfg.Validate()
}

// Runner executes batches through a shared registry.
type Runner struct {
	Registry *experiment.Registry
	Logger   *slog.Logger
	Recorder experiment.Recorder
}

func NewRunner(registry *experiment.Registry, logger *slog.Logger) *Runner {
	return &Runner{Registry: registry, Logger: logging.OrDiscard(logger)}
}

func (r *Runner) run(ctx context.Context, cfg *config.Config) (*experiment.Outcome, error) {
	exp := experiment.New(cfg, r.Registry, r.Logger)
	if r.Recorder != nil {
		exp.WithRecorder(r.Recorder)
	}
	return exp.Run(ctx)
}

// RunScenario executes all steps in order and stops at the first failure,
// returning the outcomes so far.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) ([]*experiment.Outcome, error) {
	if len(scenario.Steps) == 0 {
		return nil, ErrEmptyBatch
	}

	outcomes := make([]*experiment.Outcome, 0, len(scenario.Steps))
	for i, step := range scenario.Steps {
		cfg, err := step.Resolve()
		if err != nil {
			return outcomes, fmt.Errorf("step %d: %w", i+1, err)
		}

		r.Logger.Info("scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "model", cfg.Model)
		out, err := r.run(ctx, cfg)
		if err != nil {
			return outcomes, fmt.Errorf("step %d run: %w", i+1, err)
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// Measure is what a batch records about one run of a tracked compartment.
type Measure struct {
	Peak       analysis.Peak
	Final      float64
	R0         float64
	AttackRate float64
}

func measure(out *experiment.Outcome, compartment string) (Measure, error) {
	series, err := analysis.Series(out.Result, compartment)
	if err != nil {
		return Measure{}, err
	}
	m := Measure{
		Peak:  analysis.FindPeak(series, out.Result.Times),
		Final: series[len(series)-1],
	}
	if out.Summary != nil {
		m.R0 = out.Summary.R0
		m.AttackRate = out.Summary.AttackRate
	}
	return m, nil
}

// ParameterSweep runs the base config across evenly spaced values of one
// parameter.
type ParameterSweep struct {
	Base        *config.Config
	Param       string
	Min         float64
	Max         float64
	Steps       int
	Compartment string
}

type SweepResult struct {
	Value float64
	Measure
	FinalState dynamo.State
}

// RunSweep executes the sweep in parallel; results keep the order of the
// swept values.
func (r *Runner) RunSweep(ctx context.Context, sweep *ParameterSweep) ([]SweepResult, error) {
	if sweep.Steps < 1 {
		return nil, ErrEmptyBatch
	}

	values := make([]float64, sweep.Steps)
	for i := range values {
		values[i] = sweep.Min
		if sweep.Steps > 1 {
			values[i] += float64(i) * (sweep.Max - sweep.Min) / float64(sweep.Steps-1)
		}
	}

	results := make([]SweepResult, sweep.Steps)
	errs := make([]error, sweep.Steps)
	dynamo.ParallelFor(sweep.Steps, 1, func(start, end int) {
		for i := start; i < end; i++ {
			cfg := sweep.Base.Clone()
			if cfg.Params == nil {
				cfg.Params = make(map[string]float64)
			}
			cfg.Params[sweep.Param] = values[i]

			out, err := r.run(ctx, cfg)
			if err != nil {
				errs[i] = fmt.Errorf("%s=%g: %w", sweep.Param, values[i], err)
				continue
			}
			m, err := measure(out, sweep.Compartment)
			if err != nil {
				errs[i] = err
				continue
			}
			results[i] = SweepResult{Value: values[i], Measure: m, FinalState: out.Result.Final()}
		}
	})
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	r.Logger.Info("sweep complete", "param", sweep.Param, "points", sweep.Steps, "compartment", sweep.Compartment)
	return results, nil
}
