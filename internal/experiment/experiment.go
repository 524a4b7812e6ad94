package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/episim/internal/analysis"
	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/dynamo"
	"github.com/san-kum/episim/internal/logging"
	"github.com/san-kum/episim/internal/models"
	"github.com/san-kum/episim/internal/stochastic"
)

// Recorder receives one call per finished run.
type Recorder interface {
	ObserveRun(model, kind string, samples, replicates int, elapsed time.Duration, err error)
}

// Outcome is everything a run produced. Stochastic runs report the
// replicate mean in Result and keep the replicates in Ensemble.
type Outcome struct {
	Config   *config.Config
	Model    models.Model
	Result   *dynamo.Result
	Ensemble *stochastic.EnsembleResult
	Summary  *analysis.Summary
	Elapsed  time.Duration
}

type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	logger    *slog.Logger
	recorder  Recorder
	observers []dynamo.Observer
}

func New(cfg *config.Config, registry *Registry, logger *slog.Logger) *Experiment {
	return &Experiment{
		cfg:      cfg,
		registry: registry,
		logger:   logging.OrDiscard(logger),
	}
}

func (e *Experiment) WithRecorder(r Recorder) *Experiment {
	e.recorder = r
	return e
}

// AddObserver attaches an observer to deterministic runs.
func (e *Experiment) AddObserver(o dynamo.Observer) {
	e.observers = append(e.observers, o)
}

func (e *Experiment) Run(ctx context.Context) (*Outcome, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	var (
		out *Outcome
		err error
	)
	if e.cfg.IsStochastic() {
		out, err = e.runStochastic(ctx)
	} else {
		out, err = e.runODE(ctx)
	}
	elapsed := time.Since(start)

	if e.recorder != nil {
		samples, reps := 0, 0
		if out != nil {
			samples = len(out.Result.States)
			reps = 1
			if out.Ensemble != nil {
				reps = len(out.Ensemble.Runs)
			}
		}
		e.recorder.ObserveRun(e.cfg.Model, e.kind(), samples, reps, elapsed, err)
	}
	if err != nil {
		e.logger.Error("run failed", "model", e.cfg.Model, "kind", e.kind(), "err", err)
		return nil, err
	}

	out.Elapsed = elapsed
	e.logger.Info("run complete",
		"model", e.cfg.Model,
		"kind", e.kind(),
		"samples", len(out.Result.States),
		"elapsed", elapsed.Round(time.Microsecond))
	return out, nil
}

func (e *Experiment) kind() string {
	if e.cfg.IsStochastic() {
		return config.KindStochastic
	}
	return config.KindODE
}

// BuildModel instantiates the configured model with parameter overrides and
// interventions applied.
func (e *Experiment) BuildModel() (models.Model, error) {
	m, err := e.registry.GetModel(e.cfg.Model)
	if err != nil {
		return nil, err
	}
	for name, v := range e.cfg.Params {
		if err := m.SetParam(name, v); err != nil {
			return nil, fmt.Errorf("model %s: %w", e.cfg.Model, err)
		}
	}

	sched := make(models.Schedule, 0, len(e.cfg.Interventions))
	for _, iv := range e.cfg.Interventions {
		sched = append(sched, models.Intervention{Name: iv.Name, At: iv.At, Scale: iv.Scale})
	}
	if err := sched.Validate(m.GetParams()); err != nil {
		return nil, fmt.Errorf("model %s: %w", e.cfg.Model, err)
	}
	m.SetInterventions(sched)
	return m, nil
}

func (e *Experiment) runODE(ctx context.Context) (*Outcome, error) {
	m, err := e.BuildModel()
	if err != nil {
		return nil, err
	}
	integ, err := e.registry.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return nil, err
	}
	x0, err := m.InitialState(e.cfg.Init)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", e.cfg.Model, err)
	}

	sim := dynamo.New(m, integ)
	for _, metric := range e.registry.DefaultMetrics(m) {
		sim.AddMetric(metric)
	}
	for _, o := range e.observers {
		sim.AddObserver(o)
	}

	e.logger.Debug("integrating",
		"model", e.cfg.Model,
		"integrator", e.cfg.Integrator,
		"duration", e.cfg.Duration,
		"points", e.cfg.Points,
		"interventions", len(e.cfg.Interventions))

	result, err := sim.Run(ctx, x0, e.cfg.SimConfig())
	if err != nil {
		return nil, err
	}
	for _, simErr := range result.Errors {
		e.logger.Warn("integration stopped early", "model", e.cfg.Model, "err", simErr)
	}

	summary, err := analysis.Summarize(m, result)
	if err != nil {
		return nil, err
	}
	return &Outcome{Config: e.cfg, Model: m, Result: result, Summary: summary}, nil
}

// BuildProcess instantiates the configured stochastic process.
func (e *Experiment) BuildProcess() (stochastic.Process, error) {
	proc, err := e.registry.GetProcess(e.cfg.Model)
	if err != nil {
		return nil, err
	}
	if len(e.cfg.Params) > 0 {
		tunable, ok := proc.(dynamo.Configurable)
		if !ok {
			return nil, fmt.Errorf("process %s takes no parameters", e.cfg.Model)
		}
		for name, v := range e.cfg.Params {
			if err := tunable.SetParam(name, v); err != nil {
				return nil, fmt.Errorf("process %s: %w", e.cfg.Model, err)
			}
		}
	}
	return proc, nil
}

func (e *Experiment) runStochastic(ctx context.Context) (*Outcome, error) {
	proc, err := e.BuildProcess()
	if err != nil {
		return nil, err
	}

	reps := e.cfg.Replicates
	if reps < 1 {
		reps = 1
	}
	ens := stochastic.Ensemble{Process: proc, Replicates: reps, Seed: uint64(e.cfg.Seed)}

	e.logger.Debug("sampling",
		"process", proc.Name(),
		"replicates", reps,
		"steps", e.cfg.Steps(),
		"dt", e.cfg.Dt,
		"seed", e.cfg.Seed)

	res, err := ens.Run(ctx, e.cfg.Steps(), e.cfg.Dt)
	if err != nil {
		return nil, err
	}
	return &Outcome{Config: e.cfg, Result: MeanResult(res), Ensemble: res}, nil
}

// MeanResult collapses an ensemble into its per-sample replicate mean.
func MeanResult(res *stochastic.EnsembleResult) *dynamo.Result {
	means := make([][]float64, len(res.Compartments))
	for i := range res.Compartments {
		means[i] = res.Mean(i)
	}

	out := &dynamo.Result{
		States:       make([]dynamo.State, len(res.Times)),
		Times:        res.Times,
		Compartments: res.Compartments,
		Metrics:      make(map[string]float64),
		StepsTaken:   res.Runs[0].StepsTaken,
	}
	for k := range res.Times {
		x := make(dynamo.State, len(res.Compartments))
		for i := range x {
			x[i] = means[i][k]
		}
		out.States[k] = x
	}
	for i, name := range res.Compartments {
		out.Metrics["extinction_"+name] = res.Extinction(i)
		mean, std := res.FinalStats(i)
		out.Metrics["final_mean_"+name] = mean
		out.Metrics["final_std_"+name] = std
	}
	return out
}
