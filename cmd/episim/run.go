package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/san-kum/episim/internal/analysis"
	"github.com/san-kum/episim/internal/chart"
	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/dynamo"
	"github.com/san-kum/episim/internal/experiment"
	"github.com/san-kum/episim/internal/models"
	"github.com/san-kum/episim/internal/stochastic"
	"github.com/san-kum/episim/internal/storage"
	"github.com/san-kum/episim/internal/tui"
	"github.com/san-kum/episim/internal/viz"
	"github.com/spf13/cobra"
)

// resolveConfig applies, in increasing precedence, the positional preset or
// model, the --preset flag, the config file and explicitly set flags.
func resolveConfig(cmd *cobra.Command, args []string, stochasticRun bool) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if stochasticRun {
		cfg = config.GetPreset("stochastic_sir")
	}

	if len(args) > 0 {
		if p := presetFor(args[0], stochasticRun); p != nil {
			cfg = p
		} else {
			cfg = config.DefaultConfig()
			cfg.Name = args[0]
			cfg.Model = args[0]
		}
	}

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if stochasticRun {
		cfg.Kind = config.KindStochastic
	} else if cfg.Kind == "" {
		cfg.Kind = config.KindODE
	}

	flags := cmd.Flags()
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("points") {
		cfg.Points = points
	}
	if flags.Changed("adaptive") {
		cfg.Adaptive = adaptive
	}
	if flags.Changed("tol") {
		cfg.Tolerance = tolerance
	}
	if flags.Changed("replicates") {
		cfg.Replicates = replicates
	}

	overrides, err := parseAssignments(sets)
	if err != nil {
		return nil, err
	}
	if len(overrides) > 0 && cfg.Params == nil {
		cfg.Params = make(map[string]float64)
	}
	for k, v := range overrides {
		cfg.Params[k] = v
	}

	initial, err := parseAssignments(inits)
	if err != nil {
		return nil, err
	}
	if len(initial) > 0 {
		cfg.Init = initial
	}

	for _, spec := range interventions {
		iv, err := parseIntervention(spec)
		if err != nil {
			return nil, err
		}
		cfg.Interventions = append(cfg.Interventions, config.InterventionConfig{Name: iv.Name, At: iv.At, Scale: iv.Scale})
	}

	return cfg, cfg.Validate()
}

// presetFor finds the preset of the requested kind, trying a stochastic_
// prefix for processes that share a model name.
func presetFor(name string, stochasticRun bool) *config.Config {
	if p := config.GetPreset(name); p != nil && p.IsStochastic() == stochasticRun {
		return p
	}
	if stochasticRun {
		return config.GetPreset("stochastic_" + name)
	}
	return nil
}

func parseIntervention(spec string) (models.Intervention, error) {
	name, at, ok := strings.Cut(spec, "@")
	if !ok {
		return models.Intervention{}, fmt.Errorf("intervention %q: expected name@day", spec)
	}
	build, ok := models.EbolaInterventions[name]
	if !ok {
		return models.Intervention{}, fmt.Errorf("unknown intervention %q", name)
	}
	day, err := parseFloat(at)
	if err != nil {
		return models.Intervention{}, fmt.Errorf("intervention %q: %w", spec, err)
	}
	return build(day), nil
}

func runSimulation(cmd *cobra.Command, args []string, stochasticRun bool) error {
	cfg, err := resolveConfig(cmd, args, stochasticRun)
	if err != nil {
		return err
	}

	ctx, stop := interruptible()
	defer stop()

	exp := experiment.New(cfg, registry, logger).WithRecorder(recorder)
	if live && !cfg.IsStochastic() {
		m, err := registry.GetModel(cfg.Model)
		if err != nil {
			return err
		}
		progress := tui.NewProgress(os.Stderr, m.Compartments(), cfg.Duration, frameRate)
		exp.AddObserver(progress)
		progress.Start()
		defer progress.Stop()
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "running %s (%s)...\n", cfg.Model, cfg.Kind)
	out, err := exp.Run(ctx)
	if err != nil {
		return err
	}

	meta := storage.NewMetadata(cfg, out.Result)
	meta.Population = population(out)
	if out.Summary != nil {
		meta.R0 = out.Summary.R0
		meta.AttackRate = out.Summary.AttackRate
	}

	if !noSave {
		st, err := openStore()
		if err != nil {
			return err
		}
		id, err := st.Save(meta, out.Result, out.Ensemble)
		if err != nil {
			return err
		}
		meta.ID = id
	}

	var indicators map[string][]float64
	if out.Model != nil {
		indicators = analysis.Indicators(out.Model, out.Result)
	}
	if err := report(w, meta, out.Result, out.Summary, indicators, out.Elapsed.String()); err != nil {
		return err
	}

	if outFile != "" {
		if err := renderChart(outFile, meta, out.Result, indicators, out.Ensemble); err != nil {
			return err
		}
		fmt.Fprintf(w, "chart: %s\n", outFile)
	}
	return nil
}

// population is the size the run is normalised by: the conserved total, the
// population parameter, or the initial head count.
func population(out *experiment.Outcome) float64 {
	if len(out.Result.States) == 0 {
		return 0
	}
	if out.Model != nil {
		if c, ok := out.Model.(dynamo.Conserved); ok {
			return c.Total(out.Result.States[0])
		}
		if n, ok := out.Model.GetParams()["population"]; ok {
			return n
		}
	}
	return out.Result.States[0].Sum()
}

func report(w io.Writer, meta storage.RunMetadata, result *dynamo.Result, summary *analysis.Summary, indicators map[string][]float64, elapsed string) error {
	title := meta.Plot.Title
	if title == "" {
		title = meta.Name
	}
	fmt.Fprintln(w, viz.HeaderStyle.Render(title))
	if meta.ID != "" {
		fmt.Fprintf(w, "run id: %s\n", meta.ID)
	}
	if elapsed != "" {
		fmt.Fprintf(w, "completed in %s\n", elapsed)
	}
	fmt.Fprintf(w, "samples: %d\n\n", len(result.States))

	if summary != nil {
		fmt.Fprintln(w, viz.SummaryTable(summary, result.Compartments))
	}
	fmt.Fprintln(w, viz.KeyValues("metrics", result.Metrics))

	times, series, err := chart.FromPlot(meta.Plot, result, indicators, meta.Population)
	if err != nil {
		return err
	}
	graph, err := viz.PlotSeries(series, viz.PlotOptions{Width: 80, Height: 15, YMax: meta.Plot.YMax, Caption: title})
	if err != nil {
		return err
	}
	fmt.Fprintln(w, graph)
	fmt.Fprintln(w, viz.TimeAxis(times, meta.Plot.XLabel))
	return nil
}

// renderChart writes the configured series, or the replicate traces of one
// compartment when requested and available.
func renderChart(path string, meta storage.RunMetadata, result *dynamo.Result, indicators map[string][]float64, ens *stochastic.EnsembleResult) error {
	pc := meta.Plot
	title := pc.Title
	if title == "" {
		title = meta.Name
	}
	c := chart.NewLineChart(title, pc.XLabel, pc.YLabel)
	c.YMax = pc.YMax

	if tracesOf != "" {
		if ens == nil {
			return fmt.Errorf("run %s has no replicate traces", meta.ID)
		}
		idx := result.Index(tracesOf)
		if idx < 0 {
			return fmt.Errorf("%w: %q", models.ErrUnknownCompartment, tracesOf)
		}
		color := chart.Palette[idx%len(chart.Palette)]
		for _, s := range pc.Series {
			if s.Of == tracesOf && s.Color != "" {
				color = s.Color
			}
		}
		if err := c.RenderTraces(ens.Times, ens.Traces(idx), color, ens.Mean(idx)); err != nil {
			return err
		}
		return c.Save(path)
	}

	times, series, err := chart.FromPlot(pc, result, indicators, meta.Population)
	if err != nil {
		return err
	}
	if err := c.Render(times, series); err != nil {
		return err
	}
	return c.Save(path)
}
