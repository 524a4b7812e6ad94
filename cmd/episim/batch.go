package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/san-kum/episim/internal/analysis"
	"github.com/san-kum/episim/internal/automation"
	"github.com/san-kum/episim/internal/chart"
	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/experiment"
	"github.com/san-kum/episim/internal/optim"
	"github.com/san-kum/episim/internal/storage"
	"github.com/san-kum/episim/internal/viz"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
)

var (
	sweepParam     string
	sweepMin       float64
	sweepMax       float64
	sweepSteps     int
	thresholdSteps int
	ranges         []string
	trials         int
	objective      string
)

// basePreset returns the named preset, or a default config for the model of
// that name.
func basePreset(name string) *config.Config {
	if p := config.GetPreset(name); p != nil {
		return p
	}
	cfg := config.DefaultConfig()
	cfg.Name, cfg.Model = name, name
	return cfg
}

func newRunner() *automation.Runner {
	runner := automation.NewRunner(registry, logger)
	runner.Recorder = recorder
	return runner
}

func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	base := basePreset(args[0])
	ctx, stop := interruptible()
	defer stop()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tSTEPS\tTIME\tDRIFT\tMAX|Δ FINAL|\tFINAL")

	var reference []float64
	for _, name := range args[1:] {
		cfg := base.Clone()
		cfg.Integrator = name

		start := time.Now()
		out, err := experiment.New(cfg, registry, logger).WithRecorder(recorder).Run(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		elapsed := time.Since(start)

		final := out.Result.Final()
		diff := 0.0
		if reference == nil {
			reference = final
		} else {
			diff = floats.Distance(final, reference, math.Inf(1))
		}
		fmt.Fprintf(w, "%s\t%d\t%v\t%.2e\t%.3e\t%.4g\n",
			name, out.Result.StepsTaken, elapsed.Round(time.Microsecond), out.Result.PopulationDrift, diff, []float64(final))
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx, stop := interruptible()
	defer stop()

	results, err := newRunner().RunSweep(ctx, &automation.ParameterSweep{
		Base:        basePreset(args[0]),
		Param:       sweepParam,
		Min:         sweepMin,
		Max:         sweepMax,
		Steps:       sweepSteps,
		Compartment: compartment,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tR0\tPEAK %s\tPEAK TIME\tFINAL %s\tATTACK RATE\n", sweepParam, compartment, compartment)
	peaks := make([]float64, len(results))
	for i, r := range results {
		peaks[i] = r.Peak.Value
		fmt.Fprintf(w, "%.4g\t%.3g\t%.4g\t%.4g\t%.4g\t%.3f\n", r.Value, r.R0, r.Peak.Value, r.Peak.Time, r.Final, r.AttackRate)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	graph, err := viz.PlotSeries([]chart.Series{{Label: "peak " + compartment, Values: peaks}},
		viz.PlotOptions{Width: 60, Height: 10, Caption: fmt.Sprintf("peak %s vs %s", compartment, sweepParam)})
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, graph)
	return nil
}

func runThreshold(cmd *cobra.Command, args []string) error {
	base := basePreset(args[0])
	m, err := registry.GetModel(base.Model)
	if err != nil {
		return err
	}
	for k, v := range base.Params {
		if err := m.SetParam(k, v); err != nil {
			return err
		}
	}
	integ, err := registry.GetIntegrator(base.Integrator)
	if err != nil {
		return err
	}

	ctx, stop := interruptible()
	defer stop()

	points, err := analysis.ThresholdDiagram(ctx, m, integ, sweepParam, sweepMin, sweepMax, thresholdSteps, compartment, base.SimConfig())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "final %s against %s (%s)\n\n", compartment, sweepParam, base.Model)
	fmt.Fprintln(out, analysis.ThresholdToASCII(points, 70, 20))
	if at, ok := analysis.EpidemicThreshold(points); ok {
		fmt.Fprintf(out, "R0 crosses 1 at %s=%.4g\n", sweepParam, at)
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, stop := interruptible()
	defer stop()

	outcomes, runErr := newRunner().RunScenario(ctx, scenario)

	st, err := openStore()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRUN ID\tMODEL\tSAMPLES\tTIME")
	for i, out := range outcomes {
		meta := storage.NewMetadata(out.Config, out.Result)
		meta.Population = population(out)
		if out.Summary != nil {
			meta.R0, meta.AttackRate = out.Summary.R0, out.Summary.AttackRate
		}
		id, err := st.Save(meta, out.Result, out.Ensemble)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%v\n", i+1, id, out.Config.Model, len(out.Result.States), out.Elapsed.Round(time.Microsecond))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func runUncertainty(cmd *cobra.Command, args []string) error {
	rs := make(map[string]automation.Range, len(ranges))
	for _, spec := range ranges {
		name, rg, _, err := parseRange(spec)
		if err != nil {
			return err
		}
		rs[name] = rg
	}

	ctx, stop := interruptible()
	defer stop()

	results, err := newRunner().RunUncertainty(ctx, &automation.UncertaintyConfig{
		Base:        basePreset(args[0]),
		Ranges:      rs,
		Trials:      trials,
		Seed:        uint64(seed),
		Compartment: compartment,
	})
	if err != nil {
		return err
	}

	stats := automation.Summarise(results)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%d trials\tMEAN\tSTD\tQ05\tMEDIAN\tQ95\n", len(results))
	for _, row := range []struct {
		name string
		b    automation.Band
	}{
		{"peak " + compartment, stats.PeakValue},
		{"peak time", stats.PeakTime},
		{"attack rate", stats.AttackRate},
	} {
		fmt.Fprintf(w, "%s\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\n", row.name, row.b.Mean, row.b.Std, row.b.Q05, row.b.Q50, row.b.Q95)
	}
	return w.Flush()
}

func runOptimize(cmd *cobra.Command, args []string) error {
	if len(ranges) == 0 {
		return fmt.Errorf("at least one --grid is required")
	}
	names := make([]string, 0, len(ranges))
	grid := make([][]float64, 0, len(ranges))
	for _, spec := range ranges {
		name, rg, n, err := parseRange(spec)
		if err != nil {
			return err
		}
		names = append(names, name)
		grid = append(grid, optim.Linspace(rg.Min, rg.Max, n))
	}

	base := basePreset(args[0])
	search := optim.NewGridSearch(names, grid)
	logger.Info("grid search", "preset", args[0], "runs", search.Size(), "objective", objective)

	ctx, stop := interruptible()
	defer stop()

	best, value, err := search.Search(ctx, func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := base.Clone()
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64)
		}
		for k, v := range params {
			cfg.Params[k] = v
		}
		return experiment.New(cfg, registry, logger).WithRecorder(recorder), nil
	}, objective)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, viz.KeyValues("best parameters", best))
	fmt.Fprintln(out, viz.MetricLabel.Render(objective)+viz.MetricValue.Render(fmt.Sprintf("%.6g", value)))
	return nil
}
