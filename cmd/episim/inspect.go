package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/san-kum/episim/internal/analysis"
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

var (
	xAxis       string
	yAxis       string
	compartment string
)

// storedRun is a run read back from the store, with the model rebuilt for
// deterministic runs so indicators and summaries can be recomputed.
type storedRun struct {
	meta       *storage.RunMetadata
	result     *dynamo.Result
	ensemble   *stochastic.EnsembleResult
	model      models.Model
	indicators map[string][]float64
	summary    *analysis.Summary
}

func loadRun(runID string) (*storedRun, error) {
	st := storage.New(dataDir, logger)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, err
	}
	result, err := st.LoadStates(runID)
	if err != nil {
		return nil, err
	}
	if len(result.States) == 0 {
		return nil, fmt.Errorf("run %s: no data", runID)
	}
	result.Metrics = meta.Metrics

	run := &storedRun{meta: meta, result: result}
	if meta.Kind == config.KindStochastic {
		ens, err := st.LoadTraces(runID)
		if err != nil && !errors.Is(err, storage.ErrNoTraces) {
			return nil, err
		}
		run.ensemble = ens
		return run, nil
	}

	cfg := &config.Config{Model: meta.Model, Params: meta.Params, Interventions: meta.Interventions}
	m, err := experiment.New(cfg, registry, logger).BuildModel()
	if err != nil {
		return nil, err
	}
	run.model = m
	run.indicators = analysis.Indicators(m, result)
	if run.summary, err = analysis.Summarize(m, result); err != nil {
		return nil, err
	}
	return run, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir, logger)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tKIND\tTIME\tDURATION\tDT\tINTEG\tREPS\tR0")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f\t%.4g\t%s\t%d\t%.3g\n",
			run.ID,
			run.Model,
			run.Kind,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Replicates,
			run.R0,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if err := report(w, *run.meta, run.result, run.summary, run.indicators, ""); err != nil {
		return err
	}
	fmt.Fprintln(w, viz.KeyValues("params", run.meta.Params))
	if run.ensemble != nil {
		for i, name := range run.ensemble.Compartments {
			mean, std := run.ensemble.FinalStats(i)
			fmt.Fprintf(w, "%-4s final %.2f ± %.2f  extinct in %.0f%% of %d replicates\n",
				name, mean, std, 100*run.ensemble.Extinction(i), len(run.ensemble.Runs))
		}
	}
	return nil
}

func chartRun(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}
	path := outFile
	if path == "" {
		path = run.meta.ID + ".png"
	}
	if err := renderChart(path, *run.meta, run.result, run.indicators, run.ensemble); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "chart: %s\n", path)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir, logger)
	result, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	return storage.ExportCSV(cmd.OutOrStdout(), result)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir, logger)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	result, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(cmd.OutOrStdout(), *meta, result)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tMODEL\tKIND\tDURATION\tTITLE")
	for _, name := range config.ListPresets() {
		p := config.Presets[name]
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%s\n", name, p.Model, p.Kind, p.Duration, p.Plot.Title)
	}
	return w.Flush()
}

func listModels(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, viz.HeaderStyle.Render("models"))
	for _, name := range registry.ListModels() {
		m, _ := registry.GetModel(name)
		fmt.Fprintf(w, "  %-18s %v\n", name, m.Compartments())
	}
	fmt.Fprintln(w, viz.HeaderStyle.Render("stochastic processes"))
	for _, name := range registry.ListProcesses() {
		p, _ := registry.GetProcess(name)
		fmt.Fprintf(w, "  %-18s %v\n", name, p.Compartments())
	}
	fmt.Fprintln(w, viz.HeaderStyle.Render("integrators"))
	for _, name := range registry.ListIntegrators() {
		fmt.Fprintf(w, "  %s\n", name)
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}
	xi, yi := run.result.Index(xAxis), run.result.Index(yAxis)
	if xi < 0 || yi < 0 {
		return fmt.Errorf("%w: %s or %s (have %v)", models.ErrUnknownCompartment, xAxis, yAxis, run.result.Compartments)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "phase portrait: %s\n", run.meta.ID)
	fmt.Fprintf(w, "model: %s\n", run.meta.Model)
	fmt.Fprintf(w, "x-axis: %s, y-axis: %s\n\n", xAxis, yAxis)

	portrait := analysis.GeneratePhasePortrait(run.result, xi, yi)
	fmt.Fprintln(w, analysis.PhasePortraitToASCII(portrait, 70, 20))
	return nil
}

func analyzePeriod(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}
	series, err := analysis.Series(run.result, compartment)
	if err != nil {
		return err
	}
	times := run.result.Times

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s in run %s\n\n", compartment, run.meta.ID)

	if len(times) > 1 {
		spacing := times[1] - times[0]
		power := analysis.PowerSpectrum(series)
		if graph, err := viz.PlotSpectrum(power[:max(len(power)/4, 1)], "power spectrum ("+compartment+")"); err == nil {
			fmt.Fprintln(w, graph)
			fmt.Fprintln(w)
		}
		if period, err := analysis.DominantPeriod(series, spacing); err == nil {
			fmt.Fprintln(w, viz.MetricLabel.Render("dominant period")+viz.MetricValue.Render(fmt.Sprintf("%.4g", period)))
		} else {
			fmt.Fprintln(w, viz.MetricLabel.Render("dominant period")+viz.Subtle.Render(err.Error()))
		}
	}

	peak := analysis.FindPeak(series, times)
	early := times[0] + (peak.Time-times[0])/2
	if rate, err := analysis.GrowthRate(series, times, times[0], early); err == nil {
		fmt.Fprintln(w, viz.MetricLabel.Render("early growth rate")+viz.MetricValue.Render(fmt.Sprintf("%.4g", rate)))
		fmt.Fprintln(w, viz.MetricLabel.Render("doubling time")+viz.MetricValue.Render(fmt.Sprintf("%.4g", analysis.DoublingTime(rate))))
	}

	// an outbreak starts each time the series rises through its mean
	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(len(series))
	crossings := analysis.Crossings(run.result, run.result.Index(compartment), mean)
	fmt.Fprintln(w, viz.MetricLabel.Render("outbreaks")+viz.MetricValue.Render(fmt.Sprintf("%d", len(crossings))))
	return nil
}

func playRun(cmd *cobra.Command, args []string) error {
	var runID string
	if len(args) > 0 {
		runID = args[0]
	} else {
		runs, err := storage.New(dataDir, logger).List()
		if err != nil {
			return err
		}
		if runID, err = tui.Pick(runs); err != nil {
			return err
		}
		if runID == "" {
			return nil
		}
	}

	run, err := loadRun(runID)
	if err != nil {
		return err
	}
	title := run.meta.Plot.Title
	if title == "" {
		title = run.meta.Name
	}
	return tui.Play(title, run.result)
}
