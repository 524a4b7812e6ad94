package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/san-kum/episim/internal/experiment"
	"github.com/san-kum/episim/internal/logging"
	"github.com/san-kum/episim/internal/storage"
	"github.com/san-kum/episim/internal/telemetry"
	"github.com/spf13/cobra"
)

var (
	dataDir     string
	verbose     bool
	metricsFile string

	logger   *slog.Logger
	recorder *telemetry.Recorder
	registry = experiment.NewRegistry()
)

// run flags, shared by run and stochastic
var (
	configFile    string
	preset        string
	integrator    string
	dt            float64
	duration      float64
	points        int
	seed          int64
	replicates    int
	adaptive      bool
	tolerance     float64
	sets          []string
	inits         []string
	interventions []string
	outFile       string
	tracesOf      string
	live          bool
	frameRate     int
	noSave        bool
)

// main registers the episim commands and exits with status 1 if the selected
// command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "episim",
		Short:         "epidemic model simulation lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.New(os.Stderr, verbose)
			slog.SetDefault(logger)
			recorder = telemetry.NewRecorder()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if metricsFile == "" {
				return nil
			}
			return recorder.WriteTextfile(metricsFile)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".episim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write run metrics in textfile exposition format")

	runCmd := &cobra.Command{
		Use:   "run [preset|model]",
		Short: "integrate a deterministic model",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd, args, false)
		},
	}
	addRunFlags(runCmd)
	runCmd.Flags().StringArrayVar(&interventions, "intervention", nil, "ebola intervention name@day (safe_burial, reduce_contact_bodies, reduce_contact_infected, all)")
	runCmd.Flags().BoolVar(&adaptive, "adaptive", false, "adaptive step size")
	runCmd.Flags().Float64Var(&tolerance, "tol", 1e-6, "adaptive tolerance")
	runCmd.Flags().IntVar(&points, "points", 0, "output samples (0: one per dt)")
	runCmd.Flags().BoolVar(&live, "live", false, "show progress while integrating")
	runCmd.Flags().IntVar(&frameRate, "fps", 20, "progress refresh rate")

	stochasticCmd := &cobra.Command{
		Use:   "stochastic [preset|process]",
		Short: "sample replicates of a stochastic process",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd, args, true)
		},
	}
	addRunFlags(stochasticCmd)
	stochasticCmd.Flags().IntVar(&replicates, "replicates", 1, "number of replicates")
	stochasticCmd.Flags().StringVar(&tracesOf, "traces", "", "chart every replicate of this compartment")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "summarise a run and chart it in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	chartCmd := &cobra.Command{
		Use:   "chart [run_id]",
		Short: "render a run to PNG or SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  chartRun,
	}
	chartCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (.png or .svg), default <run_id>.png")
	chartCmd.Flags().StringVar(&tracesOf, "traces", "", "chart every replicate of this compartment")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset configurations",
		RunE:  listPresets,
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list models, processes and integrators",
		RunE:  listModels,
	}

	compareCmd := &cobra.Command{
		Use:   "compare [preset] [integrator1] [integrator2] ...",
		Short: "compare integrators on the same model",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareIntegrators,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "sweep one parameter and chart peak and final size",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "param", "beta", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.05, "lowest value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 0.5, "highest value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 10, "number of values")
	sweepCmd.Flags().StringVar(&compartment, "compartment", "I", "compartment to track")

	thresholdCmd := &cobra.Command{
		Use:   "threshold [model]",
		Short: "peak of a compartment against a parameter, with R0",
		Args:  cobra.ExactArgs(1),
		RunE:  runThreshold,
	}
	thresholdCmd.Flags().StringVar(&sweepParam, "param", "beta", "parameter to sweep")
	thresholdCmd.Flags().Float64Var(&sweepMin, "min", 0.05, "lowest value")
	thresholdCmd.Flags().Float64Var(&sweepMax, "max", 0.5, "highest value")
	thresholdCmd.Flags().IntVar(&thresholdSteps, "steps", 40, "number of values")
	thresholdCmd.Flags().StringVar(&compartment, "compartment", "I", "compartment to track")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run every step of a scenario file and store the runs",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	uncertaintyCmd := &cobra.Command{
		Use:   "uncertainty [preset]",
		Short: "rerun a preset with uniformly drawn parameters",
		Args:  cobra.ExactArgs(1),
		RunE:  runUncertainty,
	}
	uncertaintyCmd.Flags().StringArrayVar(&ranges, "range", nil, "parameter range name=min:max")
	uncertaintyCmd.Flags().IntVar(&trials, "trials", 100, "number of trials")
	uncertaintyCmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	uncertaintyCmd.Flags().StringVar(&compartment, "compartment", "I", "compartment to track")

	optimizeCmd := &cobra.Command{
		Use:   "optimize [preset]",
		Short: "grid search for the parameters minimising a run metric",
		Args:  cobra.ExactArgs(1),
		RunE:  runOptimize,
	}
	optimizeCmd.Flags().StringArrayVar(&ranges, "grid", nil, "parameter grid name=min:max:n")
	optimizeCmd.Flags().StringVar(&objective, "minimize", "peak_prevalence", "metric to minimise (any run metric, r0 or attack_rate)")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase portrait of two compartments",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().StringVar(&xAxis, "x", "S", "compartment on the x-axis")
	phaseCmd.Flags().StringVar(&yAxis, "y", "I", "compartment on the y-axis")

	periodCmd := &cobra.Command{
		Use:   "period [run_id]",
		Short: "growth rate and dominant period of a compartment",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzePeriod,
	}
	periodCmd.Flags().StringVar(&compartment, "compartment", "I", "compartment to analyse")

	playCmd := &cobra.Command{
		Use:   "play [run_id]",
		Short: "replay a stored run in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  playRun,
	}

	rootCmd.AddCommand(runCmd, stochasticCmd, listCmd, showCmd, chartCmd, exportCSVCmd, exportJSONCmd,
		presetsCmd, modelsCmd, compareCmd, sweepCmd, thresholdCmd, batchCmd, uncertaintyCmd, optimizeCmd,
		phaseCmd, periodCmd, playCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator")
	cmd.Flags().Float64Var(&dt, "dt", 0.1, "timestep")
	cmd.Flags().Float64Var(&duration, "time", 160, "duration")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "parameter override name=value")
	cmd.Flags().StringArrayVar(&inits, "init", nil, "initial compartment size name=value")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "also render a chart (.png or .svg)")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
}

func openStore() (*storage.Store, error) {
	st := storage.New(dataDir, logger)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}
