// Package analysis derives epidemiological summaries from simulation results.
//
// The package includes:
//
//   - [Summarize]: peaks, final state, R0 and attack rate of a run
//   - [Indicators]: derived series such as prevalence and incidence
//   - [GrowthRate]: early exponential growth rate from a log-linear fit
//   - [ThresholdDiagram]: parameter sweep of the long-run outcome
//   - [DominantPeriod]: spectral period of recurrent epidemics
//   - [GeneratePhasePortrait]: 2D trajectories such as S against I
//
// # Threshold Behaviour
//
// Sweeping the transmission rate across R0 = 1 shows the transcritical
// transition between die-out and a major epidemic:
//
//	diagram, err := analysis.ThresholdDiagram(ctx, m, integrators.NewRK4(), "beta", 0, 0.5, 26, "R", cfg)
package analysis
