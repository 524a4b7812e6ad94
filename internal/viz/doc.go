// Package viz renders simulation output for the terminal.
//
// Charts are drawn with asciigraph, one line per compartment or indicator,
// and summaries are laid out as lipgloss tables:
//
//   - [PlotSeries]: multi-series chart with a legend
//   - [Sparkline]: compact single-row trend
//   - [SummaryTable]: peaks, R0 and final state of a run
//   - [Theme]: compartment colours for both
package viz
