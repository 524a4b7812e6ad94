package viz

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/san-kum/episim/internal/analysis"
)

// SummaryTable lays out per-compartment peaks and final values, in the order
// of compartments, followed by R0 and the attack rate when known.
func SummaryTable(s *analysis.Summary, compartments []string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(Subtle).
		Headers("compartment", "peak", "peak time", "final").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return Title.Padding(0, 1)
			}
			if col == 0 {
				return lipgloss.NewStyle().Padding(0, 1)
			}
			return MetricValue.Padding(0, 1)
		})

	for _, name := range compartments {
		p := s.Peaks[name]
		t.Row(name, format(p.Value), format(p.Time), format(s.FinalState[name]))
	}

	var b strings.Builder
	b.WriteString(t.String())
	b.WriteString("\n")
	if s.R0 > 0 {
		b.WriteString(MetricLabel.Render("R0") + MetricValue.Render(format(s.R0)) + "\n")
	}
	if s.AttackRate > 0 {
		b.WriteString(MetricLabel.Render("attack rate") + MetricValue.Render(fmt.Sprintf("%.1f%%", 100*s.AttackRate)) + "\n")
	}
	return b.String()
}

// KeyValues renders a sorted two-column listing, used for params and metrics.
func KeyValues(title string, values map[string]float64) string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render(title) + "\n")
	if len(values) == 0 {
		b.WriteString(Subtle.Render("  (none)") + "\n")
		return b.String()
	}
	for _, k := range slices.Sorted(maps.Keys(values)) {
		b.WriteString("  " + MetricLabel.Render(k) + MetricValue.Render(format(values[k])) + "\n")
	}
	return b.String()
}

func format(v float64) string {
	return fmt.Sprintf("%.4g", v)
}
